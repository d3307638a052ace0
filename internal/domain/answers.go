package domain

import "time"

// UserAnswers guarda el ultimo Profile enviado por un usuario.
type UserAnswers struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
