package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"matchmaker/internal/domain"
)

var ErrNotFound = errors.New("not found")

// AnswersRepository persiste el ultimo Profile enviado por cada usuario.
type AnswersRepository interface {
	Upsert(ctx context.Context, answers domain.UserAnswers) (domain.UserAnswers, error)
	GetByUserID(ctx context.Context, userID string) (domain.UserAnswers, error)
}

type PgAnswersRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnswersRepository(pool *pgxpool.Pool) *PgAnswersRepository {
	return &PgAnswersRepository{pool: pool}
}

func (r *PgAnswersRepository) Upsert(ctx context.Context, answers domain.UserAnswers) (domain.UserAnswers, error) {
	const query = `
		INSERT INTO user_answers (id, user_id, answers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET answers = EXCLUDED.answers, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	raw, err := json.Marshal(answers.Profile)
	if err != nil {
		return domain.UserAnswers{}, err
	}
	err = r.pool.QueryRow(ctx, query,
		answers.ID,
		answers.UserID,
		raw,
		answers.CreatedAt,
		answers.UpdatedAt,
	).Scan(&answers.ID, &answers.CreatedAt)
	return answers, err
}

func (r *PgAnswersRepository) GetByUserID(ctx context.Context, userID string) (domain.UserAnswers, error) {
	const query = `
		SELECT id, user_id, answers, created_at, updated_at
		FROM user_answers
		WHERE user_id = $1
	`
	var (
		answers domain.UserAnswers
		raw     []byte
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&answers.ID,
		&answers.UserID,
		&raw,
		&answers.CreatedAt,
		&answers.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserAnswers{}, ErrNotFound
	}
	if err != nil {
		return domain.UserAnswers{}, err
	}
	if err := json.Unmarshal(raw, &answers.Profile); err != nil {
		return domain.UserAnswers{}, err
	}
	return answers, nil
}

// MemoryAnswersRepository se usa cuando no hay DATABASE_URL.
type MemoryAnswersRepository struct {
	mu    sync.RWMutex
	items map[string]domain.UserAnswers
}

func NewMemoryAnswersRepository() *MemoryAnswersRepository {
	return &MemoryAnswersRepository{items: make(map[string]domain.UserAnswers)}
}

func (r *MemoryAnswersRepository) Upsert(_ context.Context, answers domain.UserAnswers) (domain.UserAnswers, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.items[answers.UserID]; ok {
		answers.ID = prev.ID
		answers.CreatedAt = prev.CreatedAt
	}
	r.items[answers.UserID] = answers
	return answers, nil
}

func (r *MemoryAnswersRepository) GetByUserID(_ context.Context, userID string) (domain.UserAnswers, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	answers, ok := r.items[userID]
	if !ok {
		return domain.UserAnswers{}, ErrNotFound
	}
	return answers, nil
}
