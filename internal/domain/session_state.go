package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

type SecondaryState string

const (
	SecondaryNotStarted SecondaryState = "not_started"
	SecondaryInProgress SecondaryState = "in_progress"
	SecondaryCompleted  SecondaryState = "completed"
	SecondaryErrored    SecondaryState = "errored"
)

type SecondaryStatus struct {
	State SecondaryState `json:"state"`
	Count int            `json:"count"`
	Error string         `json:"error,omitempty"`
}

type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseReady   Phase = "ready"
)

// SessionState es el registro unico que comparten el agregador y las vistas de resultados.
type SessionState struct {
	SessionID string          `json:"session_id"`
	Result    *ResultSet      `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Secondary SecondaryStatus `json:"secondary"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewSessionState devuelve el estado inicial de una sesion.
func NewSessionState(sessionID string) SessionState {
	return SessionState{
		SessionID: sessionID,
		Secondary: SecondaryStatus{State: SecondaryNotStarted},
	}
}

// Phase deriva lo que debe mostrar la vista: error tiene prioridad sobre datos.
func (s SessionState) Phase() Phase {
	switch {
	case s.Error != "":
		return PhaseError
	case s.Result != nil:
		return PhaseReady
	default:
		return PhaseLoading
	}
}

// Clone evita que los lectores compartan el slice de candidatos con el escritor.
func (s SessionState) Clone() SessionState {
	out := s
	if s.Result != nil {
		rs := s.Result.Clone()
		out.Result = &rs
	}
	return out
}

// Legacy storage keys leidas por vistas antiguas.
const (
	KeyMatchesData       = "matchesData"
	KeyMatchesError      = "matchesError"
	KeyLinkedinLoading   = "linkedinLoading"
	KeyLinkedinCompleted = "linkedinCompleted"
	KeyLinkedinCount     = "linkedinCount"
	KeyLinkedinError     = "linkedinError"
)

// LegacyKeys proyecta el estado al formato clave/valor de strings.
func (s SessionState) LegacyKeys() (map[string]string, error) {
	out := make(map[string]string, 6)
	if s.Result != nil {
		raw, err := json.Marshal(s.Result)
		if err != nil {
			return nil, err
		}
		out[KeyMatchesData] = string(raw)
	}
	if s.Error != "" {
		out[KeyMatchesError] = s.Error
	}

	switch s.Secondary.State {
	case SecondaryInProgress:
		out[KeyLinkedinLoading] = "true"
		out[KeyLinkedinCompleted] = "false"
	case SecondaryCompleted:
		out[KeyLinkedinLoading] = "false"
		out[KeyLinkedinCompleted] = "true"
		out[KeyLinkedinCount] = strconv.Itoa(s.Secondary.Count)
	case SecondaryErrored:
		out[KeyLinkedinLoading] = "false"
		out[KeyLinkedinCompleted] = "false"
	}
	if s.Secondary.Error != "" {
		out[KeyLinkedinError] = s.Secondary.Error
	}
	return out, nil
}
