package domain

import "strings"

type ConnectionType string

const (
	ConnectionHiring        ConnectionType = "hiring"
	ConnectionCollaborators ConnectionType = "collaborators"
)

type EngagementType string

const (
	EngagementFullTime   EngagementType = "full_time"
	EngagementPartTime   EngagementType = "part_time"
	EngagementFreelance  EngagementType = "freelance"
	EngagementCofounder  EngagementType = "cofounder"
	EngagementMentorship EngagementType = "mentorship"
	EngagementOpenSource EngagementType = "open_source"
)

// Valid indica si el valor es uno de los seis literales aceptados.
func (e EngagementType) Valid() bool {
	switch e {
	case EngagementFullTime, EngagementPartTime, EngagementFreelance,
		EngagementCofounder, EngagementMentorship, EngagementOpenSource:
		return true
	}
	return false
}

// Profile son las respuestas del onboarding. No se modifica una vez enviado.
type Profile struct {
	Goal           string         `json:"goal"`
	Skills         []string       `json:"skills"`
	Projects       string         `json:"projects"`
	ConnectionType ConnectionType `json:"connection_type"`
	EngagementType EngagementType `json:"engagement_type"`
	About          string         `json:"about,omitempty"`
	Location       string         `json:"location,omitempty"`
	ProfileURL     string         `json:"profile_url,omitempty"`
}

// IsHiring devuelve true cuando el flujo debe buscar ofertas en vez de personas.
func (p Profile) IsHiring() bool {
	return ConnectionType(strings.ToLower(strings.TrimSpace(string(p.ConnectionType)))) == ConnectionHiring
}

// SearchFilters replica los filtros de busqueda de personas ("Locations", "Current company", ...).
type SearchFilters map[string][]string
