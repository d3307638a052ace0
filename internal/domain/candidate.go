package domain

type CandidateKind string

const (
	KindPerson CandidateKind = "person"
	KindJob    CandidateKind = "job"
)

type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceUnknown   Source = "unknown"
)

// Candidate representa una persona o una oferta; Kind decide que campos aplican.
type Candidate struct {
	Kind   CandidateKind `json:"kind"`
	Source Source        `json:"source"`

	// Persona
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	Headline   string `json:"headline,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	Score      *int   `json:"score,omitempty"`
	Pitch      string `json:"pitch,omitempty"`

	// Oferta
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	JobURL   string `json:"job_url,omitempty"`
}

type ResultKind string

const (
	ResultPeople ResultKind = "people"
	ResultJobs   ResultKind = "jobs"
)

type ResultSet struct {
	Kind       ResultKind  `json:"kind"`
	Candidates []Candidate `json:"candidates"`
}

// Clone copia la lista para que quien publica no comparta el slice.
func (r ResultSet) Clone() ResultSet {
	out := ResultSet{Kind: r.Kind, Candidates: make([]Candidate, len(r.Candidates))}
	copy(out.Candidates, r.Candidates)
	return out
}

// IntPtr es un atajo para scores opcionales.
func IntPtr(v int) *int { return &v }
