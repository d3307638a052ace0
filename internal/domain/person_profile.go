package domain

// PersonProfile es el perfil que devuelve el scraper de la red profesional.
type PersonProfile struct {
	Name        string       `json:"name"`
	Headline    string       `json:"headline"`
	Location    string       `json:"location"`
	About       string       `json:"about"`
	Experiences []Experience `json:"experiences"`
	Educations  []Education  `json:"educations"`
	Skills      []string     `json:"skills"`
}

type Experience struct {
	PositionTitle   string `json:"position_title"`
	InstitutionName string `json:"institution_name"`
	FromDate        string `json:"from_date,omitempty"`
	ToDate          string `json:"to_date,omitempty"`
	Description     string `json:"description,omitempty"`
}

type Education struct {
	Degree          string `json:"degree"`
	InstitutionName string `json:"institution_name"`
	FromDate        string `json:"from_date,omitempty"`
	ToDate          string `json:"to_date,omitempty"`
}

// OCRResult es la respuesta del servicio de OCR; Fields guarda lo que no tipamos.
type OCRResult struct {
	Status    string         `json:"status"`
	Text      string         `json:"text,omitempty"`
	PageCount int            `json:"page_count"`
	Fields    map[string]any `json:"fields,omitempty"`
}
