package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"matchmaker/internal/domain"
)

// Card es la representacion que consume la vista de resultados. Los textos son HTML-safe.
type Card struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	ImageURL string        `json:"image_url,omitempty"`
	URL      string        `json:"url,omitempty"`
	Score    *int          `json:"score,omitempty"`
	Pitch    string        `json:"pitch,omitempty"`
	Source   domain.Source `json:"source"`
}

const (
	CardJob      = "job"
	CardGitHub   = "github"
	CardLinkedIn = "linkedin"
	CardUnknown  = "unknown"
)

// CardPresenter transforma candidatos en tarjetas sanitizando lo que viene de servicios externos.
type CardPresenter struct {
	policy *bluemonday.Policy
}

func NewCardPresenter() *CardPresenter {
	return &CardPresenter{policy: bluemonday.StrictPolicy()}
}

func (p *CardPresenter) Cards(rs *domain.ResultSet) []Card {
	if rs == nil {
		return []Card{}
	}
	out := make([]Card, 0, len(rs.Candidates))
	for i, c := range rs.Candidates {
		out = append(out, p.card(i, c))
	}
	return out
}

func (p *CardPresenter) card(i int, c domain.Candidate) Card {
	if c.Kind == domain.KindJob {
		subtitle := joinNonEmpty(" • ", c.Company, c.Location)
		return Card{
			ID:       fmt.Sprintf("job-%d-%s", i, c.JobURL),
			Type:     CardJob,
			Title:    p.text(c.Title),
			Subtitle: p.text(subtitle),
			ImageURL: safeURL(c.ImageURL),
			URL:      safeURL(c.JobURL),
			Source:   c.Source,
		}
	}

	card := Card{
		ID:       fmt.Sprintf("%s-%d-%s", c.Source, i, c.ID),
		ImageURL: safeURL(c.AvatarURL),
		Score:    c.Score,
		Source:   c.Source,
	}
	switch c.Source {
	case domain.SourcePrimary:
		card.Type = CardGitHub
		card.Title = p.text(firstNonBlank(c.Name, c.ID))
		subtitle := c.Headline
		if strings.TrimSpace(subtitle) == "" && c.ID != "" {
			subtitle = "@" + c.ID
		}
		card.Subtitle = p.text(subtitle)
		card.URL = safeURL(c.ProfileURL)
		if card.URL == "" && c.ID != "" {
			card.URL = "https://github.com/" + url.PathEscape(c.ID)
		}
		card.Pitch = p.text(c.Pitch)
	case domain.SourceSecondary:
		card.Type = CardLinkedIn
		card.Title = p.text(c.Name)
		card.Subtitle = p.text(c.Headline)
		card.URL = safeURL(c.ProfileURL)
	default:
		card.Type = CardUnknown
		card.Title = p.text(firstNonBlank(c.Name, "Unknown"))
		card.Subtitle = p.text(c.Headline)
		card.URL = safeURL(c.ProfileURL)
	}
	return card
}

func (p *CardPresenter) text(s string) string {
	return strings.TrimSpace(p.policy.Sanitize(s))
}

// safeURL solo deja pasar http(s) absolutas.
func safeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sep)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
