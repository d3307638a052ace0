package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"matchmaker/internal/domain"
)

// EnvelopeKind identifica cual de las cuatro formas devolvio el servicio de personas.
type EnvelopeKind int

const (
	EnvelopeArray EnvelopeKind = iota
	EnvelopeData
	EnvelopeResults
	EnvelopeError
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopeArray:
		return "array"
	case EnvelopeData:
		return "data"
	case EnvelopeResults:
		return "results"
	case EnvelopeError:
		return "error"
	}
	return "unknown"
}

// PeopleEnvelope es la union etiquetada normalizada. Items es nil para EnvelopeError.
type PeopleEnvelope struct {
	Kind  EnvelopeKind
	Items []map[string]any
	Error string
}

// DecodePeopleEnvelope acepta array, {data}, {results} o {error}; cualquier otra cosa es ErrDecode.
func DecodePeopleEnvelope(body []byte) (PeopleEnvelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return PeopleEnvelope{}, fmt.Errorf("%w: empty body", ErrDecode)
	}

	switch trimmed[0] {
	case '[':
		var items []map[string]any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return PeopleEnvelope{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return PeopleEnvelope{Kind: EnvelopeArray, Items: items}, nil
	case '{':
	default:
		return PeopleEnvelope{}, fmt.Errorf("%w: not an array or object", ErrDecode)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return PeopleEnvelope{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if raw, ok := obj["error"]; ok && !isNull(raw) {
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			msg = string(raw)
		}
		return PeopleEnvelope{Kind: EnvelopeError, Error: msg}, nil
	}
	for _, key := range []struct {
		name string
		kind EnvelopeKind
	}{{"data", EnvelopeData}, {"results", EnvelopeResults}} {
		raw, ok := obj[key.name]
		if !ok {
			continue
		}
		var items []map[string]any
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &items); err != nil {
				return PeopleEnvelope{}, fmt.Errorf("%w: %s: %v", ErrDecode, key.name, err)
			}
		}
		return PeopleEnvelope{Kind: key.kind, Items: items}, nil
	}
	return PeopleEnvelope{}, fmt.Errorf("%w: object without data, results or error", ErrDecode)
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// PeopleClient consulta el buscador de personas de la red profesional.
type PeopleClient struct {
	base baseClient
}

func NewPeopleClient(baseURL string, opts Options) *PeopleClient {
	return &PeopleClient{base: newBaseClient(baseURL, opts)}
}

type peopleRequest struct {
	Keyword string               `json:"keyword"`
	Filters domain.SearchFilters `json:"filters"`
}

type personItem struct {
	URNID             string   `mapstructure:"urn_id"`
	URL               string   `mapstructure:"url"`
	ProfileURL        string   `mapstructure:"profile_url"`
	Title             string   `mapstructure:"title"`
	Name              string   `mapstructure:"name"`
	Subtitle          string   `mapstructure:"subtitle"`
	Headline          string   `mapstructure:"headline"`
	ImageURL          string   `mapstructure:"image_url"`
	ProfilePictureURL string   `mapstructure:"profile_picture_url"`
	Score             *float64 `mapstructure:"score"`
}

// Search devuelve candidatos etiquetados como secundarios. Un {error} explicito da lista vacia.
func (c *PeopleClient) Search(ctx context.Context, keyword string, filters domain.SearchFilters) ([]domain.Candidate, error) {
	if filters == nil {
		filters = domain.SearchFilters{}
	}
	body, err := c.base.postJSON(ctx, "people", "/people", peopleRequest{Keyword: keyword, Filters: filters})
	if err != nil {
		return nil, err
	}

	env, err := DecodePeopleEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("people: %w", err)
	}
	if env.Kind == EnvelopeError {
		c.base.logger.Warn("people search reported error", zap.String("error", env.Error))
		return []domain.Candidate{}, nil
	}

	out := make([]domain.Candidate, 0, len(env.Items))
	for i, raw := range env.Items {
		var item personItem
		if err := decodeItem(raw, &item); err != nil {
			c.base.logger.Warn("skipping malformed person item", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, item.toCandidate())
	}
	return out, nil
}

func (p personItem) toCandidate() domain.Candidate {
	profileURL := firstNonEmpty(p.URL, p.ProfileURL)
	return domain.Candidate{
		Kind:       domain.KindPerson,
		Source:     domain.SourceSecondary,
		ID:         firstNonEmpty(p.URNID, profileURL),
		Name:       firstNonEmpty(p.Title, p.Name),
		AvatarURL:  firstNonEmpty(p.ImageURL, p.ProfilePictureURL),
		Headline:   firstNonEmpty(p.Subtitle, p.Headline),
		ProfileURL: profileURL,
		Score:      clampScore(p.Score),
	}
}
