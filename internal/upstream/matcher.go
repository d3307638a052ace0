package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"matchmaker/internal/domain"
)

// MatcherClient consulta el servicio de matching de la plataforma de codigo.
type MatcherClient struct {
	base baseClient
}

func NewMatcherClient(baseURL string, opts Options) *MatcherClient {
	return &MatcherClient{base: newBaseClient(baseURL, opts)}
}

type matchItem struct {
	Username  string   `mapstructure:"username"`
	Name      string   `mapstructure:"name"`
	URL       string   `mapstructure:"url"`
	AvatarURL string   `mapstructure:"avatar_url"`
	Bio       string   `mapstructure:"bio"`
	Reason    string   `mapstructure:"reason"`
	Pitch     string   `mapstructure:"pitch"`
	Score     *float64 `mapstructure:"score"`
}

// Match devuelve los candidatos para el identificador, en el orden del servicio.
func (c *MatcherClient) Match(ctx context.Context, identifier string) ([]domain.Candidate, error) {
	body, err := c.base.get(ctx, "match", "/match/"+url.PathEscape(identifier))
	if err != nil {
		return nil, err
	}

	var env struct {
		Status        string           `json:"status"`
		TotalAnalyzed int              `json:"total_analyzed"`
		Matches       []map[string]any `json:"matches"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("match: %w: %v", ErrDecode, err)
	}

	out := make([]domain.Candidate, 0, len(env.Matches))
	for i, raw := range env.Matches {
		var item matchItem
		if err := decodeItem(raw, &item); err != nil {
			c.base.logger.Warn("skipping malformed match item", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, item.toCandidate())
	}
	return out, nil
}

func (m matchItem) toCandidate() domain.Candidate {
	profileURL := m.URL
	if profileURL == "" && m.Username != "" {
		profileURL = "https://github.com/" + m.Username
	}
	return domain.Candidate{
		Kind:       domain.KindPerson,
		Source:     domain.SourcePrimary,
		ID:         m.Username,
		Name:       firstNonEmpty(m.Name, m.Username),
		AvatarURL:  m.AvatarURL,
		Headline:   firstNonEmpty(m.Reason, m.Bio),
		ProfileURL: profileURL,
		Score:      clampScore(m.Score),
		Pitch:      m.Pitch,
	}
}
