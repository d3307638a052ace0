package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"matchmaker/internal/domain"
)

// KeywordsClient llama al servicio de extraccion de keywords.
type KeywordsClient struct {
	base baseClient
}

func NewKeywordsClient(baseURL string, opts Options) *KeywordsClient {
	return &KeywordsClient{base: newBaseClient(baseURL, opts)}
}

type keywordsRequest struct {
	About          string                `json:"about"`
	Goal           string                `json:"goal"`
	Skills         []string              `json:"skills"`
	Projects       string                `json:"projects"`
	ConnectionType domain.ConnectionType `json:"connection_type"`
	EngagementType domain.EngagementType `json:"engagement_type"`
}

// Extract devuelve las keywords en el orden del servicio. Una lista vacia no es error.
func (c *KeywordsClient) Extract(ctx context.Context, profile domain.Profile) ([]string, error) {
	skills := profile.Skills
	if skills == nil {
		skills = []string{}
	}
	body, err := c.base.postJSON(ctx, "keywords", "/keywords", keywordsRequest{
		About:          profile.About,
		Goal:           profile.Goal,
		Skills:         skills,
		Projects:       profile.Projects,
		ConnectionType: profile.ConnectionType,
		EngagementType: profile.EngagementType,
	})
	if err != nil {
		return nil, err
	}

	var env struct {
		Keywords json.RawMessage `json:"keywords"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("keywords: %w: %v", ErrDecode, err)
	}
	if len(env.Keywords) == 0 || string(env.Keywords) == "null" {
		return nil, nil
	}
	// El servicio devuelve {} cuando el modelo no produjo una lista.
	var keywords []string
	if err := json.Unmarshal(env.Keywords, &keywords); err != nil {
		return nil, fmt.Errorf("keywords: %w: keywords is not a string array", ErrDecode)
	}
	return keywords, nil
}
