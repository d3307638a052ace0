package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"matchmaker/internal/domain"
)

// ScraperClient obtiene un perfil completo de la red profesional.
type ScraperClient struct {
	base baseClient
}

func NewScraperClient(baseURL string, opts Options) *ScraperClient {
	return &ScraperClient{base: newBaseClient(baseURL, opts)}
}

func (c *ScraperClient) ScrapePerson(ctx context.Context, profileURL string) (domain.PersonProfile, error) {
	body, err := c.base.get(ctx, "scrape_person", "/scrape/person?linkedin_url="+url.QueryEscape(profileURL))
	if err != nil {
		return domain.PersonProfile{}, err
	}
	var profile domain.PersonProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return domain.PersonProfile{}, fmt.Errorf("scrape_person: %w: %v", ErrDecode, err)
	}
	return profile, nil
}
