package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"matchmaker/internal/domain"
)

// JobsClient consulta el buscador de ofertas.
type JobsClient struct {
	base baseClient
}

func NewJobsClient(baseURL string, opts Options) *JobsClient {
	return &JobsClient{base: newBaseClient(baseURL, opts)}
}

type jobItem struct {
	Title       string `mapstructure:"title"`
	JobTitle    string `mapstructure:"job_title"`
	Company     string `mapstructure:"company"`
	CompanyName string `mapstructure:"company_name"`
	Location    string `mapstructure:"location"`
	ImageURL    string `mapstructure:"image_url"`
	JobLink     string `mapstructure:"job_link"`
	JobURL      string `mapstructure:"job_url"`
}

func (c *JobsClient) Search(ctx context.Context, keyword, location string, maxJobs int) ([]domain.Candidate, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("location", location)
	q.Set("max_jobs", strconv.Itoa(maxJobs))

	body, err := c.base.get(ctx, "jobs", "/job?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var env struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("jobs: %w: %v", ErrDecode, err)
	}

	out := make([]domain.Candidate, 0, len(env.Data))
	for i, raw := range env.Data {
		var item jobItem
		if err := decodeItem(raw, &item); err != nil {
			c.base.logger.Warn("skipping malformed job item", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, domain.Candidate{
			Kind:     domain.KindJob,
			Source:   domain.SourceUnknown,
			Title:    firstNonEmpty(item.Title, item.JobTitle),
			Company:  firstNonEmpty(item.Company, item.CompanyName),
			Location: item.Location,
			ImageURL: item.ImageURL,
			JobURL:   firstNonEmpty(item.JobLink, item.JobURL),
		})
	}
	return out, nil
}
