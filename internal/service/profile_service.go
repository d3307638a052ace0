package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchmaker/internal/domain"
	"matchmaker/internal/repository"
)

var ErrAnswersNotFound = errors.New("answers not found")

// ProfileScraper obtiene el perfil publico de la red profesional.
type ProfileScraper interface {
	ScrapePerson(ctx context.Context, profileURL string) (domain.PersonProfile, error)
}

// ProfileService guarda las respuestas del onboarding y expone el scraper de perfiles.
type ProfileService struct {
	repo    repository.AnswersRepository
	scraper ProfileScraper
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewProfileService(logger *zap.Logger, repo repository.AnswersRepository, scraper ProfileScraper, timeout time.Duration) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ProfileService{
		repo:    repo,
		scraper: scraper,
		timeout: timeout,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SaveAnswers reemplaza las respuestas del usuario.
func (s *ProfileService) SaveAnswers(ctx context.Context, userID string, profile domain.Profile) (domain.UserAnswers, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserAnswers{}, &ValidationError{Field: "user_id", Reason: "required"}
	}
	if err := validateProfile(profile); err != nil {
		return domain.UserAnswers{}, err
	}
	now := s.now()
	saved, err := s.repo.Upsert(ctx, domain.UserAnswers{
		ID:        uuid.NewString(),
		UserID:    userID,
		Profile:   profile,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.UserAnswers{}, err
	}
	s.logger.Info("answers saved", zap.String("user_id", userID))
	return saved, nil
}

func (s *ProfileService) GetAnswers(ctx context.Context, userID string) (domain.UserAnswers, error) {
	answers, err := s.repo.GetByUserID(ctx, strings.TrimSpace(userID))
	if errors.Is(err, repository.ErrNotFound) {
		return domain.UserAnswers{}, ErrAnswersNotFound
	}
	return answers, err
}

// ScrapeProfile valida la URL y consulta el scraper. No forma parte del flujo de matching.
func (s *ProfileService) ScrapeProfile(ctx context.Context, profileURL string) (domain.PersonProfile, error) {
	profileURL = strings.TrimSpace(profileURL)
	u, err := url.Parse(profileURL)
	if profileURL == "" || err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return domain.PersonProfile{}, &ValidationError{Field: "linkedin_url", Reason: "absolute http(s) url required"}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	profile, err := s.scraper.ScrapePerson(ctx, profileURL)
	if err != nil {
		return domain.PersonProfile{}, fatal("scrape person", err)
	}
	return profile, nil
}
