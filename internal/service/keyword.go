package service

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"matchmaker/internal/domain"
)

// DefaultKeyword se usa cuando ni las skills ni el goal aportan un termino.
const DefaultKeyword = "developer"

var leadingMarker = regexp.MustCompile(`^\s*(?:\d+\s*[.):\-]|[-*•·]+)\s*`)

// CleanKeyword quita marcadores de enumeracion ("1)", "2.", "-", "•") y espacios.
func CleanKeyword(raw string) string {
	s := leadingMarker.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	return strings.Trim(s, `"'`)
}

// FallbackKeyword: primera skill no vacia, si no el goal, si no "developer".
func FallbackKeyword(profile domain.Profile) string {
	for _, skill := range profile.Skills {
		if kw := CleanKeyword(skill); kw != "" {
			return kw
		}
	}
	if kw := CleanKeyword(profile.Goal); kw != "" {
		return kw
	}
	return DefaultKeyword
}

// KeywordExtractor es cualquier fuente que proponga keywords ordenadas para un perfil.
type KeywordExtractor interface {
	Extract(ctx context.Context, profile domain.Profile) ([]string, error)
}

// NamedExtractor le pone nombre a un extractor para los logs.
type NamedExtractor struct {
	Name      string
	Extractor KeywordExtractor
}

// KeywordService recorre los extractores en orden y nunca falla: el peor caso es FallbackKeyword.
type KeywordService struct {
	extractors []NamedExtractor
	timeout    time.Duration
	logger     *zap.Logger
	group      singleflight.Group
}

func NewKeywordService(logger *zap.Logger, timeout time.Duration, extractors ...NamedExtractor) *KeywordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KeywordService{
		extractors: extractors,
		timeout:    timeout,
		logger:     logger,
	}
}

// PrimaryKeyword devuelve la keyword principal. Llamadas concurrentes con el mismo perfil comparten resultado.
func (s *KeywordService) PrimaryKeyword(ctx context.Context, profile domain.Profile) string {
	key, err := json.Marshal(profile)
	if err != nil {
		return s.extract(ctx, profile)
	}
	// El trabajo compartido no depende del contexto del primer llamador.
	v, _, _ := s.group.Do(string(key), func() (any, error) {
		return s.extract(context.WithoutCancel(ctx), profile), nil
	})
	return v.(string)
}

func (s *KeywordService) extract(ctx context.Context, profile domain.Profile) string {
	for _, ne := range s.extractors {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		keywords, err := ne.Extractor.Extract(callCtx, profile)
		cancel()
		if err != nil {
			s.logger.Warn("keyword extractor degraded",
				zap.String("extractor", ne.Name),
				zap.Error(err),
			)
			continue
		}
		for _, kw := range keywords {
			if cleaned := CleanKeyword(kw); cleaned != "" {
				return cleaned
			}
		}
		s.logger.Warn("keyword extractor returned no keywords", zap.String("extractor", ne.Name))
	}
	kw := FallbackKeyword(profile)
	s.logger.Info("using fallback keyword", zap.String("keyword", kw))
	return kw
}
