package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"matchmaker/internal/domain"
	"matchmaker/internal/staging"
	"matchmaker/internal/upstream"
)

// PrimaryFetcher es la fuente requerida de candidatos (matching por plataforma de codigo).
type PrimaryFetcher interface {
	Match(ctx context.Context, identifier string) ([]domain.Candidate, error)
}

// SecondaryFetcher es la fuente opcional (busqueda en la red profesional).
type SecondaryFetcher interface {
	Search(ctx context.Context, keyword string, filters domain.SearchFilters) ([]domain.Candidate, error)
}

// JobFetcher busca ofertas para el camino de contratacion.
type JobFetcher interface {
	Search(ctx context.Context, keyword, location string, maxJobs int) ([]domain.Candidate, error)
}

// KeywordProvider resuelve la keyword principal de un perfil; nunca falla.
type KeywordProvider interface {
	PrimaryKeyword(ctx context.Context, profile domain.Profile) string
}

// MatchConfig agrupa los topes y tiempos del flujo.
type MatchConfig struct {
	PrimaryCap       int
	SecondaryCap     int
	SettleDelay      time.Duration
	RequestTimeout   time.Duration
	SecondaryTimeout time.Duration
	DefaultLocation  string
	MaxJobs          int
}

func (c MatchConfig) withDefaults() MatchConfig {
	if c.PrimaryCap <= 0 {
		c.PrimaryCap = DefaultPrimaryCap
	}
	if c.SecondaryCap <= 0 {
		c.SecondaryCap = DefaultSecondaryCap
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.SecondaryTimeout <= 0 {
		c.SecondaryTimeout = 30 * time.Second
	}
	if strings.TrimSpace(c.DefaultLocation) == "" {
		c.DefaultLocation = "Global"
	}
	if c.MaxJobs <= 0 {
		c.MaxJobs = 10
	}
	return c
}

// MatchRequest es lo que envia la vista al iniciar el flujo.
type MatchRequest struct {
	Profile domain.Profile       `json:"profile"`
	Filters domain.SearchFilters `json:"filters,omitempty"`
}

const (
	prefetchMaxAge = 5 * time.Minute
	runMaxAge      = 30 * time.Minute
)

// errRunSuperseded marca una publicacion descartada porque otra corrida tomo la sesion.
var errRunSuperseded = errors.New("run superseded")

type runEntry struct {
	gen       uint64
	startedAt time.Time
}

type prefetchEntry struct {
	identifier string
	task       *Task[[]domain.Candidate]
	startedAt  time.Time
}

// MatchService orquesta keyword, fuentes, agregacion y publicacion en el staging area.
type MatchService struct {
	store     staging.Store
	keywords  KeywordProvider
	primary   PrimaryFetcher
	secondary SecondaryFetcher
	jobs      JobFetcher
	cfg       MatchConfig
	score     Scorer
	logger    *zap.Logger

	after func(time.Duration) <-chan time.Time
	now   func() time.Time

	mu         sync.Mutex
	prefetched map[string]prefetchEntry
	runs       map[string]runEntry
	runSeq     uint64
	background sync.WaitGroup
}

func NewMatchService(
	logger *zap.Logger,
	store staging.Store,
	keywords KeywordProvider,
	primary PrimaryFetcher,
	secondary SecondaryFetcher,
	jobs JobFetcher,
	cfg MatchConfig,
) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchService{
		store:      store,
		keywords:   keywords,
		primary:    primary,
		secondary:  secondary,
		jobs:       jobs,
		cfg:        cfg.withDefaults(),
		score:      RandomScorer(),
		logger:     logger,
		after:      time.After,
		now:        time.Now,
		prefetched: make(map[string]prefetchEntry),
		runs:       make(map[string]runEntry),
	}
}

// WithScorer reemplaza el scorer de candidatos secundarios.
func (s *MatchService) WithScorer(score Scorer) *MatchService {
	s.score = score
	return s
}

// Prefetch arranca el fetch primario antes de que el usuario termine el formulario.
// Run reutiliza la tarea si el identificador coincide.
func (s *MatchService) Prefetch(ctx context.Context, sessionID, profileURL string) error {
	identifier, err := ParseIdentifier(profileURL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepPrefetchLocked()
	if entry, ok := s.prefetched[sessionID]; ok && entry.identifier == identifier {
		return nil
	}
	s.prefetched[sessionID] = prefetchEntry{
		identifier: identifier,
		task:       s.startPrimary(ctx, identifier),
		startedAt:  s.now(),
	}
	s.logger.Info("primary prefetch started", zap.String("session_id", sessionID), zap.String("identifier", identifier))
	return nil
}

// Run ejecuta el flujo completo para la sesion y devuelve el estado publicado.
// En el camino de personas el estado devuelto es el interino; el final se publica en segundo plano.
func (s *MatchService) Run(ctx context.Context, sessionID string, req MatchRequest) (domain.SessionState, error) {
	if err := validateProfile(req.Profile); err != nil {
		return domain.SessionState{}, err
	}
	gen := s.beginRun(sessionID)
	if req.Profile.IsHiring() {
		return s.runJobs(ctx, sessionID, gen, req.Profile)
	}
	return s.runPeople(ctx, sessionID, gen, req)
}

// Wait bloquea hasta que terminen las fases secundarias en curso.
func (s *MatchService) Wait() {
	s.background.Wait()
}

func (s *MatchService) runPeople(ctx context.Context, sessionID string, gen uint64, req MatchRequest) (domain.SessionState, error) {
	identifier, err := ParseIdentifier(req.Profile.ProfileURL)
	if err != nil {
		// La vista abierta no debe seguir mostrando la corrida anterior.
		state, pubErr := s.publish(ctx, sessionID, gen, func(st *domain.SessionState) error {
			st.Result = &domain.ResultSet{Kind: domain.ResultPeople, Candidates: []domain.Candidate{}}
			st.Error = "invalid profile url"
			st.Secondary = domain.SecondaryStatus{State: domain.SecondaryNotStarted}
			return nil
		})
		if pubErr != nil && !errors.Is(pubErr, errRunSuperseded) {
			return domain.SessionState{}, errors.Join(err, pubErr)
		}
		return state, err
	}
	log := s.logger.With(zap.String("session_id", sessionID), zap.String("identifier", identifier))

	primaryTask := s.takePrimary(ctx, sessionID, identifier)
	keyword := s.keywords.PrimaryKeyword(ctx, req.Profile)
	secondaryTask := s.startSecondary(ctx, keyword, req.Filters, log)

	primary, err := primaryTask.Await(ctx)
	if err != nil {
		fatalErr := fatal("primary fetch", err)
		log.Error("primary fetch failed", zap.Error(err))
		state, pubErr := s.publish(ctx, sessionID, gen, func(st *domain.SessionState) error {
			st.Result = &domain.ResultSet{Kind: domain.ResultPeople, Candidates: []domain.Candidate{}}
			st.Error = primaryErrorMessage(err)
			st.Secondary = domain.SecondaryStatus{State: domain.SecondaryErrored, Error: "primary fetch failed"}
			return nil
		})
		if errors.Is(pubErr, errRunSuperseded) {
			log.Info("primary failure not published, session taken by a newer run")
			return s.store.Get(ctx, sessionID)
		}
		if pubErr != nil {
			return domain.SessionState{}, errors.Join(fatalErr, pubErr)
		}
		return state, fatalErr
	}

	interim := TruncatePrimary(primary, s.cfg.PrimaryCap)
	state, err := s.publish(ctx, sessionID, gen, func(st *domain.SessionState) error {
		st.Result = &domain.ResultSet{Kind: domain.ResultPeople, Candidates: interim}
		st.Error = ""
		st.Secondary = domain.SecondaryStatus{State: domain.SecondaryInProgress}
		return nil
	})
	if errors.Is(err, errRunSuperseded) {
		log.Info("interim not published, session taken by a newer run")
		return s.store.Get(ctx, sessionID)
	}
	if err != nil {
		return domain.SessionState{}, err
	}
	log.Info("interim matches published", zap.Int("primary", len(interim)), zap.String("keyword", keyword))

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.finishPeople(context.WithoutCancel(ctx), sessionID, gen, interim, secondaryTask, log)
	}()
	return state, nil
}

func (s *MatchService) finishPeople(ctx context.Context, sessionID string, gen uint64, interim []domain.Candidate, task *Task[[]domain.Candidate], log *zap.Logger) {
	<-s.after(s.cfg.SettleDelay)

	awaitCtx, cancel := context.WithTimeout(ctx, s.cfg.SecondaryTimeout)
	list, err := task.Await(awaitCtx)
	cancel()

	status := domain.SecondaryStatus{State: domain.SecondaryCompleted}
	if err != nil {
		log.Warn("secondary fetch degraded", zap.Error(errors.Join(ErrUpstreamDegraded, err)))
		status.Error = "secondary source unavailable"
		list = nil
	}
	secondary := PrepareSecondary(list, s.cfg.SecondaryCap, s.score)
	status.Count = len(secondary)
	final := Merge(interim, secondary)

	_, err = s.publish(ctx, sessionID, gen, func(st *domain.SessionState) error {
		st.Result = &final
		st.Secondary = status
		return nil
	})
	if errors.Is(err, errRunSuperseded) {
		log.Info("final matches dropped, session taken by a newer run")
		return
	}
	if err != nil {
		log.Error("final publish failed", zap.Error(err))
		return
	}
	log.Info("final matches published", zap.Int("total", len(final.Candidates)), zap.Int("secondary", status.Count))
}

func (s *MatchService) runJobs(ctx context.Context, sessionID string, gen uint64, profile domain.Profile) (domain.SessionState, error) {
	keyword := s.keywords.PrimaryKeyword(ctx, profile)
	location := strings.TrimSpace(profile.Location)
	if location == "" {
		location = s.cfg.DefaultLocation
	}
	log := s.logger.With(zap.String("session_id", sessionID), zap.String("keyword", keyword))

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	jobs, err := s.jobs.Search(callCtx, keyword, location, s.cfg.MaxJobs)
	cancel()
	if err != nil {
		fatalErr := fatal("job search", err)
		log.Error("job search failed", zap.Error(err))
		state, pubErr := s.publish(ctx, sessionID, gen, func(st *domain.SessionState) error {
			st.Result = &domain.ResultSet{Kind: domain.ResultJobs, Candidates: []domain.Candidate{}}
			st.Error = "job search unavailable"
			st.Secondary = domain.SecondaryStatus{State: domain.SecondaryNotStarted}
			return nil
		})
		if errors.Is(pubErr, errRunSuperseded) {
			log.Info("job failure not published, session taken by a newer run")
			return s.store.Get(ctx, sessionID)
		}
		if pubErr != nil {
			return domain.SessionState{}, errors.Join(fatalErr, pubErr)
		}
		return state, fatalErr
	}

	if len(jobs) > s.cfg.MaxJobs {
		jobs = jobs[:s.cfg.MaxJobs]
	}
	state, err := s.publish(ctx, sessionID, gen, func(st *domain.SessionState) error {
		st.Result = &domain.ResultSet{Kind: domain.ResultJobs, Candidates: jobs}
		st.Error = ""
		st.Secondary = domain.SecondaryStatus{State: domain.SecondaryNotStarted}
		return nil
	})
	if errors.Is(err, errRunSuperseded) {
		log.Info("job matches not published, session taken by a newer run")
		return s.store.Get(ctx, sessionID)
	}
	if err != nil {
		return domain.SessionState{}, err
	}
	log.Info("job matches published", zap.Int("jobs", len(jobs)))
	return state, nil
}

func (s *MatchService) takePrimary(ctx context.Context, sessionID, identifier string) *Task[[]domain.Candidate] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.prefetched[sessionID]; ok {
		delete(s.prefetched, sessionID)
		if entry.identifier == identifier {
			return entry.task
		}
	}
	return s.startPrimary(ctx, identifier)
}

func (s *MatchService) startPrimary(ctx context.Context, identifier string) *Task[[]domain.Candidate] {
	base := context.WithoutCancel(ctx)
	return StartTask(base, func(ctx context.Context) ([]domain.Candidate, error) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
		return s.primary.Match(ctx, identifier)
	})
}

func (s *MatchService) startSecondary(ctx context.Context, keyword string, filters domain.SearchFilters, log *zap.Logger) *Task[[]domain.Candidate] {
	if s.secondary == nil {
		return ResolvedTask[[]domain.Candidate](nil, nil)
	}
	base := context.WithoutCancel(ctx)
	return StartTask(base, func(ctx context.Context) ([]domain.Candidate, error) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.SecondaryTimeout)
		defer cancel()
		list, err := s.secondary.Search(ctx, keyword, filters)
		if err != nil {
			return nil, err
		}
		log.Debug("secondary fetch resolved", zap.Int("count", len(list)))
		return list, nil
	})
}

// beginRun registra una nueva corrida para la sesion; las anteriores dejan de publicar.
func (s *MatchService) beginRun(sessionID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-runMaxAge)
	for id, entry := range s.runs {
		if entry.startedAt.Before(cutoff) {
			delete(s.runs, id)
		}
	}
	s.runSeq++
	s.runs[sessionID] = runEntry{gen: s.runSeq, startedAt: s.now()}
	return s.runSeq
}

func (s *MatchService) isCurrentRun(sessionID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[sessionID].gen == gen
}

// publish escribe en el staging area solo si gen sigue siendo la corrida vigente.
// El chequeo corre dentro del Update para que no se cuele entre lectura y escritura.
func (s *MatchService) publish(ctx context.Context, sessionID string, gen uint64, fn staging.UpdateFunc) (domain.SessionState, error) {
	return s.store.Update(ctx, sessionID, func(st *domain.SessionState) error {
		if !s.isCurrentRun(sessionID, gen) {
			return errRunSuperseded
		}
		return fn(st)
	})
}

func (s *MatchService) sweepPrefetchLocked() {
	cutoff := s.now().Add(-prefetchMaxAge)
	for id, entry := range s.prefetched {
		if entry.startedAt.Before(cutoff) {
			delete(s.prefetched, id)
		}
	}
}

func validateProfile(p domain.Profile) error {
	switch domain.ConnectionType(strings.ToLower(strings.TrimSpace(string(p.ConnectionType)))) {
	case "", domain.ConnectionHiring, domain.ConnectionCollaborators:
	default:
		return &ValidationError{Field: "connection_type", Reason: "must be hiring or collaborators"}
	}
	if p.EngagementType != "" && !p.EngagementType.Valid() {
		return &ValidationError{Field: "engagement_type", Reason: "unknown value"}
	}
	return nil
}

func primaryErrorMessage(err error) string {
	if upstream.IsStatus(err, http.StatusNotFound) {
		return "profile not found on primary source"
	}
	return "primary source unavailable"
}
