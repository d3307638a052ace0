package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"matchmaker/internal/config"
	"matchmaker/internal/db"
	apihttp "matchmaker/internal/http"
	"matchmaker/internal/llm"
	"matchmaker/internal/repository"
	"matchmaker/internal/service"
	"matchmaker/internal/staging"
	"matchmaker/internal/upstream"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var answersRepo repository.AnswersRepository = repository.NewMemoryAnswersRepository()
	pool, err := db.NewPool(ctx, cfg)
	switch {
	case errors.Is(err, db.ErrNoDatabaseURL):
		logger.Warn("database not configured, answers kept in memory")
	case err != nil:
		logger.Fatal("db connect", zap.Error(err))
	default:
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		answersRepo = repository.NewPgAnswersRepository(pool)
	}

	hub := staging.NewHub(logger)
	var (
		store staging.Store = staging.NewMemoryStore(hub, cfg.SessionTTL)
		bus   staging.Bus
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory session store", zap.Error(err))
		} else {
			bus = staging.NewRedisBus(redisClient, cfg.RedisChannel, logger)
			store = staging.NewRedisStore(redisClient, bus, hub, cfg.SessionTTL, logger)
		}
		cancel()
	}

	opts := upstream.Options{
		Timeout: cfg.RequestTimeout,
		Limiter: upstream.NewLimiter(cfg.OutboundRPS),
		Logger:  logger,
	}
	keywordsClient := upstream.NewKeywordsClient(cfg.KeywordsBaseURL, opts)
	matcherClient := upstream.NewMatcherClient(cfg.MatcherBaseURL, opts)
	jobsClient := upstream.NewJobsClient(cfg.JobsBaseURL, opts)
	scraperClient := upstream.NewScraperClient(cfg.ScraperBaseURL, opts)
	// La busqueda secundaria y el OCR pueden tardar mas que el resto.
	slowOpts := opts
	slowOpts.Timeout = cfg.SecondaryTimeout
	peopleClient := upstream.NewPeopleClient(cfg.PeopleBaseURL, slowOpts)
	ocrClient := upstream.NewOCRClient(cfg.OCRBaseURL, slowOpts)

	extractors := []service.NamedExtractor{{Name: "keywords-service", Extractor: keywordsClient}}
	if llmClient := newLLMClient(ctx, cfg, logger); llmClient != nil {
		extractors = append(extractors, service.NamedExtractor{
			Name:      "llm-" + cfg.LLMProvider,
			Extractor: service.NewLLMKeywordExtractor(llmClient),
		})
	}
	keywordSvc := service.NewKeywordService(logger, cfg.RequestTimeout, extractors...)

	matchSvc := service.NewMatchService(logger, store, keywordSvc, matcherClient, peopleClient, jobsClient, service.MatchConfig{
		PrimaryCap:       cfg.PrimaryCap,
		SecondaryCap:     cfg.SecondaryCap,
		SettleDelay:      cfg.SettleDelay,
		RequestTimeout:   cfg.RequestTimeout,
		SecondaryTimeout: cfg.SecondaryTimeout,
		DefaultLocation:  cfg.DefaultJobLocation,
		MaxJobs:          cfg.MaxJobs,
	})
	profileSvc := service.NewProfileService(logger, answersRepo, scraperClient, cfg.SecondaryTimeout)
	documentSvc := service.NewDocumentService(logger, ocrClient, cfg.MaxUploadBytes, cfg.SecondaryTimeout)

	tokens := service.NewSessionTokenService(cfg.JWTSecret, cfg.SessionTokenTTL)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured, sessions cannot be opened")
	}

	router := apihttp.NewRouter(logger, tokens,
		apihttp.NewSessionHandler(logger, store, tokens),
		apihttp.NewMatchHandler(logger, store, matchSvc, service.NewCardPresenter()),
		apihttp.NewProfileHandler(logger, profileSvc),
		apihttp.NewDocumentHandler(logger, documentSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if bus != nil {
		// Otras instancias publican por Redis; el hub local reparte a los streams SSE.
		if err := bus.StartForwarder(gctx, hub.Notify); err != nil {
			logger.Fatal("redis forwarder", zap.Error(err))
		}
	}
	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}
	matchSvc.Wait()
	logger.Info("server stopped")
}

func newLLMClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) llm.LLMClient {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "openai":
		model := cfg.LLMModel
		if model == "" {
			model = "gpt-4o-mini"
		}
		return llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, model, cfg.RequestTimeout, logger)
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
		if err != nil {
			logger.Warn("gemini client init failed, llm keywords disabled", zap.Error(err))
			return nil
		}
		return client
	case "", "none":
		return nil
	default:
		logger.Warn("unknown llm provider", zap.String("provider", cfg.LLMProvider))
		return nil
	}
}
