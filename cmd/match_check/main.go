package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"matchmaker/internal/config"
	"matchmaker/internal/domain"
	"matchmaker/internal/service"
	"matchmaker/internal/staging"
	"matchmaker/internal/upstream"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

type Scenario struct {
	Name    string
	Stubs   stubConfig
	Profile domain.Profile
	Expect  expectation
}

func scenarios() []Scenario {
	collaborator := domain.Profile{
		Goal:           "find people to build a developer tool",
		Skills:         []string{"Go", "Postgres"},
		ConnectionType: domain.ConnectionCollaborators,
		ProfileURL:     "https://github.com/alice/",
	}
	hiring := domain.Profile{
		Goal:           "hire a backend engineer",
		Skills:         []string{"Go"},
		ConnectionType: domain.ConnectionHiring,
	}

	return []Scenario{
		{
			Name:    "25 primary + 15 secondary",
			Stubs:   stubConfig{Primary: 25, Secondary: 15},
			Profile: collaborator,
			Expect: expectation{
				Kind: domain.ResultPeople, InterimCount: 20, InterimSecondary: domain.SecondaryInProgress,
				FinalCount: 30, FinalSecondary: domain.SecondaryCompleted, SecondaryCount: 10,
			},
		},
		{
			Name:    "secondary network error",
			Stubs:   stubConfig{Primary: 25, SecondaryFails: true},
			Profile: collaborator,
			Expect: expectation{
				Kind: domain.ResultPeople, InterimCount: 20, InterimSecondary: domain.SecondaryInProgress,
				FinalCount: 20, FinalSecondary: domain.SecondaryCompleted, SecondaryCount: 0,
			},
		},
		{
			Name:    "hiring path",
			Stubs:   stubConfig{Jobs: 12},
			Profile: hiring,
			Expect: expectation{
				Kind: domain.ResultJobs, InterimCount: 10, InterimSecondary: domain.SecondaryNotStarted,
				FinalCount: 10, FinalSecondary: domain.SecondaryNotStarted,
			},
		},
		{
			Name:    "primary profile not found",
			Stubs:   stubConfig{PrimaryStatus: http.StatusNotFound, Secondary: 3},
			Profile: collaborator,
			Expect:  expectation{WantFatal: true},
		},
	}
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewNop()
	if os.Getenv("MATCH_CHECK_VERBOSE") != "" {
		logger, _ = zap.NewDevelopment()
	}

	failed := 0
	for _, sc := range scenarios() {
		fmt.Printf("%s[Scenario]%s %s\n", colorCyan, colorReset, sc.Name)
		obs := runScenario(cfg, logger, sc)
		failures := verify(obs, sc.Expect)
		if len(failures) == 0 {
			fmt.Printf("%sPASS%s interim=%d final=%d secondary=%s/%d\n\n", colorGreen, colorReset,
				resultCount(obs.Interim), resultCount(obs.Final), obs.Final.Secondary.State, obs.Final.Secondary.Count)
			continue
		}
		failed++
		for _, f := range failures {
			fmt.Printf("%sFAIL%s %s\n", colorRed, colorReset, f)
		}
		fmt.Println()
	}

	fmt.Println("==== Summary ====")
	fmt.Printf("Passed: %d/%d\n", len(scenarios())-failed, len(scenarios()))
	if failed > 0 {
		os.Exit(1)
	}
}

func runScenario(cfg *config.Config, logger *zap.Logger, sc Scenario) observation {
	srv := newStubUpstreams(sc.Stubs)
	defer srv.Close()

	opts := upstream.Options{Timeout: 5 * time.Second, Limiter: upstream.NewLimiter(cfg.OutboundRPS * 10), Logger: logger}
	store := staging.NewMemoryStore(staging.NewHub(logger), time.Minute)
	keywords := service.NewKeywordService(logger, time.Second,
		service.NamedExtractor{Name: "keywords-service", Extractor: upstream.NewKeywordsClient(srv.URL, opts)},
	)
	matches := service.NewMatchService(logger, store, keywords,
		upstream.NewMatcherClient(srv.URL, opts),
		upstream.NewPeopleClient(srv.URL, opts),
		upstream.NewJobsClient(srv.URL, opts),
		service.MatchConfig{
			PrimaryCap:       cfg.PrimaryCap,
			SecondaryCap:     cfg.SecondaryCap,
			SettleDelay:      100 * time.Millisecond,
			RequestTimeout:   5 * time.Second,
			SecondaryTimeout: 5 * time.Second,
			DefaultLocation:  cfg.DefaultJobLocation,
			MaxJobs:          cfg.MaxJobs,
		},
	)

	ctx := context.Background()
	sessionID := uuid.NewString()
	if _, err := store.Create(ctx, sessionID); err != nil {
		return observation{RunErr: err}
	}

	interim, runErr := matches.Run(ctx, sessionID, service.MatchRequest{Profile: sc.Profile})
	matches.Wait()
	final, err := store.Get(ctx, sessionID)
	if err != nil && runErr == nil {
		runErr = err
	}
	return observation{Interim: interim, Final: final, RunErr: runErr}
}
