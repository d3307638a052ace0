package main

import (
	"errors"
	"fmt"

	"matchmaker/internal/domain"
	"matchmaker/internal/service"
)

// expectation es lo que debe observarse en el staging area tras un escenario.
type expectation struct {
	InterimCount     int
	InterimSecondary domain.SecondaryState
	FinalCount       int
	FinalSecondary   domain.SecondaryState
	SecondaryCount   int
	Kind             domain.ResultKind
	WantFatal        bool
}

type observation struct {
	Interim domain.SessionState
	Final   domain.SessionState
	RunErr  error
}

// verify devuelve la lista de diferencias; vacia significa que el escenario paso.
func verify(obs observation, exp expectation) []string {
	var failures []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			failures = append(failures, fmt.Sprintf(format, args...))
		}
	}

	if exp.WantFatal {
		check(errors.Is(obs.RunErr, service.ErrUpstreamFatal), "expected fatal upstream error, got %v", obs.RunErr)
		check(obs.Final.Phase() == domain.PhaseError, "expected error phase, got %s", obs.Final.Phase())
		check(resultCount(obs.Final) == 0, "expected empty result on failure, got %d", resultCount(obs.Final))
		return failures
	}

	check(obs.RunErr == nil, "unexpected run error: %v", obs.RunErr)
	check(resultKind(obs.Interim) == exp.Kind, "expected %s result, got %s", exp.Kind, resultKind(obs.Interim))
	check(resultCount(obs.Interim) == exp.InterimCount, "interim: expected %d candidates, got %d", exp.InterimCount, resultCount(obs.Interim))
	check(obs.Interim.Secondary.State == exp.InterimSecondary, "interim: expected secondary %s, got %s", exp.InterimSecondary, obs.Interim.Secondary.State)
	check(resultCount(obs.Final) == exp.FinalCount, "final: expected %d candidates, got %d", exp.FinalCount, resultCount(obs.Final))
	check(obs.Final.Secondary.State == exp.FinalSecondary, "final: expected secondary %s, got %s", exp.FinalSecondary, obs.Final.Secondary.State)
	check(obs.Final.Secondary.Count == exp.SecondaryCount, "final: expected secondary count %d, got %d", exp.SecondaryCount, obs.Final.Secondary.Count)
	check(obs.Final.Version >= obs.Interim.Version, "final version %d older than interim %d", obs.Final.Version, obs.Interim.Version)

	// El prefijo del resultado final debe ser exactamente el interino.
	if obs.Interim.Result != nil && obs.Final.Result != nil && len(obs.Final.Result.Candidates) >= len(obs.Interim.Result.Candidates) {
		for i, c := range obs.Interim.Result.Candidates {
			if obs.Final.Result.Candidates[i].ID != c.ID {
				failures = append(failures, fmt.Sprintf("final[%d]=%q does not match interim %q", i, obs.Final.Result.Candidates[i].ID, c.ID))
				break
			}
		}
	}
	return failures
}

func resultCount(s domain.SessionState) int {
	if s.Result == nil {
		return 0
	}
	return len(s.Result.Candidates)
}

func resultKind(s domain.SessionState) domain.ResultKind {
	if s.Result == nil {
		return ""
	}
	return s.Result.Kind
}
