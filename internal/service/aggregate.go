package service

import (
	"math/rand/v2"

	"matchmaker/internal/domain"
)

const (
	DefaultPrimaryCap   = 20
	DefaultSecondaryCap = 10
)

// Scorer asigna relevancia a candidatos secundarios que llegan sin score.
type Scorer func() int

// RandomScorer devuelve un valor uniforme en [60,100].
func RandomScorer() Scorer {
	return func() int { return 60 + rand.IntN(41) }
}

// TruncatePrimary copia los primeros max candidatos en orden y los marca como primarios.
func TruncatePrimary(list []domain.Candidate, max int) []domain.Candidate {
	out := truncate(list, max)
	for i := range out {
		out[i].Source = domain.SourcePrimary
	}
	return out
}

// PrepareSecondary recorta, marca como secundarios y completa el score faltante.
func PrepareSecondary(list []domain.Candidate, max int, score Scorer) []domain.Candidate {
	out := truncate(list, max)
	for i := range out {
		out[i].Source = domain.SourceSecondary
		if out[i].Score == nil && score != nil {
			out[i].Score = domain.IntPtr(score())
		}
	}
	return out
}

// Merge concatena primarios y secundarios. No intercala ni deduplica.
func Merge(primary, secondary []domain.Candidate) domain.ResultSet {
	out := make([]domain.Candidate, 0, len(primary)+len(secondary))
	out = append(out, primary...)
	out = append(out, secondary...)
	return domain.ResultSet{Kind: domain.ResultPeople, Candidates: out}
}

// Aggregate aplica los topes y devuelve primary[:pcap] ++ secondary[:scap].
func Aggregate(primary, secondary []domain.Candidate, primaryCap, secondaryCap int, score Scorer) domain.ResultSet {
	return Merge(TruncatePrimary(primary, primaryCap), PrepareSecondary(secondary, secondaryCap, score))
}

func truncate(list []domain.Candidate, max int) []domain.Candidate {
	if max < 0 {
		max = 0
	}
	n := len(list)
	if n > max {
		n = max
	}
	out := make([]domain.Candidate, n)
	copy(out, list[:n])
	return out
}
