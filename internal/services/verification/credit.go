package verification

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// CreditBureauSimulator fabricates bureau reports deterministically per
// document number. Fetched reports are cached for CreditReportValidity and
// re-fetched once the cache entry lapses.
type CreditBureauSimulator struct {
	cache ReportCache
	seed  SeedFunc
}

func NewCreditBureauSimulator(cache ReportCache, seed SeedFunc) *CreditBureauSimulator {
	if seed == nil {
		seed = DigitSeed
	}
	return &CreditBureauSimulator{cache: cache, seed: seed}
}

func (s *CreditBureauSimulator) Evaluate(ctx context.Context, subjectID, nationalID string) (*CreditReport, error) {
	if report, ok, err := s.cache.GetReport(ctx, subjectID); err != nil {
		log.Printf("credit report cache read failed for %s: %v", subjectID, err)
	} else if ok {
		return report, nil
	}

	report := s.fetch(nationalID)
	if err := s.cache.PutReport(ctx, subjectID, report, CreditReportValidity); err != nil {
		return nil, fmt.Errorf("cache credit report: %w", err)
	}
	return report, nil
}

func (s *CreditBureauSimulator) fetch(nationalID string) *CreditReport {
	rng := rand.New(rand.NewSource(s.seed(nationalID) + 7))

	score := 300 + rng.Intn(551) // 300-850
	band := BandForScore(score)

	defaulted := 0
	if band == BandDefaulter {
		defaulted = 1 + rng.Intn(2)
	} else if rng.Float64() < 0.04 {
		defaulted = 1
	}

	delinquent := 0
	if score < 650 {
		delinquent = rng.Intn(4)
	}

	report := &CreditReport{
		Score:              score,
		Band:               band,
		DefaultedLoans:     defaulted,
		DelinquentPayments: delinquent,
		UtilizationPct:     10 + rng.Float64()*80,
		RecommendedCeiling: ceilingForBand(band),
		FetchedAt:          time.Now(),
	}
	report.Passed = defaulted == 0 && score >= 500
	report.RiskLevel = riskForBand(band)
	return report
}

func ceilingForBand(band string) float64 {
	switch band {
	case BandExcellent:
		return 100000
	case BandGood:
		return 60000
	case BandFair:
		return 30000
	case BandPoor:
		return 10000
	default:
		return 0
	}
}

func riskForBand(band string) RiskLevel {
	switch band {
	case BandExcellent, BandGood:
		return RiskLow
	case BandFair:
		return RiskMedium
	case BandPoor:
		return RiskHigh
	default:
		return RiskCritical
	}
}
