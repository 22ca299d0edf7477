package verification

import (
	"context"
	"math/rand"
	"sync"
)

// ComplianceSimulator screens a subject against watch-list, sanctions, PEP
// and AML data. The four sub-checks are independent and run in parallel;
// each draws from its own seeded source so outcomes stay deterministic per
// document number.
type ComplianceSimulator struct {
	seed SeedFunc
}

func NewComplianceSimulator(seed SeedFunc) *ComplianceSimulator {
	if seed == nil {
		seed = DigitSeed
	}
	return &ComplianceSimulator{seed: seed}
}

func (s *ComplianceSimulator) Evaluate(ctx context.Context, subjectID, nationalID string) (*ComplianceResult, error) {
	base := s.seed(nationalID)
	result := &ComplianceResult{}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		result.WatchlistHit = rand.New(rand.NewSource(base+1)).Float64() < 0.01
	}()
	go func() {
		defer wg.Done()
		result.SanctionsHit = rand.New(rand.NewSource(base+2)).Float64() < 0.005
	}()
	go func() {
		defer wg.Done()
		result.PEPMatch = rand.New(rand.NewSource(base+3)).Float64() < 0.03
	}()
	go func() {
		defer wg.Done()
		result.AMLFlag = rand.New(rand.NewSource(base+4)).Float64() < 0.02
	}()
	wg.Wait()

	var levels []RiskLevel
	details := map[string]interface{}{}

	// Watch-list and sanctions matches are critical and block outright.
	if result.WatchlistHit {
		levels = append(levels, RiskCritical)
		details["watchlist"] = "match"
	}
	if result.SanctionsHit {
		levels = append(levels, RiskCritical)
		details["sanctions"] = "match"
	}
	// An AML flag blocks until reviewed, but is not critical.
	if result.AMLFlag {
		levels = append(levels, RiskHigh)
		details["aml"] = "flagged for review"
	}
	// A PEP match never blocks; it elevates risk and requires enhanced review.
	if result.PEPMatch {
		levels = append(levels, RiskMedium)
		result.EnhancedReview = true
		details["pep"] = "politically exposed person"
	}

	result.RiskLevel = MaxRisk(levels...)
	result.Passed = !result.WatchlistHit && !result.SanctionsHit && !result.AMLFlag
	if len(details) > 0 {
		result.Details = details
	}
	return result, nil
}
