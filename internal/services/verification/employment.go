package verification

import (
	"context"
	"math/rand"
)

// EmploymentSimulator classifies a subject's employer into an ordered tier
// and derives a 0-100 priority score, a credit multiplier, and an
// installment-count ceiling from tier, tenure, insurance registration, and
// salary band.
type EmploymentSimulator struct {
	seed SeedFunc
}

func NewEmploymentSimulator(seed SeedFunc) *EmploymentSimulator {
	if seed == nil {
		seed = DigitSeed
	}
	return &EmploymentSimulator{seed: seed}
}

type tierParams struct {
	baseScore       int
	multiplier      float64
	maxInstallments int
	salaryBase      float64
}

var tierTable = map[string]tierParams{
	TierGovernment:     {baseScore: 80, multiplier: 2.0, maxInstallments: 36, salaryBase: 12000},
	TierSemiGovernment: {baseScore: 72, multiplier: 1.8, maxInstallments: 30, salaryBase: 11000},
	TierLargePrivate:   {baseScore: 64, multiplier: 1.5, maxInstallments: 24, salaryBase: 15000},
	TierSMEPrivate:     {baseScore: 50, multiplier: 1.2, maxInstallments: 18, salaryBase: 8000},
	TierSelfEmployed:   {baseScore: 38, multiplier: 1.0, maxInstallments: 12, salaryBase: 9000},
	TierUnemployed:     {baseScore: 5, multiplier: 0.5, maxInstallments: 6, salaryBase: 0},
}

func (s *EmploymentSimulator) Evaluate(ctx context.Context, subjectID, nationalID string) (*EmploymentProfile, error) {
	rng := rand.New(rand.NewSource(s.seed(nationalID) + 13))

	tier := pickTier(rng.Intn(100))
	params := tierTable[tier]

	tenure := 0
	insured := false
	salary := 0.0
	if tier != TierUnemployed {
		tenure = rng.Intn(240)
		insured = rng.Float64() < insuranceChance(tier)
		salary = params.salaryBase * (0.7 + rng.Float64()*0.9)
	}

	// Longer tenure and insurance registration raise the score; tier sets
	// the floor and ceiling of what's reachable.
	score := params.baseScore
	if tenureBonus := tenure / 24; tenureBonus > 10 {
		score += 10
	} else {
		score += tenureBonus
	}
	if insured {
		score += 5
	}
	if salary > params.salaryBase {
		score += 5
	}
	if score > 100 {
		score = 100
	}

	profile := &EmploymentProfile{
		EmployerTier:     tier,
		TenureMonths:     tenure,
		SocialInsurance:  insured,
		MonthlySalary:    salary,
		Score:            score,
		CreditMultiplier: params.multiplier,
		MaxInstallments:  params.maxInstallments,
	}
	profile.Passed = tier != TierUnemployed
	switch tier {
	case TierUnemployed:
		profile.RiskLevel = RiskHigh
	case TierSelfEmployed:
		profile.RiskLevel = RiskMedium
	default:
		profile.RiskLevel = RiskLow
	}
	return profile, nil
}

func pickTier(roll int) string {
	switch {
	case roll < 15:
		return TierGovernment
	case roll < 25:
		return TierSemiGovernment
	case roll < 45:
		return TierLargePrivate
	case roll < 75:
		return TierSMEPrivate
	case roll < 90:
		return TierSelfEmployed
	default:
		return TierUnemployed
	}
}

func insuranceChance(tier string) float64 {
	switch tier {
	case TierGovernment, TierSemiGovernment:
		return 0.98
	case TierLargePrivate:
		return 0.9
	case TierSMEPrivate:
		return 0.6
	default:
		return 0.25
	}
}
