// Package risk aggregates the four verification signals into one customer
// rating driving credit limits and checkout decisions.
package risk

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"fuelpass/internal/models"
	"fuelpass/internal/repositories"
	"fuelpass/internal/services/verification"
)

// Score weights. Employment is scaled from the provider's own 0-100 score;
// credit is scaled across the eligible 500-850 range.
const (
	identityWeight   = 20
	ageWeight        = 10
	complianceWeight = 20
	creditWeight     = 25
	employmentWeight = 25
)

const (
	// MinimumAge to transact on credit.
	MinimumAge = 21
	// MinimumCreditScore below which a consumer is ineligible outright.
	MinimumCreditScore = 500
	// GlobalCreditCeiling caps every computed limit.
	GlobalCreditCeiling = 100000
)

type Service interface {
	// Evaluate runs all four providers, scores the consumer, and replaces
	// any prior rating. Deterministic given identical provider outputs.
	Evaluate(ctx context.Context, userID, nationalID string) (*models.CustomerRating, error)
	GetRating(ctx context.Context, userID string) (*models.CustomerRating, error)
}

type service struct {
	identity   verification.IdentityVerifier
	compliance verification.ComplianceScreener
	credit     verification.CreditBureau
	employment verification.EmploymentRegistry
	ratings    repositories.RatingRepository
	cache      RatingCache
}

func NewService(
	identity verification.IdentityVerifier,
	compliance verification.ComplianceScreener,
	credit verification.CreditBureau,
	employment verification.EmploymentRegistry,
	ratings repositories.RatingRepository,
	cache RatingCache,
) Service {
	if cache == nil {
		cache = NoopRatingCache{}
	}
	return &service{
		identity:   identity,
		compliance: compliance,
		credit:     credit,
		employment: employment,
		ratings:    ratings,
		cache:      cache,
	}
}

func (s *service) Evaluate(ctx context.Context, userID, nationalID string) (*models.CustomerRating, error) {
	var (
		wg         sync.WaitGroup
		identity   *verification.IdentityResult
		compliance *verification.ComplianceResult
		credit     *verification.CreditReport
		employment *verification.EmploymentProfile
	)

	// The providers are read-only against independent systems, so all four
	// run concurrently. A transport-level error never crashes the pipeline;
	// it degrades to the most conservative outcome and is logged.
	wg.Add(4)
	go func() {
		defer wg.Done()
		res, err := s.identity.Evaluate(ctx, userID, nationalID)
		if err != nil {
			log.Printf("identity provider failed for %s: %v", userID, err)
			res = &verification.IdentityResult{
				SignalResult: conservative("identity provider error"),
			}
		}
		identity = res
	}()
	go func() {
		defer wg.Done()
		res, err := s.compliance.Evaluate(ctx, userID, nationalID)
		if err != nil {
			log.Printf("compliance provider failed for %s: %v", userID, err)
			res = &verification.ComplianceResult{
				SignalResult: conservative("compliance provider error"),
			}
		}
		compliance = res
	}()
	go func() {
		defer wg.Done()
		res, err := s.credit.Evaluate(ctx, userID, nationalID)
		if err != nil {
			log.Printf("credit provider failed for %s: %v", userID, err)
			res = &verification.CreditReport{
				SignalResult: conservative("credit provider error"),
			}
		}
		credit = res
	}()
	go func() {
		defer wg.Done()
		res, err := s.employment.Evaluate(ctx, userID, nationalID)
		if err != nil {
			log.Printf("employment provider failed for %s: %v", userID, err)
			res = &verification.EmploymentProfile{
				SignalResult: conservative("employment provider error"),
			}
		}
		employment = res
	}()
	wg.Wait()

	rating := s.score(userID, identity, compliance, credit, employment)

	if err := s.ratings.Upsert(rating); err != nil {
		return nil, err
	}
	if err := s.cache.PutRating(ctx, userID, rating); err != nil {
		log.Printf("rating cache write failed for %s: %v", userID, err)
	}
	return rating, nil
}

func (s *service) score(
	userID string,
	identity *verification.IdentityResult,
	compliance *verification.ComplianceResult,
	credit *verification.CreditReport,
	employment *verification.EmploymentProfile,
) *models.CustomerRating {
	ageVerified := false
	if identity.Verified && !identity.DateOfBirth.IsZero() {
		ageVerified = yearsSince(identity.DateOfBirth) >= MinimumAge
	}

	// Hard stops. Providers still all ran for audit completeness; a stop
	// only decides eligibility, never which signals get recorded.
	eligible := identity.Verified && ageVerified
	// Critical findings (watch-list, sanctions) and an AML flag both block;
	// the AML block holds until the flag is reviewed. Only a PEP match may
	// fail to block.
	if compliance.RiskLevel == verification.RiskCritical || compliance.AMLFlag {
		eligible = false
	}
	if credit.DefaultedLoans > 0 || credit.Score < MinimumCreditScore {
		eligible = false
	}

	score := 0
	if identity.Verified {
		score += identityWeight
	}
	if ageVerified {
		score += ageWeight
	}
	score += compliancePoints(compliance)
	score += creditPoints(credit)
	score += employment.Score * employmentWeight / 100
	if score > 100 {
		score = 100
	}

	tier := tierForScore(score)
	if !eligible {
		tier = models.TierBlocked
	}

	limit := 0.0
	installments := 0
	if eligible {
		limit = creditLimit(credit, employment)
		installments = employment.MaxInstallments
	}

	return &models.CustomerRating{
		UserID:             userID,
		IdentityVerified:   identity.Verified,
		AgeVerified:        ageVerified,
		CompliancePassed:   compliance.Passed,
		CreditApproved:     credit.Passed,
		EmploymentVerified: employment.Passed,
		EmploymentScore:    employment.Score,
		CreditScore:        credit.Score,
		ComplianceScore:    compliancePoints(compliance),
		OverallScore:       score,
		PriorityTier:       tier,
		Eligible:           eligible,
		CreditLimit:        limit,
		MaxInstallments:    installments,
		EvaluatedAt:        time.Now(),
	}
}

func (s *service) GetRating(ctx context.Context, userID string) (*models.CustomerRating, error) {
	if rating, ok, err := s.cache.GetRating(ctx, userID); err == nil && ok {
		return rating, nil
	}
	rating, err := s.ratings.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.PutRating(ctx, userID, rating); err != nil {
		log.Printf("rating cache write failed for %s: %v", userID, err)
	}
	return rating, nil
}

func conservative(reason string) verification.SignalResult {
	return verification.SignalResult{
		Passed:    false,
		RiskLevel: verification.RiskHigh,
		Details:   map[string]interface{}{"reason": reason},
	}
}

func compliancePoints(res *verification.ComplianceResult) int {
	if !res.Passed {
		return 0
	}
	// A PEP match passes but costs points pending enhanced review.
	if res.EnhancedReview {
		return complianceWeight * 6 / 10
	}
	return complianceWeight
}

func creditPoints(report *verification.CreditReport) int {
	if !report.Passed {
		return 0
	}
	scaled := float64(creditWeight) * float64(report.Score-MinimumCreditScore) / float64(850-MinimumCreditScore)
	if scaled < 0 {
		return 0
	}
	if scaled > creditWeight {
		return creditWeight
	}
	return int(math.Round(scaled))
}

func tierForScore(score int) string {
	switch {
	case score >= 85:
		return models.TierPremium
	case score >= 70:
		return models.TierHigh
	case score >= 50:
		return models.TierStandard
	case score >= 30:
		return models.TierRestricted
	default:
		return models.TierBlocked
	}
}

func bandMultiplier(band string) float64 {
	switch band {
	case verification.BandExcellent:
		return 1.5
	case verification.BandGood:
		return 1.2
	case verification.BandFair:
		return 1.0
	case verification.BandPoor:
		return 0.7
	default:
		return 0
	}
}

// creditLimit derives the recommended limit from a salary-based ceiling
// scaled by credit-band and employment multipliers, clamped to the global
// maximum and to the bureau's own recommended ceiling.
func creditLimit(report *verification.CreditReport, employment *verification.EmploymentProfile) float64 {
	base := employment.MonthlySalary * 4
	limit := base * bandMultiplier(report.Band) * employment.CreditMultiplier
	if limit > GlobalCreditCeiling {
		limit = GlobalCreditCeiling
	}
	if report.RecommendedCeiling > 0 && limit > report.RecommendedCeiling {
		limit = report.RecommendedCeiling
	}
	return math.Round(limit*100) / 100
}

func yearsSince(dob time.Time) int {
	now := time.Now()
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	return years
}
