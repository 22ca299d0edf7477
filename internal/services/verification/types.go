// Package verification holds the four risk signal providers the risk engine
// aggregates: identity, compliance screening, credit bureau, and employment.
// Providers are independent of each other and safe to invoke concurrently.
package verification

import "time"

// RiskLevel is the severity a provider attaches to its finding.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskOrder = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// MaxRisk returns the most severe of the given levels.
func MaxRisk(levels ...RiskLevel) RiskLevel {
	max := RiskLow
	for _, l := range levels {
		if riskOrder[l] > riskOrder[max] {
			max = l
		}
	}
	return max
}

// SignalResult is the common shape every provider returns.
type SignalResult struct {
	Passed    bool                   `json:"passed"`
	RiskLevel RiskLevel              `json:"risk_level"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Identity challenge states
const (
	ChallengeStatusPending   = "pending"
	ChallengeStatusConfirmed = "confirmed"
	ChallengeStatusExpired   = "expired"
)

// ChallengeTTL is how long an unconfirmed identity challenge stays valid.
const ChallengeTTL = 2 * time.Minute

// IdentityChallenge is a one-shot confirmation request issued to a consumer.
type IdentityChallenge struct {
	ChallengeID string    `json:"challenge_id"`
	SubjectID   string    `json:"subject_id"`
	NationalID  string    `json:"national_id"`
	Code        string    `json:"-"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IdentityResult is the identity provider's evaluation outcome.
type IdentityResult struct {
	SignalResult
	Verified    bool      `json:"verified"`
	Status      string    `json:"status"`
	FullName    string    `json:"full_name,omitempty"`
	DateOfBirth time.Time `json:"date_of_birth,omitempty"`
	DocExpiry   time.Time `json:"doc_expiry,omitempty"`
}

// ComplianceResult is the outcome of the four screening sub-checks.
type ComplianceResult struct {
	SignalResult
	WatchlistHit   bool `json:"watchlist_hit"`
	SanctionsHit   bool `json:"sanctions_hit"`
	PEPMatch       bool `json:"pep_match"`
	AMLFlag        bool `json:"aml_flag"`
	EnhancedReview bool `json:"enhanced_review"`
}

// Credit score bands
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandFair      = "fair"
	BandPoor      = "poor"
	BandDefaulter = "defaulter"
)

// CreditReportValidity is how long a fetched bureau report stays usable.
const CreditReportValidity = 30 * 24 * time.Hour

// BandForScore maps a numeric bureau score onto its band.
func BandForScore(score int) string {
	switch {
	case score >= 750:
		return BandExcellent
	case score >= 650:
		return BandGood
	case score >= 550:
		return BandFair
	case score >= 400:
		return BandPoor
	default:
		return BandDefaulter
	}
}

// CreditReport is a bureau report, cached for CreditReportValidity.
type CreditReport struct {
	SignalResult
	Score              int       `json:"score"`
	Band               string    `json:"band"`
	DefaultedLoans     int       `json:"defaulted_loans"`
	DelinquentPayments int       `json:"delinquent_payments"`
	UtilizationPct     float64   `json:"utilization_pct"`
	RecommendedCeiling float64   `json:"recommended_ceiling"`
	FetchedAt          time.Time `json:"fetched_at"`
}

// Employer tiers, ordered best to worst.
const (
	TierGovernment     = "government"
	TierSemiGovernment = "semi_government"
	TierLargePrivate   = "large_private"
	TierSMEPrivate     = "sme_private"
	TierSelfEmployed   = "self_employed"
	TierUnemployed     = "unemployed"
)

// EmploymentProfile is the employment registry's view of a consumer.
type EmploymentProfile struct {
	SignalResult
	EmployerTier     string  `json:"employer_tier"`
	TenureMonths     int     `json:"tenure_months"`
	SocialInsurance  bool    `json:"social_insurance"`
	MonthlySalary    float64 `json:"monthly_salary"`
	Score            int     `json:"score"` // 0-100
	CreditMultiplier float64 `json:"credit_multiplier"`
	MaxInstallments  int     `json:"max_installments"`
}
