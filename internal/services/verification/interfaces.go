package verification

import (
	"context"
	"time"
)

// IdentityVerifier validates national IDs through a challenge/confirm flow.
// Evaluate reflects the current confirmation state: an unconfirmed or expired
// challenge reads as not verified, never as a permanent failure.
type IdentityVerifier interface {
	Initiate(ctx context.Context, subjectID, nationalID string) (*IdentityChallenge, error)
	Confirm(ctx context.Context, subjectID, code string) (*IdentityResult, error)
	Evaluate(ctx context.Context, subjectID, nationalID string) (*IdentityResult, error)
}

// ComplianceScreener runs watch-list, sanctions, PEP and AML checks.
type ComplianceScreener interface {
	Evaluate(ctx context.Context, subjectID, nationalID string) (*ComplianceResult, error)
}

// CreditBureau fetches credit reports. Implementations cache reports for
// CreditReportValidity and re-fetch once stale.
type CreditBureau interface {
	Evaluate(ctx context.Context, subjectID, nationalID string) (*CreditReport, error)
}

// EmploymentRegistry resolves a consumer's employment profile.
type EmploymentRegistry interface {
	Evaluate(ctx context.Context, subjectID, nationalID string) (*EmploymentProfile, error)
}

// ChallengeStore keeps identity challenges and confirmed results with TTLs.
// Backed by Redis in production; an in-memory version serves tests.
type ChallengeStore interface {
	PutChallenge(ctx context.Context, subjectID string, ch *IdentityChallenge, ttl time.Duration) error
	GetChallenge(ctx context.Context, subjectID string) (*IdentityChallenge, bool, error)
	DeleteChallenge(ctx context.Context, subjectID string) error
	PutResult(ctx context.Context, subjectID string, res *IdentityResult, ttl time.Duration) error
	GetResult(ctx context.Context, subjectID string) (*IdentityResult, bool, error)
}

// ReportCache caches bureau reports between evaluations.
type ReportCache interface {
	PutReport(ctx context.Context, subjectID string, report *CreditReport, ttl time.Duration) error
	GetReport(ctx context.Context, subjectID string) (*CreditReport, bool, error)
}

// SeedFunc derives a deterministic seed from a national ID. Simulators take
// it by injection so tests control outcomes without package-level state.
type SeedFunc func(nationalID string) int64

// DigitSeed folds the ID digits into a seed.
func DigitSeed(nationalID string) int64 {
	var seed int64
	for _, r := range nationalID {
		if r < '0' || r > '9' {
			continue
		}
		seed = seed*31 + int64(r-'0')
	}
	return seed
}
