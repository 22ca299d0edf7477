package verification

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidNationalID = errors.New("national id must be 14 digits starting with 2 or 3")
	ErrInvalidCode       = errors.New("confirmation code does not match")
)

const nationalIDLength = 14

// identityResultTTL is how long a confirmed verification stays usable
// before the consumer must verify again.
const identityResultTTL = 24 * time.Hour

// IdentitySimulator is the deterministic stand-in for the national identity
// bureau. Challenges expire through the store's TTL; an expired challenge
// reads as "not verified" and a fresh Initiate issues a new one.
type IdentitySimulator struct {
	store ChallengeStore
	seed  SeedFunc
}

func NewIdentitySimulator(store ChallengeStore, seed SeedFunc) *IdentitySimulator {
	if seed == nil {
		seed = DigitSeed
	}
	return &IdentitySimulator{store: store, seed: seed}
}

// ValidateNationalID checks the document shape: fixed-length numeric with a
// century marker as the first digit.
func ValidateNationalID(nationalID string) error {
	if len(nationalID) != nationalIDLength {
		return ErrInvalidNationalID
	}
	for _, r := range nationalID {
		if r < '0' || r > '9' {
			return ErrInvalidNationalID
		}
	}
	if nationalID[0] != '2' && nationalID[0] != '3' {
		return ErrInvalidNationalID
	}
	return nil
}

// DateOfBirthFromID decodes the birth date encoded in digits 0-6 of the
// document number.
func DateOfBirthFromID(nationalID string) (time.Time, error) {
	if err := ValidateNationalID(nationalID); err != nil {
		return time.Time{}, err
	}
	century := 1900
	if nationalID[0] == '3' {
		century = 2000
	}
	year, _ := strconv.Atoi(nationalID[1:3])
	month, _ := strconv.Atoi(nationalID[3:5])
	day, _ := strconv.Atoi(nationalID[5:7])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, ErrInvalidNationalID
	}
	return time.Date(century+year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

func (s *IdentitySimulator) Initiate(ctx context.Context, subjectID, nationalID string) (*IdentityChallenge, error) {
	if err := ValidateNationalID(nationalID); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.seed(nationalID)))
	now := time.Now()
	ch := &IdentityChallenge{
		ChallengeID: uuid.NewString(),
		SubjectID:   subjectID,
		NationalID:  nationalID,
		Code:        fmt.Sprintf("%06d", rng.Intn(1000000)),
		IssuedAt:    now,
		ExpiresAt:   now.Add(ChallengeTTL),
	}
	if err := s.store.PutChallenge(ctx, subjectID, ch, ChallengeTTL); err != nil {
		return nil, fmt.Errorf("store challenge: %w", err)
	}
	return ch, nil
}

func (s *IdentitySimulator) Confirm(ctx context.Context, subjectID, code string) (*IdentityResult, error) {
	ch, ok, err := s.store.GetChallenge(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	if !ok {
		// Expired or never initiated. Not a permanent rejection: the caller
		// may re-initiate.
		return &IdentityResult{
			SignalResult: SignalResult{
				Passed:    false,
				RiskLevel: RiskMedium,
				Details:   map[string]interface{}{"reason": "challenge expired or not found"},
			},
			Verified: false,
			Status:   ChallengeStatusExpired,
		}, nil
	}
	if ch.Code != code {
		return nil, ErrInvalidCode
	}

	dob, err := DateOfBirthFromID(ch.NationalID)
	if err != nil {
		return nil, err
	}
	result := &IdentityResult{
		SignalResult: SignalResult{Passed: true, RiskLevel: RiskLow},
		Verified:     true,
		Status:       ChallengeStatusConfirmed,
		FullName:     derivedName(s.seed(ch.NationalID)),
		DateOfBirth:  dob,
		DocExpiry:    time.Now().AddDate(5, 0, 0),
	}
	if err := s.store.PutResult(ctx, subjectID, result, identityResultTTL); err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}
	_ = s.store.DeleteChallenge(ctx, subjectID)
	return result, nil
}

func (s *IdentitySimulator) Evaluate(ctx context.Context, subjectID, nationalID string) (*IdentityResult, error) {
	if err := ValidateNationalID(nationalID); err != nil {
		return &IdentityResult{
			SignalResult: SignalResult{
				Passed:    false,
				RiskLevel: RiskHigh,
				Details:   map[string]interface{}{"reason": "malformed national id"},
			},
			Status: ChallengeStatusExpired,
		}, nil
	}

	if result, ok, err := s.store.GetResult(ctx, subjectID); err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	} else if ok {
		return result, nil
	}

	status := ChallengeStatusExpired
	if _, ok, err := s.store.GetChallenge(ctx, subjectID); err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	} else if ok {
		status = ChallengeStatusPending
	}

	return &IdentityResult{
		SignalResult: SignalResult{
			Passed:    false,
			RiskLevel: RiskMedium,
			Details:   map[string]interface{}{"reason": "identity not confirmed"},
		},
		Verified: false,
		Status:   status,
	}, nil
}

var firstNames = []string{"Ahmed", "Mohamed", "Sara", "Nour", "Omar", "Laila", "Youssef", "Mariam"}
var lastNames = []string{"Hassan", "Ibrahim", "Mostafa", "Said", "Farouk", "Adel", "Khalil", "Gaber"}

func derivedName(seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
}
