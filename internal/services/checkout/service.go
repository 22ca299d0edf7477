// Package checkout owns the session state machine:
//
//	pending -> approved -> captured
//	pending -> declined
//	pending/approved -> cancelled
//	pending -> expired (TTL)
//
// Transitions are compare-and-swap updates on the status column, so two
// concurrent callers can never both win the same transition.
package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	domainerrors "fuelpass/internal/errors"
	"fuelpass/internal/models"
	"fuelpass/internal/repositories"
	"fuelpass/internal/services/risk"
	"fuelpass/internal/services/settlement"
	"fuelpass/internal/services/webhook"
	"fuelpass/internal/utils"
	"fuelpass/internal/validation"
)

type Service interface {
	Create(ctx context.Context, merchant *models.Merchant, input CreateSessionInput) (*models.CheckoutSession, error)
	// Get returns a merchant's view of a session, expiring it lazily.
	Get(ctx context.Context, merchantID uint, token string) (*models.CheckoutSession, error)
	// GetByToken is the consumer-facing read (token is the capability).
	GetByToken(ctx context.Context, token string) (*models.CheckoutSession, error)
	// Confirm runs the risk evaluation and moves a pending session to
	// approved or declined.
	Confirm(ctx context.Context, token string) (*models.CheckoutSession, error)
	Cancel(ctx context.Context, merchantID uint, token string) (*models.CheckoutSession, error)
	Capture(ctx context.Context, merchantID uint, token string) (*CaptureResult, error)
	// ExpireDue sweeps overdue pending sessions. Returns how many expired.
	ExpireDue(ctx context.Context, limit int) (int, error)
	StartExpirySweeper(ctx context.Context, interval time.Duration)
}

type service struct {
	sessions  repositories.CheckoutRepository
	merchants repositories.MerchantRepository
	ledger    repositories.LedgerRepository
	risk      risk.Service
	splitter  *settlement.Calculator
	notifier  webhook.Dispatcher
}

func NewService(
	sessions repositories.CheckoutRepository,
	merchants repositories.MerchantRepository,
	ledger repositories.LedgerRepository,
	riskSvc risk.Service,
	splitter *settlement.Calculator,
	notifier webhook.Dispatcher,
) Service {
	if splitter == nil {
		splitter = settlement.NewCalculator()
	}
	return &service{
		sessions:  sessions,
		merchants: merchants,
		ledger:    ledger,
		risk:      riskSvc,
		splitter:  splitter,
		notifier:  notifier,
	}
}

func (s *service) Create(ctx context.Context, merchant *models.Merchant, input CreateSessionInput) (*models.CheckoutSession, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	v := validation.New()
	validation.CheckSessionAmounts(v, input.TotalAmount, input.TaxAmount, input.ShippingAmount, input.DiscountAmount, input.Items)
	if err := v.Err(); err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "EGP"
	}
	productType := input.ProductType
	if productType == "" {
		productType = "fuel"
	}

	items := make([]interface{}, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, map[string]interface{}{
			"name":       item.Name,
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
		})
	}

	now := time.Now()
	session := &models.CheckoutSession{
		SessionToken:       "cs_" + utils.MustGenerateSecureCode(),
		MerchantID:         merchant.ID,
		MerchantReference:  input.MerchantReference,
		ConsumerPhone:      input.ConsumerPhone,
		ConsumerEmail:      input.ConsumerEmail,
		ConsumerName:       input.ConsumerName,
		ConsumerNationalID: input.ConsumerNationalID,
		TotalAmount:        input.TotalAmount,
		TaxAmount:          input.TaxAmount,
		ShippingAmount:     input.ShippingAmount,
		DiscountAmount:     input.DiscountAmount,
		Currency:           currency,
		Items:              models.JSON{"items": items},
		InstallmentCount:   input.InstallmentCount,
		ProductType:        productType,
		SuccessURL:         input.SuccessURL,
		FailureURL:         input.FailureURL,
		CancelURL:          input.CancelURL,
		WebhookURL:         input.WebhookURL,
		Status:             models.SessionStatusPending,
		ExpiresAt:          now.Add(models.SessionTTL),
	}

	if err := s.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *service) Get(ctx context.Context, merchantID uint, token string) (*models.CheckoutSession, error) {
	session, err := s.loadFresh(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.MerchantID != merchantID {
		return nil, domainerrors.ErrSessionNotFound
	}
	return session, nil
}

func (s *service) GetByToken(ctx context.Context, token string) (*models.CheckoutSession, error) {
	return s.loadFresh(ctx, token)
}

// loadFresh reads a session and lazily expires it when its TTL has lapsed,
// so readers never observe an actionable-looking overdue session.
func (s *service) loadFresh(ctx context.Context, token string) (*models.CheckoutSession, error) {
	session, err := s.sessions.GetByToken(token)
	if err != nil {
		if err == repositories.ErrSessionNotFound {
			return nil, domainerrors.ErrSessionNotFound
		}
		return nil, err
	}
	if session.Expired(time.Now()) {
		if expired, err := s.expire(ctx, session); err == nil && expired {
			session.Status = models.SessionStatusExpired
		}
	}
	return session, nil
}

func (s *service) Confirm(ctx context.Context, token string) (*models.CheckoutSession, error) {
	session, err := s.loadFresh(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusExpired {
		return nil, domainerrors.ErrSessionExpired
	}
	if session.Status != models.SessionStatusPending {
		return nil, domainerrors.ErrInvalidStateTransition
	}

	rating, err := s.risk.Evaluate(ctx, session.ConsumerPhone, session.ConsumerNationalID)
	if err != nil {
		return nil, fmt.Errorf("risk evaluation: %w", err)
	}

	switch {
	case !rating.Eligible:
		return s.decline(ctx, session, rating, DeclineReasonRiskBlocked)
	case rating.CreditLimit < session.TotalAmount:
		return s.decline(ctx, session, rating, DeclineReasonInsufficientLimit)
	}
	return s.approve(ctx, session, rating)
}

func (s *service) approve(ctx context.Context, session *models.CheckoutSession, rating *models.CustomerRating) (*models.CheckoutSession, error) {
	now := time.Now()
	// The risk evaluation takes time; the TTL guard on the write keeps a
	// session that expired mid-evaluation from being approved.
	ok, err := s.sessions.TransitionIfFresh(session.SessionToken, models.SessionStatusPending, now, map[string]interface{}{
		"status":       models.SessionStatusApproved,
		"decision":     models.DecisionApproved,
		"credit_limit": rating.CreditLimit,
		"risk_score":   rating.OverallScore,
		"approved_at":  now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Either a concurrent caller won the transition or the TTL lapsed.
		if fresh, ferr := s.loadFresh(ctx, session.SessionToken); ferr == nil && fresh.Status == models.SessionStatusExpired {
			return nil, domainerrors.ErrSessionExpired
		}
		return nil, domainerrors.ErrInvalidStateTransition
	}

	session.Status = models.SessionStatusApproved
	session.Decision = models.DecisionApproved
	session.CreditLimit = rating.CreditLimit
	session.RiskScore = rating.OverallScore
	session.ApprovedAt = &now

	s.notify(ctx, session, models.EventCheckoutApproved, models.JSON{
		"session_token":      session.SessionToken,
		"merchant_reference": session.MerchantReference,
		"status":             session.Status,
		"total_amount":       session.TotalAmount,
		"currency":           session.Currency,
		"credit_limit":       rating.CreditLimit,
		"risk_score":         rating.OverallScore,
	})
	return session, nil
}

func (s *service) decline(ctx context.Context, session *models.CheckoutSession, rating *models.CustomerRating, reason string) (*models.CheckoutSession, error) {
	ok, err := s.sessions.TransitionIf(session.SessionToken, models.SessionStatusPending, map[string]interface{}{
		"status":         models.SessionStatusDeclined,
		"decision":       models.DecisionDeclined,
		"decline_reason": reason,
		"risk_score":     rating.OverallScore,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainerrors.ErrInvalidStateTransition
	}

	session.Status = models.SessionStatusDeclined
	session.Decision = models.DecisionDeclined
	session.DeclineReason = reason
	session.RiskScore = rating.OverallScore

	s.notify(ctx, session, models.EventCheckoutDeclined, models.JSON{
		"session_token":      session.SessionToken,
		"merchant_reference": session.MerchantReference,
		"status":             session.Status,
		"decline_reason":     reason,
	})
	return session, nil
}

func (s *service) Cancel(ctx context.Context, merchantID uint, token string) (*models.CheckoutSession, error) {
	session, err := s.Get(ctx, merchantID, token)
	if err != nil {
		return nil, err
	}

	// Cancel is valid from pending or approved only.
	for _, from := range []string{models.SessionStatusPending, models.SessionStatusApproved} {
		if session.Status != from {
			continue
		}
		ok, err := s.sessions.TransitionIf(token, from, map[string]interface{}{
			"status": models.SessionStatusCancelled,
		})
		if err != nil {
			return nil, err
		}
		if ok {
			session.Status = models.SessionStatusCancelled
			return session, nil
		}
	}
	return nil, domainerrors.ErrInvalidStateTransition
}

func (s *service) Capture(ctx context.Context, merchantID uint, token string) (*CaptureResult, error) {
	session, err := s.Get(ctx, merchantID, token)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusApproved {
		return nil, domainerrors.ErrInvalidStateTransition
	}

	merchant, err := s.merchants.GetByID(merchantID)
	if err != nil {
		return nil, err
	}
	rate := merchant.CommissionRate
	if rate == 0 {
		rate = models.DefaultCommissionRate
	}

	split, err := s.splitter.Compute(session.TotalAmount, rate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tx, invoice, err := s.ledger.Capture(session, split.CommissionAmount, split.NetAmount, now)
	if err != nil {
		if err == repositories.ErrCaptureConflict {
			return nil, domainerrors.ErrInvalidStateTransition
		}
		return nil, fmt.Errorf("capture: %w", err)
	}

	session.Status = models.SessionStatusCaptured
	session.InvoiceID = &invoice.ID
	session.CapturedAt = &now

	s.notify(ctx, session, models.EventPaymentCaptured, models.JSON{
		"session_token":      session.SessionToken,
		"merchant_reference": session.MerchantReference,
		"status":             session.Status,
		"invoice_id":         invoice.ID,
		"gross_amount":       tx.GrossAmount,
		"commission_amount":  tx.CommissionAmount,
		"net_amount":         tx.NetAmount,
		"currency":           session.Currency,
	})

	return &CaptureResult{Session: session, Transaction: tx, Invoice: invoice}, nil
}

func (s *service) ExpireDue(ctx context.Context, limit int) (int, error) {
	due, err := s.sessions.ListExpired(time.Now(), limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range due {
		ok, err := s.expire(ctx, &due[i])
		if err != nil {
			log.Printf("failed to expire session %s: %v", due[i].SessionToken, err)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (s *service) expire(ctx context.Context, session *models.CheckoutSession) (bool, error) {
	ok, err := s.sessions.TransitionIf(session.SessionToken, models.SessionStatusPending, map[string]interface{}{
		"status": models.SessionStatusExpired,
	})
	if err != nil || !ok {
		return false, err
	}
	s.notify(ctx, session, models.EventCheckoutExpired, models.JSON{
		"session_token":      session.SessionToken,
		"merchant_reference": session.MerchantReference,
		"status":             models.SessionStatusExpired,
	})
	return true, nil
}

func (s *service) StartExpirySweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ExpireDue(ctx, 100); err != nil {
					log.Printf("expiry sweep failed: %v", err)
				}
			}
		}
	}()
}

func (s *service) notify(ctx context.Context, session *models.CheckoutSession, eventType string, payload models.JSON) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, session.MerchantID, session.WebhookURL, eventType, "checkout", session.SessionToken, payload)
	if err != nil {
		log.Printf("failed to queue %s webhook for %s: %v", eventType, session.SessionToken, err)
	}
}
