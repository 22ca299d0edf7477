// Package webhook delivers signed event notifications to merchant callback
// URLs. Events persist in a durable outbox table, so retries survive a
// process restart.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"fuelpass/internal/models"
	"fuelpass/internal/repositories"

	"github.com/google/uuid"
)

const (
	// MaxAttempts bounds delivery tries; after that the event is
	// permanently failed and surfaced through merchant status queries.
	MaxAttempts = 4
	// deliveryTimeout keeps a slow merchant endpoint from stalling workers.
	deliveryTimeout = 5 * time.Second
	// baseBackoff doubles per attempt: 5m, 10m, 20m.
	baseBackoff  = 5 * time.Minute
	pollInterval = 30 * time.Second
	pollBatch    = 50
)

type Dispatcher interface {
	// Send queues and asynchronously delivers one event. Returns without
	// creating a record when neither the merchant nor the session carries a
	// callback URL. The caller never blocks on network I/O.
	Send(ctx context.Context, merchantID uint, overrideURL, eventType, resourceType, resourceID string, payload models.JSON) error
	// Deliver performs one synchronous delivery attempt and records the
	// outcome. Used by Send's goroutine and the retry worker.
	Deliver(event *models.WebhookEvent)
	// Start runs the outbox sweeper until ctx is cancelled.
	Start(ctx context.Context)
}

type service struct {
	events    repositories.WebhookEventRepository
	merchants repositories.MerchantRepository
	keys      repositories.APIKeyRepository
	client    *http.Client
}

func NewService(
	events repositories.WebhookEventRepository,
	merchants repositories.MerchantRepository,
	keys repositories.APIKeyRepository,
) Dispatcher {
	return &service{
		events:    events,
		merchants: merchants,
		keys:      keys,
		client:    &http.Client{Timeout: deliveryTimeout},
	}
}

func (s *service) Send(ctx context.Context, merchantID uint, overrideURL, eventType, resourceType, resourceID string, payload models.JSON) error {
	target := overrideURL
	if target == "" {
		merchant, err := s.merchants.GetByID(merchantID)
		if err != nil {
			return fmt.Errorf("resolve merchant %d: %w", merchantID, err)
		}
		target = merchant.CallbackURL
	}
	if target == "" {
		// Nothing to notify; by contract no record is created.
		return nil
	}

	event := &models.WebhookEvent{
		EventID:      uuid.NewString(),
		MerchantID:   merchantID,
		EventType:    eventType,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Payload:      payload,
		TargetURL:    target,
		Status:       models.WebhookStatusPending,
	}
	if err := s.events.Create(event); err != nil {
		return fmt.Errorf("queue webhook event: %w", err)
	}

	go s.Deliver(event)
	return nil
}

// deliveryBody is the JSON envelope POSTed to the merchant.
type deliveryBody struct {
	ID           string      `json:"id"`
	EventType    string      `json:"eventType"`
	ResourceType string      `json:"resourceType"`
	ResourceID   string      `json:"resourceId"`
	Data         models.JSON `json:"data"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func (s *service) Deliver(event *models.WebhookEvent) {
	event.Attempts++

	status, err := s.post(event)
	event.HTTPStatus = status

	if err == nil && status >= 200 && status < 300 {
		event.Status = models.WebhookStatusSent
		event.NextRetryAt = nil
		event.LastError = ""
	} else {
		event.Status = models.WebhookStatusFailed
		if err != nil {
			event.LastError = err.Error()
		} else {
			event.LastError = fmt.Sprintf("endpoint returned %d", status)
		}
		if event.Attempts < MaxAttempts {
			next := time.Now().Add(backoff(event.Attempts))
			event.NextRetryAt = &next
		} else {
			// Exhausted. No further retries; the record stays queryable.
			event.NextRetryAt = nil
			log.Printf("webhook %s permanently failed after %d attempts: %s",
				event.EventID, event.Attempts, event.LastError)
		}
	}

	if err := s.events.Update(event); err != nil {
		log.Printf("failed to record webhook attempt for %s: %v", event.EventID, err)
	}
}

func (s *service) post(event *models.WebhookEvent) (int, error) {
	body, err := json.Marshal(deliveryBody{
		ID:           event.EventID,
		EventType:    event.EventType,
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
		Data:         event.Payload,
		CreatedAt:    event.CreatedAt,
	})
	if err != nil {
		return 0, err
	}

	secret, err := s.signingSecret(event.MerchantID)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, event.TargetURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, HeaderValue(secret, time.Now().Unix(), body))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// signingSecret resolves the per-merchant webhook secret, preferring the
// production key.
func (s *service) signingSecret(merchantID uint) (string, error) {
	for _, keyType := range []string{models.KeyTypeProduction, models.KeyTypeSandbox} {
		key, err := s.keys.GetActiveByMerchant(merchantID, keyType)
		if err == nil && key.WebhookSecret != "" {
			return key.WebhookSecret, nil
		}
		if err != nil && err != repositories.ErrAPIKeyNotFound {
			return "", err
		}
	}
	return "", fmt.Errorf("no active signing key for merchant %d", merchantID)
}

func backoff(attempts int) time.Duration {
	d := baseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
	}
	return d
}

func (s *service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// sweep re-drives every outbox event owed an attempt: due retries and
// pending events stranded by a crash before their first attempt.
func (s *service) sweep() {
	due, err := s.events.ListDue(time.Now(), pollBatch)
	if err != nil {
		log.Printf("webhook outbox sweep failed: %v", err)
		return
	}
	for i := range due {
		s.Deliver(&due[i])
	}
}
