package checkout

import "fuelpass/internal/models"

// CreateSessionInput is the merchant-supplied body for opening a session.
type CreateSessionInput struct {
	MerchantReference  string               `json:"merchant_reference" validate:"required,max=128"`
	ConsumerPhone      string               `json:"consumer_phone" validate:"required,min=7,max=20"`
	ConsumerEmail      string               `json:"consumer_email" validate:"omitempty,email"`
	ConsumerName       string               `json:"consumer_name" validate:"omitempty,max=128"`
	ConsumerNationalID string               `json:"consumer_national_id" validate:"omitempty,len=14,numeric"`
	TotalAmount        float64              `json:"total_amount" validate:"gte=0"`
	TaxAmount          float64              `json:"tax_amount" validate:"gte=0"`
	ShippingAmount     float64              `json:"shipping_amount" validate:"gte=0"`
	DiscountAmount     float64              `json:"discount_amount" validate:"gte=0"`
	Currency           string               `json:"currency" validate:"omitempty,len=3"`
	Items              []models.SessionItem `json:"items" validate:"omitempty,dive"`
	InstallmentCount   int                  `json:"installment_count" validate:"gte=1,lte=36"`
	ProductType        string               `json:"product_type" validate:"omitempty,max=32"`
	SuccessURL         string               `json:"success_url" validate:"required,url"`
	FailureURL         string               `json:"failure_url" validate:"required,url"`
	CancelURL          string               `json:"cancel_url" validate:"required,url"`
	WebhookURL         string               `json:"webhook_url" validate:"omitempty,url"`
}

// CaptureResult bundles everything produced by a successful capture.
type CaptureResult struct {
	Session     *models.CheckoutSession
	Transaction *models.MerchantTransaction
	Invoice     *models.Invoice
}

// Decline reasons recorded on sessions. The merchant webhook carries these;
// the consumer-facing flow sees only a generic message.
const (
	DeclineReasonRiskBlocked       = "consumer did not meet risk requirements"
	DeclineReasonInsufficientLimit = "approved credit limit is below the session total"
)
