// Package validation holds business-rule checks that go beyond struct tags.
package validation

import (
	"fmt"
	"math"

	"fuelpass/internal/models"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Validator struct {
	Errors []ValidationError
}

func New() *Validator {
	return &Validator{
		Errors: make([]ValidationError, 0),
	}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Err returns the first recorded error, or nil.
func (v *Validator) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}

// CheckSessionAmounts validates the monetary breakdown of a checkout session
// at creation: all fields non-negative, and the total consistent with the
// line items plus tax and shipping minus discount, to the cent.
func CheckSessionAmounts(v *Validator, total, tax, shipping, discount float64, items []models.SessionItem) {
	v.Check(total >= 0, "total_amount", "must be non-negative")
	v.Check(tax >= 0, "tax_amount", "must be non-negative")
	v.Check(shipping >= 0, "shipping_amount", "must be non-negative")
	v.Check(discount >= 0, "discount_amount", "must be non-negative")

	var itemsTotal float64
	for i, item := range items {
		v.Check(item.Quantity > 0, fmt.Sprintf("items[%d].quantity", i), "must be positive")
		v.Check(item.UnitPrice >= 0, fmt.Sprintf("items[%d].unit_price", i), "must be non-negative")
		itemsTotal += float64(item.Quantity) * item.UnitPrice
	}

	if len(items) > 0 {
		expected := itemsTotal + tax + shipping - discount
		v.Check(centsEqual(total, expected), "total_amount",
			fmt.Sprintf("does not match items + tax + shipping - discount (%.2f)", expected))
	}
}

func centsEqual(a, b float64) bool {
	return math.Round(a*100) == math.Round(b*100)
}
