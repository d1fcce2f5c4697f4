package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/common/validation"
)

// CreateOrderRequest asks for a bare gateway order. Amount is in rupees.
type CreateOrderRequest struct {
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

func (r CreateOrderRequest) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("amount", r.Amount).Custom(func(interface{}) *appErrors.AppError {
		if !r.Amount.IsPositive() {
			return appErrors.NewValidationFieldError("amount", "amount must be greater than zero", appErrors.ErrCodeInvalidAmount)
		}
		if !r.Amount.Equal(r.Amount.Round(2)) {
			return appErrors.NewValidationFieldError("amount", "amount must have at most 2 decimal places", appErrors.ErrCodeInvalidAmount)
		}
		return nil
	})
	v.Field("currency", strings.ToUpper(r.Currency)).OneOf("INR")
	v.Field("receipt", r.Receipt).MaxLength(40)
	return v.Validate()
}

// MinorUnits converts the rupee amount to paise.
func (r CreateOrderRequest) MinorUnits() int64 {
	return r.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type CreateOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"key_id"`
}

type VerifyPaymentRequest struct {
	PaymentCompletion
	// OrderID is the order the client believes it paid for.
	OrderID string `json:"order_id"`
}

type VerifyPaymentResponse struct {
	Success bool `json:"success"`
}

type CheckoutRequest struct {
	ApplicationForm
	ServiceSlug string `json:"service_slug"`
}

type CheckoutResponse struct {
	Status   string    `json:"status"`
	Checkout *Checkout `json:"checkout,omitempty"`
	Result   *Result   `json:"result,omitempty"`
}

type CancelRequest struct {
	Receipt string `json:"receipt"`
}

func (r CancelRequest) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("receipt", r.Receipt).Required().MaxLength(40)
	return v.Validate()
}

// PublicApplicationRequest is the public submission: a form plus, for paid
// services, the gateway's completion fields.
type PublicApplicationRequest struct {
	ApplicationForm
	PaymentID string `json:"payment_id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Signature string `json:"razorpay_signature,omitempty"`
}

func (r PublicApplicationRequest) HasPayment() bool {
	return strings.TrimSpace(r.PaymentID) != ""
}

func (r PublicApplicationRequest) Completion() PaymentCompletion {
	return PaymentCompletion{
		PaymentID: strings.TrimSpace(r.PaymentID),
		OrderID:   strings.TrimSpace(r.OrderID),
		Signature: strings.TrimSpace(r.Signature),
	}
}

type SubmissionResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type RecoveryPendingResponse struct {
	Code       appErrors.ErrorCode `json:"code"`
	Message    string              `json:"message"`
	RecoveryID int64               `json:"recovery_id"`
	PaymentID  string              `json:"payment_id"`
	OrderID    string              `json:"order_id"`
}
