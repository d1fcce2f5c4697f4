package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/catalog"
	"github.com/frahmantamala/rti-filing/internal/core/common/validation"
	"github.com/frahmantamala/rti-filing/internal/core/events"
)

// State is the position of one checkout attempt in the payment flow.
type State string

const (
	StateInit                 State = "INIT"
	StateOrderCreated         State = "ORDER_CREATED"
	StateAwaitingPayment      State = "AWAITING_CLIENT_PAYMENT"
	StateVerifying            State = "VERIFYING"
	StateApplicationPersisted State = "APPLICATION_PERSISTED"
	StateRecoveryPersisted    State = "RECOVERY_PERSISTED"
	StateFailed               State = "FAILED"
)

// Outcome is how a checkout attempt ended. It doubles as the metrics label.
type Outcome string

const (
	OutcomeCreated           Outcome = "created"
	OutcomeFree              Outcome = "free"
	OutcomeDuplicate         Outcome = "duplicate"
	OutcomeRecoveryPending   Outcome = "recovery_pending"
	OutcomeCancelled         Outcome = "cancelled"
	OutcomeSignatureMismatch Outcome = "signature_mismatch"
	OutcomeGatewayError      Outcome = "gateway_error"
	OutcomeDoubleFailure     Outcome = "double_failure"
	OutcomeFailed            Outcome = "failed"
)

// ErrPaymentCancelled is returned by a PaymentFlow when the payer closes the checkout.
var ErrPaymentCancelled = errors.New("payment cancelled by user")

// Ref identifies a catalog entry by slug or numeric id. It accepts both JSON
// strings and numbers.
type Ref string

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Ref(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = Ref(n.String())
	return nil
}

// ID returns the numeric id the reference carries, or 0 for a slug.
func (r Ref) ID() int64 {
	id, err := strconv.ParseInt(string(r), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// ApplicationForm is the applicant's RTI submission.
type ApplicationForm struct {
	Service  Ref     `json:"service_id"`
	State    Ref     `json:"state_id"`
	FullName string  `json:"full_name"`
	Mobile   string  `json:"mobile"`
	Email    string  `json:"email"`
	RTIQuery *string `json:"rti_query,omitempty"`
	Address  string  `json:"address"`
	Pincode  string  `json:"pincode"`
	UserID   *int64  `json:"-"`
}

func (f ApplicationForm) Normalized() ApplicationForm {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Mobile = strings.TrimSpace(f.Mobile)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Address = strings.TrimSpace(f.Address)
	f.Pincode = strings.TrimSpace(f.Pincode)
	if f.RTIQuery != nil {
		q := strings.TrimSpace(*f.RTIQuery)
		if q == "" {
			f.RTIQuery = nil
		} else {
			f.RTIQuery = &q
		}
	}
	return f
}

func (f ApplicationForm) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("service_id", string(f.Service)).Required()
	v.Field("state_id", string(f.State)).Required()
	v.Field("full_name", f.FullName).Required().MinLength(2).MaxLength(100)
	v.Field("mobile", f.Mobile).Required().Mobile()
	v.Field("email", f.Email).Required().Email().MaxLength(255)
	v.Field("rti_query", f.RTIQuery).MaxLength(5000)
	v.Field("address", f.Address).Required().MaxLength(500)
	v.Field("pincode", f.Pincode).Required().Pincode()
	return v.Validate()
}

// FormFields lists the submission for notifications, in display order. A
// catalog entry that could not be resolved is shown by its reference.
func (f ApplicationForm) FormFields(service *catalog.FilingService, state *catalog.State) []events.FormField {
	serviceName, stateName := string(f.Service), string(f.State)
	if service != nil {
		serviceName = service.Name
	}
	if state != nil {
		stateName = state.Name
	}
	fields := []events.FormField{
		{Label: "Service", Value: serviceName},
		{Label: "State", Value: stateName},
		{Label: "Full Name", Value: f.FullName},
		{Label: "Mobile", Value: f.Mobile},
		{Label: "Email", Value: f.Email},
		{Label: "Address", Value: f.Address},
		{Label: "Pincode", Value: f.Pincode},
	}
	if f.RTIQuery != nil {
		fields = append(fields, events.FormField{Label: "RTI Query", Value: *f.RTIQuery})
	}
	return fields
}

// PaymentOptions is what the client-side checkout needs to collect a payment.
type PaymentOptions struct {
	KeyID       string  `json:"key"`
	OrderID     string  `json:"order_id"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Receipt     string  `json:"receipt"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Prefill     Prefill `json:"prefill"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// PaymentCompletion is the gateway's success callback payload.
type PaymentCompletion struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

func (c PaymentCompletion) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("razorpay_payment_id", c.PaymentID).Required().MaxLength(100)
	v.Field("razorpay_order_id", c.OrderID).Required().MaxLength(100)
	v.Field("razorpay_signature", c.Signature).Required().MaxLength(256)
	return v.Validate()
}

// PaymentFlow collects a payment for an order. It returns ErrPaymentCancelled
// when the payer backs out.
type PaymentFlow interface {
	Start(ctx context.Context, opts PaymentOptions) (*PaymentCompletion, error)
}

// Checkout is the handle for an order awaiting client payment.
type Checkout struct {
	Receipt  string         `json:"receipt"`
	OrderID  string         `json:"order_id"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	KeyID    string         `json:"key_id"`
	Options  PaymentOptions `json:"options"`
}

// Result is the terminal state of a checkout that did not fail.
type Result struct {
	Outcome       Outcome `json:"outcome"`
	ApplicationID int64   `json:"application_id,omitempty"`
	RecoveryID    int64   `json:"recovery_id,omitempty"`
	PaymentID     string  `json:"payment_id,omitempty"`
	OrderID       string  `json:"order_id,omitempty"`
}
