package checkout

import (
	"context"
	"net/http"
	"strings"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	gatewaytypes "github.com/frahmantamala/rti-filing/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/rti-filing/internal/transport"
)

type OrchestratorAPI interface {
	Begin(ctx context.Context, form ApplicationForm, serviceSlug string) (*Checkout, *Result, error)
	Complete(ctx context.Context, form ApplicationForm, completion PaymentCompletion) (*Result, error)
	Cancel(ctx context.Context, receipt string)
	SubmitFree(ctx context.Context, form ApplicationForm) (*Result, error)
}

type Handler struct {
	*transport.BaseHandler
	Orchestrator OrchestratorAPI
	Gateway      GatewayAPI
}

func NewHandler(baseHandler *transport.BaseHandler, orchestrator OrchestratorAPI, gateway GatewayAPI) *Handler {
	return &Handler{
		BaseHandler:  baseHandler,
		Orchestrator: orchestrator,
		Gateway:      gateway,
	}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	if appErr := req.Validate(); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	receipt := req.Receipt
	if receipt == "" {
		receipt = newReceipt()
	}

	order, err := h.Gateway.CreateOrder(r.Context(), gatewaytypes.OrderRequest{
		Amount:   req.MinorUnits(),
		Currency: strings.ToUpper(req.Currency),
		Receipt:  receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		h.HandleError(w, r, gatewayError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, CreateOrderResponse{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		KeyID:    h.Gateway.KeyID(),
	})
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	if appErr := req.PaymentCompletion.Validate(); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if req.OrderID != "" && req.OrderID != req.PaymentCompletion.OrderID {
		h.WriteAppError(w, appErrors.ErrSignatureMismatch)
		return
	}

	ok, err := h.Gateway.VerifySignature(req.PaymentCompletion.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		h.HandleError(w, r, gatewayError(err))
		return
	}
	if !ok {
		h.WriteAppError(w, appErrors.ErrSignatureMismatch)
		return
	}
	h.WriteJSON(w, http.StatusOK, VerifyPaymentResponse{Success: true})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	form := withCaller(r, req.ApplicationForm)

	co, res, err := h.Orchestrator.Begin(r.Context(), form, req.ServiceSlug)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	if res != nil {
		h.WriteJSON(w, http.StatusCreated, CheckoutResponse{Status: "submitted", Result: res})
		return
	}
	h.WriteJSON(w, http.StatusOK, CheckoutResponse{Status: "awaiting_payment", Checkout: co})
}

func (h *Handler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	if appErr := req.Validate(); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	h.Orchestrator.Cancel(r.Context(), req.Receipt)
	w.WriteHeader(http.StatusNoContent)
}

// SubmitPublic stores a public application. With payment fields it verifies
// the payment first; without them the service must be free.
func (h *Handler) SubmitPublic(w http.ResponseWriter, r *http.Request) {
	var req PublicApplicationRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	form := withCaller(r, req.ApplicationForm)

	var (
		res *Result
		err error
	)
	if req.HasPayment() {
		res, err = h.Orchestrator.Complete(r.Context(), form, req.Completion())
	} else {
		res, err = h.Orchestrator.SubmitFree(r.Context(), form)
	}
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	if res.Outcome == OutcomeRecoveryPending {
		h.WriteJSON(w, http.StatusAccepted, RecoveryPendingResponse{
			Code:       appErrors.ErrCodePaymentRecoveryPending,
			Message:    "payment succeeded, application pending manual recovery",
			RecoveryID: res.RecoveryID,
			PaymentID:  res.PaymentID,
			OrderID:    res.OrderID,
		})
		return
	}

	status := http.StatusCreated
	if res.Outcome == OutcomeDuplicate {
		status = http.StatusOK
	}
	h.WriteJSON(w, status, SubmissionResponse{
		ID:      res.ApplicationID,
		Message: "RTI application submitted successfully",
	})
}

// withCaller links the submission to the signed-in user, if any.
func withCaller(r *http.Request, form ApplicationForm) ApplicationForm {
	if user, ok := appErrors.UserFromContext(r.Context()); ok {
		id := user.ID
		form.UserID = &id
	}
	return form
}
