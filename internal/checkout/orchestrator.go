package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/catalog"
	applicationDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/application"
	gatewaytypes "github.com/frahmantamala/rti-filing/internal/core/datamodel/paymentgateway"
	recoveryDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/recovery"
	"github.com/frahmantamala/rti-filing/internal/core/events"
	"github.com/frahmantamala/rti-filing/internal/observability"
	"github.com/frahmantamala/rti-filing/internal/paymentgateway"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

var tracer = otel.Tracer("github.com/frahmantamala/rti-filing/internal/checkout")

type CatalogAPI interface {
	ResolveService(ctx context.Context, slugOrID string) (*catalog.FilingService, error)
	ResolveState(ctx context.Context, slugOrID string) (*catalog.State, error)
}

type GatewayAPI interface {
	CreateOrder(ctx context.Context, req gatewaytypes.OrderRequest) (*gatewaytypes.Order, error)
	VerifySignature(orderID, paymentID, signature string) (bool, error)
	KeyID() string
}

type ApplicationStore interface {
	Create(ctx context.Context, app *applicationDatamodel.Application) error
	FindByPaymentID(ctx context.Context, paymentID string) (*applicationDatamodel.Application, error)
}

type RecoveryStore interface {
	Create(ctx context.Context, rec *recoveryDatamodel.PaymentRecovery) error
	FindByPaymentID(ctx context.Context, paymentID string) (*recoveryDatamodel.PaymentRecovery, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Config struct {
	// PersistTimeout bounds the detached application and recovery writes.
	PersistTimeout time.Duration
	MerchantName   string
}

// Orchestrator runs the pay-then-submit flow for RTI applications. Once a
// payment is verified it either stores the application or, failing that, a
// recovery record carrying the payment ids.
type Orchestrator struct {
	catalog    CatalogAPI
	gateway    GatewayAPI
	apps       ApplicationStore
	recoveries RecoveryStore
	publisher  Publisher
	cfg        Config
	logger     *slog.Logger
}

func NewOrchestrator(
	catalogAPI CatalogAPI,
	gateway GatewayAPI,
	apps ApplicationStore,
	recoveries RecoveryStore,
	publisher Publisher,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 10 * time.Second
	}
	if cfg.MerchantName == "" {
		cfg.MerchantName = "RTI Filing"
	}
	return &Orchestrator{
		catalog:    catalogAPI,
		gateway:    gateway,
		apps:       apps,
		recoveries: recoveries,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// attempt tracks one checkout through its states.
type attempt struct {
	receipt string
	state   State
	span    trace.Span
	logger  *slog.Logger
}

func (o *Orchestrator) newAttempt(ctx context.Context, name, receipt string) (context.Context, *attempt) {
	ctx, span := tracer.Start(ctx, name)
	if receipt != "" {
		span.SetAttributes(attribute.String("checkout.receipt", receipt))
	}
	return ctx, &attempt{
		receipt: receipt,
		state:   StateInit,
		span:    span,
		logger:  logger.FromOr(ctx, o.logger).With("receipt", receipt),
	}
}

func (a *attempt) moveTo(state State) {
	a.logger.Debug("checkout state changed", "from", a.state, "to", state)
	a.span.AddEvent("checkout.state", trace.WithAttributes(attribute.String("state", string(state))))
	a.state = state
}

func (a *attempt) finish(outcome Outcome, err error) {
	observability.CheckoutOutcomes.WithLabelValues(string(outcome)).Inc()
	a.span.SetAttributes(
		attribute.String("checkout.outcome", string(outcome)),
		attribute.String("checkout.state", string(a.state)),
	)
	if err != nil {
		a.span.RecordError(err)
		a.span.SetStatus(codes.Error, string(outcome))
	}
	a.span.End()
}

// end closes the span of an attempt that stopped before a terminal outcome.
func (a *attempt) end(err error) {
	if err != nil {
		a.span.RecordError(err)
		a.span.SetStatus(codes.Error, err.Error())
	}
	a.span.End()
}

func newReceipt() string {
	return "rti_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func (o *Orchestrator) resolve(ctx context.Context, form ApplicationForm) (*catalog.FilingService, *catalog.State, error) {
	service, err := o.catalog.ResolveService(ctx, string(form.Service))
	if err != nil {
		return nil, nil, err
	}
	state, err := o.catalog.ResolveState(ctx, string(form.State))
	if err != nil {
		return nil, nil, err
	}
	return service, state, nil
}

func (o *Orchestrator) prepare(ctx context.Context, form ApplicationForm) (ApplicationForm, *catalog.FilingService, *catalog.State, error) {
	form = form.Normalized()
	if err := form.Validate(); err != nil {
		return form, nil, nil, err
	}
	service, state, err := o.resolve(ctx, form)
	if err != nil {
		return form, nil, nil, err
	}
	return form, service, state, nil
}

// SubmitPaidApplication runs the whole flow in one call: order, client
// payment, verification, then persistence. A cancelled payment is a
// Result with OutcomeCancelled and no error.
func (o *Orchestrator) SubmitPaidApplication(ctx context.Context, form ApplicationForm, serviceSlug string, flow PaymentFlow) (*Result, error) {
	co, free, err := o.Begin(ctx, form, serviceSlug)
	if err != nil {
		return nil, err
	}
	if free != nil {
		return free, nil
	}

	if serviceSlug != "" {
		form.Service = Ref(serviceSlug)
	}

	completion, err := flow.Start(ctx, co.Options)
	if err != nil {
		if errors.Is(err, ErrPaymentCancelled) {
			o.Cancel(ctx, co.Receipt)
			return &Result{Outcome: OutcomeCancelled, OrderID: co.OrderID}, nil
		}
		return nil, err
	}

	return o.complete(ctx, form, co.OrderID, *completion)
}

// Begin validates the form, resolves the catalog entries and creates the
// gateway order. A free service is stored straight away and returned as a
// Result instead of a Checkout.
func (o *Orchestrator) Begin(ctx context.Context, form ApplicationForm, serviceSlug string) (*Checkout, *Result, error) {
	if serviceSlug != "" {
		form.Service = Ref(serviceSlug)
	}

	receipt := newReceipt()
	ctx, at := o.newAttempt(ctx, "checkout.Begin", receipt)

	form, service, state, err := o.prepare(ctx, form)
	if err != nil {
		at.end(err)
		return nil, nil, err
	}
	at.span.SetAttributes(
		attribute.String("checkout.service", service.Slug),
		attribute.String("checkout.state_slug", state.Slug),
	)

	if service.IsFree() {
		res, err := o.persist(ctx, at, form, service, state, nil)
		if err != nil {
			return nil, nil, err
		}
		return nil, res, nil
	}

	amount := service.PriceMinorUnits()
	order, err := o.gateway.CreateOrder(ctx, gatewaytypes.OrderRequest{
		Amount:  amount,
		Receipt: receipt,
		Notes: map[string]string{
			"service": service.Slug,
			"state":   state.Slug,
			"email":   form.Email,
			"mobile":  form.Mobile,
		},
	})
	if err != nil {
		appErr := gatewayError(err)
		at.moveTo(StateFailed)
		at.finish(OutcomeGatewayError, err)
		return nil, nil, appErr
	}
	at.moveTo(StateOrderCreated)

	opts := PaymentOptions{
		KeyID:       o.gateway.KeyID(),
		OrderID:     order.ID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Receipt:     receipt,
		Name:        o.cfg.MerchantName,
		Description: service.Name,
		Prefill: Prefill{
			Name:    form.FullName,
			Email:   form.Email,
			Contact: form.Mobile,
		},
	}
	at.moveTo(StateAwaitingPayment)
	at.span.SetAttributes(attribute.String("checkout.order_id", order.ID))
	at.end(nil)

	at.logger.Info("checkout started",
		"order_id", order.ID,
		"service", service.Slug,
		"amount", order.Amount)

	return &Checkout{
		Receipt:  receipt,
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    opts.KeyID,
		Options:  opts,
	}, nil, nil
}

// Complete verifies a client payment and stores the application. Replaying
// a completion that was already stored returns the stored application.
func (o *Orchestrator) Complete(ctx context.Context, form ApplicationForm, completion PaymentCompletion) (*Result, error) {
	return o.complete(ctx, form, "", completion)
}

// complete checks the completion against expectedOrderID when one is known.
func (o *Orchestrator) complete(ctx context.Context, form ApplicationForm, expectedOrderID string, completion PaymentCompletion) (*Result, error) {
	ctx, at := o.newAttempt(ctx, "checkout.Complete", "")
	at.span.SetAttributes(
		attribute.String("checkout.order_id", completion.OrderID),
		attribute.String("checkout.payment_id", completion.PaymentID),
	)
	at.logger = at.logger.With("order_id", completion.OrderID, "payment_id", completion.PaymentID)

	if err := completion.Validate(); err != nil {
		at.end(err)
		return nil, err
	}

	at.moveTo(StateVerifying)
	if expectedOrderID != "" && completion.OrderID != expectedOrderID {
		at.logger.Warn("payment completion for a different order", "expected_order_id", expectedOrderID)
		at.moveTo(StateFailed)
		at.finish(OutcomeSignatureMismatch, appErrors.ErrSignatureMismatch)
		return nil, appErrors.ErrSignatureMismatch
	}

	ok, err := o.gateway.VerifySignature(completion.OrderID, completion.PaymentID, completion.Signature)
	if err != nil {
		appErr := gatewayError(err)
		at.moveTo(StateFailed)
		at.finish(OutcomeGatewayError, err)
		return nil, appErr
	}
	if !ok {
		at.moveTo(StateFailed)
		at.finish(OutcomeSignatureMismatch, appErrors.ErrSignatureMismatch)
		return nil, appErrors.ErrSignatureMismatch
	}

	form, service, state, err := o.prepare(ctx, form)
	if err != nil {
		// the money is taken: an unusable form or catalog entry still leaves a record
		return o.keepPayment(ctx, at, form, &completion, err)
	}
	return o.persist(ctx, at, form, service, state, &completion)
}

// Cancel records that the payer abandoned the checkout. Nothing is stored.
func (o *Orchestrator) Cancel(ctx context.Context, receipt string) {
	_, at := o.newAttempt(ctx, "checkout.Cancel", receipt)
	at.state = StateAwaitingPayment
	at.moveTo(StateInit)
	at.logger.Info("checkout cancelled by payer")
	at.finish(OutcomeCancelled, nil)
}

// SubmitFree stores an application for a service that costs nothing.
func (o *Orchestrator) SubmitFree(ctx context.Context, form ApplicationForm) (*Result, error) {
	ctx, at := o.newAttempt(ctx, "checkout.SubmitFree", "")

	form, service, state, err := o.prepare(ctx, form)
	if err != nil {
		at.end(err)
		return nil, err
	}
	if !service.IsFree() {
		at.end(appErrors.ErrPaymentRequired)
		return nil, appErrors.ErrPaymentRequired
	}
	return o.persist(ctx, at, form, service, state, nil)
}

// persist writes the application. After a verified payment a failed write
// falls back to a recovery record; only if that also fails does the caller
// see an error.
func (o *Orchestrator) persist(ctx context.Context, at *attempt, form ApplicationForm, service *catalog.FilingService, state *catalog.State, payment *PaymentCompletion) (*Result, error) {
	// the payment has been taken: a client disconnect must not abort the writes
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.PersistTimeout)
	defer cancel()

	app := &applicationDatamodel.Application{
		UserID:    form.UserID,
		ServiceID: service.ID,
		StateID:   state.ID,
		FullName:  form.FullName,
		Mobile:    form.Mobile,
		Email:     form.Email,
		RTIQuery:  form.RTIQuery,
		Address:   form.Address,
		Pincode:   form.Pincode,
		Status:    applicationDatamodel.StatusPending,
	}

	if payment != nil {
		paymentID, orderID := payment.PaymentID, payment.OrderID
		app.PaymentID, app.OrderID = &paymentID, &orderID

		if res := o.recorded(pctx, at, payment); res != nil {
			return res, nil
		}
	}

	appErr := o.apps.Create(pctx, app)
	if appErr == nil {
		at.moveTo(StateApplicationPersisted)
		outcome := OutcomeCreated
		if payment == nil {
			outcome = OutcomeFree
		}
		at.logger.Info("rti application created", "application_id", app.ID, "service", service.Slug, "paid", payment != nil)
		o.publish(ctx, events.NewFormSubmittedEvent(events.FormTypeRTIApplication, app.ID, form.FormFields(service, state)))
		at.finish(outcome, nil)

		res := &Result{Outcome: outcome, ApplicationID: app.ID}
		if payment != nil {
			res.PaymentID, res.OrderID = payment.PaymentID, payment.OrderID
		}
		return res, nil
	}

	if payment == nil {
		at.moveTo(StateFailed)
		at.logger.Error("failed to create rti application", "error", appErr)
		at.finish(OutcomeFailed, appErr)
		return nil, appErrors.NewInternalError("Failed to submit application", appErr)
	}

	return o.recordRecovery(ctx, pctx, at, form, service, state, payment, appErr)
}

// keepPayment stores a verified payment whose submission could not be
// prepared. The catalog entries stay unresolved.
func (o *Orchestrator) keepPayment(ctx context.Context, at *attempt, form ApplicationForm, payment *PaymentCompletion, cause error) (*Result, error) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.PersistTimeout)
	defer cancel()

	if res := o.recorded(pctx, at, payment); res != nil {
		return res, nil
	}
	return o.recordRecovery(ctx, pctx, at, form, nil, nil, payment, cause)
}

// recorded returns the stored result for a payment that already has an
// application, or nil.
func (o *Orchestrator) recorded(pctx context.Context, at *attempt, payment *PaymentCompletion) *Result {
	existing, err := o.apps.FindByPaymentID(pctx, payment.PaymentID)
	if err != nil || existing == nil {
		return nil
	}
	at.logger.Info("payment already recorded", "application_id", existing.ID)
	at.moveTo(StateApplicationPersisted)
	at.finish(OutcomeDuplicate, nil)
	return &Result{Outcome: OutcomeDuplicate, ApplicationID: existing.ID, PaymentID: payment.PaymentID, OrderID: payment.OrderID}
}

// pendingRecovery returns the result for a payment that already has a
// recovery record, or nil.
func (o *Orchestrator) pendingRecovery(pctx context.Context, at *attempt, payment *PaymentCompletion) *Result {
	existing, err := o.recoveries.FindByPaymentID(pctx, payment.PaymentID)
	if err != nil || existing == nil {
		return nil
	}
	at.logger.Info("payment recovery already recorded", "recovery_id", existing.ID, "status", existing.Status)
	at.moveTo(StateRecoveryPersisted)
	at.finish(OutcomeRecoveryPending, nil)
	return &Result{
		Outcome:    OutcomeRecoveryPending,
		RecoveryID: existing.ID,
		PaymentID:  payment.PaymentID,
		OrderID:    payment.OrderID,
	}
}

type recoveryRequestBody struct {
	ApplicationForm
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
}

// recordRecovery keeps a verified payment that has no application. Either
// catalog entry may be nil; the raw references then survive in the body and
// the ids fall back to the numeric reference, or 0.
func (o *Orchestrator) recordRecovery(ctx, pctx context.Context, at *attempt, form ApplicationForm, service *catalog.FilingService, state *catalog.State, payment *PaymentCompletion, appErr error) (*Result, error) {
	if res := o.pendingRecovery(pctx, at, payment); res != nil {
		return res, nil
	}

	at.logger.Warn("verified payment has no application, recording recovery", "error", appErr)

	body, _ := json.Marshal(recoveryRequestBody{ApplicationForm: form, PaymentID: payment.PaymentID, OrderID: payment.OrderID})

	serviceID, stateID := form.Service.ID(), form.State.ID()
	if service != nil {
		serviceID = service.ID
	}
	if state != nil {
		stateID = state.ID
	}

	rec := &recoveryDatamodel.PaymentRecovery{
		PaymentID:    payment.PaymentID,
		OrderID:      payment.OrderID,
		ServiceID:    serviceID,
		StateID:      stateID,
		UserID:       form.UserID,
		FullName:     form.FullName,
		Mobile:       form.Mobile,
		Email:        form.Email,
		RTIQuery:     form.RTIQuery,
		Address:      form.Address,
		Pincode:      form.Pincode,
		ErrorMessage: appErr.Error(),
		RequestBody:  datatypes.JSON(body),
		Status:       recoveryDatamodel.StatusPending,
	}

	if recErr := o.recoveries.Create(pctx, rec); recErr != nil {
		// a concurrent replay of the same payment may have won the unique index
		if res := o.pendingRecovery(pctx, at, payment); res != nil {
			return res, nil
		}
		at.moveTo(StateFailed)
		at.logger.Error("payment received but neither application nor recovery could be stored",
			"payment_id", payment.PaymentID,
			"order_id", payment.OrderID,
			"application_error", appErr.Error(),
			"recovery_error", recErr.Error())
		at.finish(OutcomeDoubleFailure, recErr)

		e := appErrors.NewInternalError(
			fmt.Sprintf("Payment %s for order %s was received but could not be recorded", payment.PaymentID, payment.OrderID),
			appErr,
		)
		e.Code = appErrors.ErrCodePaymentNotRecorded
		return nil, e.WithDetails(map[string]string{
			"payment_id":     payment.PaymentID,
			"order_id":       payment.OrderID,
			"recovery_error": recErr.Error(),
		})
	}

	at.moveTo(StateRecoveryPersisted)
	at.logger.Warn("payment recovery recorded", "recovery_id", rec.ID)
	o.publish(ctx, events.NewRecoveryRecordedEvent(rec.ID, payment.PaymentID, payment.OrderID, appErr.Error()))

	fields := append(form.FormFields(service, state),
		events.FormField{Label: "Payment ID", Value: payment.PaymentID},
		events.FormField{Label: "Status", Value: fmt.Sprintf("Payment received, pending manual recovery #%d", rec.ID)},
	)
	o.publish(ctx, events.NewFormSubmittedEvent(events.FormTypeRTIApplication, 0, fields))
	at.finish(OutcomeRecoveryPending, nil)

	return &Result{
		Outcome:    OutcomeRecoveryPending,
		RecoveryID: rec.ID,
		PaymentID:  payment.PaymentID,
		OrderID:    payment.OrderID,
	}, nil
}

func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

// gatewayError maps provider failures onto API errors.
func gatewayError(err error) error {
	if errors.Is(err, paymentgateway.ErrConfiguration) {
		return appErrors.NewServiceUnavailableError("Online payments are not available right now", appErrors.ErrCodeGatewayNotConfigured)
	}
	var gwErr *paymentgateway.GatewayError
	if errors.As(err, &gwErr) {
		return appErrors.NewExternalError("Payment gateway request failed", appErrors.ErrCodeGatewayError, err)
	}
	if _, ok := appErrors.IsAppError(err); ok {
		return err
	}
	return appErrors.NewExternalError("Payment gateway request failed", appErrors.ErrCodeGatewayError, err)
}
