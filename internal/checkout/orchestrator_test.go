package checkout_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	applicationPostgres "github.com/frahmantamala/rti-filing/internal/application/postgres"
	"github.com/frahmantamala/rti-filing/internal/catalog"
	catalogPostgres "github.com/frahmantamala/rti-filing/internal/catalog/postgres"
	"github.com/frahmantamala/rti-filing/internal/checkout"
	applicationDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/application"
	catalogDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/catalog"
	recoveryDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/recovery"
	"github.com/frahmantamala/rti-filing/internal/core/events"
	"github.com/frahmantamala/rti-filing/internal/paymentgateway"
	recoveryPostgres "github.com/frahmantamala/rti-filing/internal/recovery/postgres"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

func TestCheckout(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Checkout Suite")
}

const (
	testKeyID     = "rzp_test_key"
	testKeySecret = "rzp_test_secret"
)

// fakeRazorpay serves POST /v1/orders and counts the calls.
type fakeRazorpay struct {
	server *httptest.Server
	calls  atomic.Int32
	fail   atomic.Bool
	mu     sync.Mutex
	last   map[string]interface{}
}

func newFakeRazorpay() *fakeRazorpay {
	f := &fakeRazorpay{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := f.calls.Add(1)
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.last = body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if f.fail.Load() {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       fmt.Sprintf("order_test_%d", n),
			"entity":   "order",
			"amount":   body["amount"],
			"currency": body["currency"],
			"receipt":  body["receipt"],
			"status":   "created",
		})
	}))
	return f
}

func (f *fakeRazorpay) Last() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// payingFlow completes the payment and signs it with signingKey.
type payingFlow struct {
	signingKey string
	paymentID  string
	seen       *checkout.PaymentOptions
}

func (p *payingFlow) Start(_ context.Context, opts checkout.PaymentOptions) (*checkout.PaymentCompletion, error) {
	p.seen = &opts
	return &checkout.PaymentCompletion{
		PaymentID: p.paymentID,
		OrderID:   opts.OrderID,
		Signature: paymentgateway.Sign(p.signingKey, opts.OrderID, p.paymentID),
	}, nil
}

type cancellingFlow struct{}

func (cancellingFlow) Start(context.Context, checkout.PaymentOptions) (*checkout.PaymentCompletion, error) {
	return nil, checkout.ErrPaymentCancelled
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) OfType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	db           *gorm.DB
	razorpay     *fakeRazorpay
	publisher    *recordingPublisher
	orchestrator *checkout.Orchestrator
	gateway      *paymentgateway.Client
}

func newFixture() *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)
	Expect(db.AutoMigrate(
		&catalogDatamodel.Service{},
		&catalogDatamodel.State{},
		&applicationDatamodel.Application{},
		&recoveryDatamodel.PaymentRecovery{},
	)).To(Succeed())

	ctx := context.Background()
	catalogService := catalog.NewService(catalogPostgres.NewCatalogRepository(db), logger.Discard())
	_, err = catalogService.CreateService(ctx, catalog.ServiceDTO{
		Name: "Seamless Online Filing", Slug: "seamless-online-filing", Price: decimal.RequireFromString("699.00"),
	})
	Expect(err).NotTo(HaveOccurred())
	_, err = catalogService.CreateService(ctx, catalog.ServiceDTO{
		Name: "Bulk Filing", Slug: "bulk", Price: decimal.Zero,
	})
	Expect(err).NotTo(HaveOccurred())
	_, err = catalogService.CreateState(ctx, catalog.StateDTO{Name: "Maharashtra", Slug: "maharashtra"})
	Expect(err).NotTo(HaveOccurred())

	f := &fixture{db: db, razorpay: newFakeRazorpay(), publisher: &recordingPublisher{}}
	f.gateway = paymentgateway.NewClient(paymentgateway.Config{
		KeyID:     testKeyID,
		KeySecret: testKeySecret,
		BaseURL:   f.razorpay.server.URL,
	}, logger.Discard())
	f.orchestrator = checkout.NewOrchestrator(
		catalogService,
		f.gateway,
		applicationPostgres.NewApplicationRepository(db),
		recoveryPostgres.NewRecoveryRepository(db),
		f.publisher,
		checkout.Config{},
		logger.Discard(),
	)
	return f
}

func (f *fixture) close() {
	f.razorpay.server.Close()
}

func (f *fixture) count(model interface{}) int64 {
	var n int64
	Expect(f.db.Model(model).Count(&n).Error).To(Succeed())
	return n
}

func (f *fixture) failApplicationInserts() {
	Expect(f.db.Exec(`CREATE TRIGGER reject_applications BEFORE INSERT ON rti_applications
		BEGIN SELECT RAISE(ABORT, 'constraint failed'); END;`).Error).To(Succeed())
}

func (f *fixture) failRecoveryInserts() {
	Expect(f.db.Exec(`CREATE TRIGGER reject_recoveries BEFORE INSERT ON payment_recoveries
		BEGIN SELECT RAISE(ABORT, 'disk full'); END;`).Error).To(Succeed())
}

// begin starts a checkout for the paid service and returns a completion
// signed for paymentID.
func (f *fixture) begin(ctx context.Context, paymentID string) checkout.PaymentCompletion {
	co, free, err := f.orchestrator.Begin(ctx, validForm(), "seamless-online-filing")
	Expect(err).NotTo(HaveOccurred())
	Expect(free).To(BeNil())
	return checkout.PaymentCompletion{
		PaymentID: paymentID,
		OrderID:   co.OrderID,
		Signature: paymentgateway.Sign(testKeySecret, co.OrderID, paymentID),
	}
}

func (f *fixture) recoveries() []recoveryDatamodel.PaymentRecovery {
	var recs []recoveryDatamodel.PaymentRecovery
	Expect(f.db.Order("id").Find(&recs).Error).To(Succeed())
	return recs
}

func paidForm() checkout.ApplicationForm {
	form := validForm()
	form.Service = "seamless-online-filing"
	return form
}

func validForm() checkout.ApplicationForm {
	query := "Copies of the land survey records for ward 12"
	return checkout.ApplicationForm{
		State:    "maharashtra",
		FullName: "Asha Verma",
		Mobile:   "9876543210",
		Email:    "asha@example.com",
		RTIQuery: &query,
		Address:  "12 MG Road, Pune",
		Pincode:  "411001",
	}
}

var _ = Describe("Orchestrator", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
	})

	AfterEach(func() {
		f.close()
	})

	Describe("a paid submission", func() {
		It("creates the order in paise and stores a pending application", func() {
			flow := &payingFlow{signingKey: testKeySecret, paymentID: "pay_A1"}
			res, err := f.orchestrator.SubmitPaidApplication(ctx, validForm(), "seamless-online-filing", flow)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(checkout.OutcomeCreated))

			Expect(f.razorpay.calls.Load()).To(Equal(int32(1)))
			Expect(f.razorpay.Last()["amount"]).To(BeNumerically("==", 69900))
			Expect(flow.seen.KeyID).To(Equal(testKeyID))
			Expect(flow.seen.Prefill.Contact).To(Equal("9876543210"))

			var app applicationDatamodel.Application
			Expect(f.db.First(&app, res.ApplicationID).Error).To(Succeed())
			Expect(app.Status).To(Equal(applicationDatamodel.StatusPending))
			Expect(*app.PaymentID).To(Equal("pay_A1"))
			Expect(*app.OrderID).To(Equal(flow.seen.OrderID))

			submitted := f.publisher.OfType(events.EventTypeFormSubmitted)
			Expect(submitted).To(HaveLen(1))
			Expect(submitted[0].(*events.FormSubmittedEvent).ReferenceID).To(Equal(app.ID))
		})

		It("writes nothing when the signature is wrong", func() {
			flow := &payingFlow{signingKey: "someone-else", paymentID: "pay_B1"}
			_, err := f.orchestrator.SubmitPaidApplication(ctx, validForm(), "seamless-online-filing", flow)
			Expect(err).To(Equal(appErrors.ErrSignatureMismatch))

			Expect(f.count(&applicationDatamodel.Application{})).To(BeZero())
			Expect(f.count(&recoveryDatamodel.PaymentRecovery{})).To(BeZero())
			Expect(f.publisher.OfType(events.EventTypeFormSubmitted)).To(BeEmpty())
		})

		It("records a recovery when the application insert fails", func() {
			f.failApplicationInserts()
			flow := &payingFlow{signingKey: testKeySecret, paymentID: "pay_C1"}

			res, err := f.orchestrator.SubmitPaidApplication(ctx, validForm(), "seamless-online-filing", flow)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(checkout.OutcomeRecoveryPending))
			Expect(res.RecoveryID).To(BeNumerically(">", 0))

			var recs []recoveryDatamodel.PaymentRecovery
			Expect(f.db.Find(&recs).Error).To(Succeed())
			Expect(recs).To(HaveLen(1))
			rec := recs[0]
			Expect(rec.Status).To(Equal(recoveryDatamodel.StatusPending))
			Expect(rec.PaymentID).To(Equal("pay_C1"))
			Expect(rec.OrderID).To(Equal(flow.seen.OrderID))
			Expect(rec.ErrorMessage).To(ContainSubstring("constraint failed"))

			var body map[string]interface{}
			Expect(json.Unmarshal(rec.RequestBody, &body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("full_name", "Asha Verma"))
			Expect(body).To(HaveKeyWithValue("service_id", "seamless-online-filing"))
			Expect(body).To(HaveKeyWithValue("payment_id", "pay_C1"))
			Expect(body).To(HaveKeyWithValue("order_id", flow.seen.OrderID))

			Expect(f.publisher.OfType(events.EventTypeRecoveryRecorded)).To(HaveLen(1))
		})

		It("fails loudly when the recovery insert fails too", func() {
			f.failApplicationInserts()
			f.failRecoveryInserts()
			flow := &payingFlow{signingKey: testKeySecret, paymentID: "pay_C2"}

			_, err := f.orchestrator.SubmitPaidApplication(ctx, validForm(), "seamless-online-filing", flow)
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(appErr.Code).To(Equal(appErrors.ErrCodePaymentNotRecorded))
			Expect(appErr.Message).To(ContainSubstring("pay_C2"))
			Expect(appErr.Details).To(HaveKeyWithValue("payment_id", "pay_C2"))
			Expect(errors.Unwrap(appErr)).To(MatchError(ContainSubstring("constraint failed")))
		})

		It("returns cancelled without writing when the payer backs out", func() {
			res, err := f.orchestrator.SubmitPaidApplication(ctx, validForm(), "seamless-online-filing", cancellingFlow{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(checkout.OutcomeCancelled))
			Expect(f.count(&applicationDatamodel.Application{})).To(BeZero())
			Expect(f.count(&recoveryDatamodel.PaymentRecovery{})).To(BeZero())
		})

		It("propagates provider rejections as gateway errors", func() {
			f.razorpay.fail.Store(true)
			_, err := f.orchestrator.SubmitPaidApplication(ctx, validForm(), "seamless-online-filing", &payingFlow{signingKey: testKeySecret, paymentID: "pay_X"})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(appErrors.ErrCodeGatewayError))
			Expect(appErr.StatusCode).To(Equal(http.StatusBadGateway))

			var gwErr *paymentgateway.GatewayError
			Expect(errors.As(err, &gwErr)).To(BeTrue())
			Expect(gwErr.Code).To(Equal("BAD_REQUEST_ERROR"))
		})
	})

	Describe("resolution", func() {
		It("creates no order for an unknown service", func() {
			_, err := f.orchestrator.SubmitPaidApplication(ctx, validForm(), "no-such-service", cancellingFlow{})
			Expect(err).To(Equal(appErrors.ErrServiceNotFound))
			Expect(f.razorpay.calls.Load()).To(BeZero())
		})

		It("creates no order for an unknown state", func() {
			form := validForm()
			form.State = "atlantis"
			_, err := f.orchestrator.SubmitPaidApplication(ctx, form, "seamless-online-filing", cancellingFlow{})
			Expect(err).To(Equal(appErrors.ErrStateNotFound))
			Expect(f.razorpay.calls.Load()).To(BeZero())
		})

		It("validates the form before any external call", func() {
			form := validForm()
			form.Pincode = "12"
			_, _, err := f.orchestrator.Begin(ctx, form, "seamless-online-filing")
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(appErrors.ErrCodeValidationFailed))
			Expect(f.razorpay.calls.Load()).To(BeZero())
		})
	})

	Describe("a free service", func() {
		It("stores the application with no payment ids and no gateway calls", func() {
			res, err := f.orchestrator.SubmitPaidApplication(ctx, validForm(), "bulk", cancellingFlow{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(checkout.OutcomeFree))
			Expect(f.razorpay.calls.Load()).To(BeZero())

			var app applicationDatamodel.Application
			Expect(f.db.First(&app, res.ApplicationID).Error).To(Succeed())
			Expect(app.PaymentID).To(BeNil())
			Expect(app.OrderID).To(BeNil())
		})

		It("allows SubmitFree only for free services", func() {
			form := validForm()
			form.Service = "bulk"
			res, err := f.orchestrator.SubmitFree(ctx, form)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ApplicationID).To(BeNumerically(">", 0))

			form.Service = "seamless-online-filing"
			_, err = f.orchestrator.SubmitFree(ctx, form)
			Expect(err).To(Equal(appErrors.ErrPaymentRequired))
		})
	})

	Describe("split steps", func() {
		It("completes a checkout begun earlier and is idempotent on replay", func() {
			form := validForm()
			co, free, err := f.orchestrator.Begin(ctx, form, "seamless-online-filing")
			Expect(err).NotTo(HaveOccurred())
			Expect(free).To(BeNil())
			Expect(co.Amount).To(Equal(int64(69900)))
			Expect(co.KeyID).To(Equal(testKeyID))

			form.Service = "seamless-online-filing"
			completion := checkout.PaymentCompletion{
				PaymentID: "pay_S1",
				OrderID:   co.OrderID,
				Signature: paymentgateway.Sign(testKeySecret, co.OrderID, "pay_S1"),
			}
			first, err := f.orchestrator.Complete(ctx, form, completion)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Outcome).To(Equal(checkout.OutcomeCreated))

			second, err := f.orchestrator.Complete(ctx, form, completion)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Outcome).To(Equal(checkout.OutcomeDuplicate))
			Expect(second.ApplicationID).To(Equal(first.ApplicationID))
			Expect(f.count(&applicationDatamodel.Application{})).To(Equal(int64(1)))
		})

		It("rejects a completion without payment fields", func() {
			form := validForm()
			form.Service = "seamless-online-filing"
			_, err := f.orchestrator.Complete(ctx, form, checkout.PaymentCompletion{PaymentID: "pay_1"})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(appErrors.ErrCodeValidationFailed))
		})

		It("answers a replayed completion with the recovery it already recorded", func() {
			f.failApplicationInserts()
			completion := f.begin(ctx, "pay_P3")

			first, err := f.orchestrator.Complete(ctx, paidForm(), completion)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Outcome).To(Equal(checkout.OutcomeRecoveryPending))

			second, err := f.orchestrator.Complete(ctx, paidForm(), completion)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Outcome).To(Equal(checkout.OutcomeRecoveryPending))
			Expect(second.RecoveryID).To(Equal(first.RecoveryID))
			Expect(second.PaymentID).To(Equal("pay_P3"))

			Expect(f.recoveries()).To(HaveLen(1))
			Expect(f.publisher.OfType(events.EventTypeRecoveryRecorded)).To(HaveLen(1))
		})

		It("logs through the injected logger", func() {
			var buf bytes.Buffer
			f.orchestrator = checkout.NewOrchestrator(
				catalog.NewService(catalogPostgres.NewCatalogRepository(f.db), logger.Discard()),
				f.gateway,
				applicationPostgres.NewApplicationRepository(f.db),
				recoveryPostgres.NewRecoveryRepository(f.db),
				nil,
				checkout.Config{},
				slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
			)

			completion := f.begin(ctx, "pay_L1")
			Expect(buf.String()).To(ContainSubstring("checkout started"))
			Expect(buf.String()).To(ContainSubstring("order_id=" + completion.OrderID))
		})

		It("reports an unconfigured gateway as unavailable", func() {
			unconfigured := checkout.NewOrchestrator(
				catalog.NewService(catalogPostgres.NewCatalogRepository(f.db), logger.Discard()),
				paymentgateway.NewClient(paymentgateway.Config{}, logger.Discard()),
				applicationPostgres.NewApplicationRepository(f.db),
				recoveryPostgres.NewRecoveryRepository(f.db),
				nil,
				checkout.Config{},
				logger.Discard(),
			)
			_, _, err := unconfigured.Begin(ctx, validForm(), "seamless-online-filing")
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusServiceUnavailable))
			Expect(appErr.Code).To(Equal(appErrors.ErrCodeGatewayNotConfigured))
		})
	})
})

var _ = Describe("Completing after a verified payment", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
	})

	AfterEach(func() {
		f.close()
	})

	It("records a recovery when the form no longer validates", func() {
		completion := f.begin(ctx, "pay_V1")
		form := paidForm()
		form.Pincode = "12"

		res, err := f.orchestrator.Complete(ctx, form, completion)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(checkout.OutcomeRecoveryPending))
		Expect(res.PaymentID).To(Equal("pay_V1"))
		Expect(f.count(&applicationDatamodel.Application{})).To(BeZero())

		recs := f.recoveries()
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].ID).To(Equal(res.RecoveryID))
		Expect(recs[0].Pincode).To(Equal("12"))
		Expect(recs[0].OrderID).To(Equal(completion.OrderID))
		Expect(recs[0].ErrorMessage).NotTo(BeEmpty())

		var body map[string]interface{}
		Expect(json.Unmarshal(recs[0].RequestBody, &body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("service_id", "seamless-online-filing"))
		Expect(body).To(HaveKeyWithValue("state_id", "maharashtra"))
		Expect(body).To(HaveKeyWithValue("pincode", "12"))

		submitted := f.publisher.OfType(events.EventTypeFormSubmitted)
		Expect(submitted).To(HaveLen(1))
		Expect(submitted[0].(*events.FormSubmittedEvent).Fields).To(ContainElement(
			events.FormField{Label: "Service", Value: "seamless-online-filing"}))
	})

	It("records a recovery when the service was removed after the order", func() {
		completion := f.begin(ctx, "pay_D1")
		Expect(f.db.Where("slug = ?", "seamless-online-filing").Delete(&catalogDatamodel.Service{}).Error).To(Succeed())

		res, err := f.orchestrator.Complete(ctx, paidForm(), completion)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(checkout.OutcomeRecoveryPending))

		recs := f.recoveries()
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].PaymentID).To(Equal("pay_D1"))
		Expect(recs[0].ServiceID).To(BeZero())
		Expect(recs[0].ErrorMessage).To(ContainSubstring("Service not found"))
		Expect(f.publisher.OfType(events.EventTypeRecoveryRecorded)).To(HaveLen(1))
	})

	It("keeps the numeric reference when a service given by id is gone", func() {
		completion := f.begin(ctx, "pay_D2")
		var svc catalogDatamodel.Service
		Expect(f.db.Where("slug = ?", "seamless-online-filing").First(&svc).Error).To(Succeed())
		Expect(f.db.Delete(&svc).Error).To(Succeed())

		form := paidForm()
		form.Service = checkout.Ref(fmt.Sprint(svc.ID))
		res, err := f.orchestrator.Complete(ctx, form, completion)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(checkout.OutcomeRecoveryPending))
		Expect(f.recoveries()[0].ServiceID).To(Equal(svc.ID))
	})

	It("returns the stored application when a replay carries an unusable form", func() {
		completion := f.begin(ctx, "pay_V2")
		first, err := f.orchestrator.Complete(ctx, paidForm(), completion)
		Expect(err).NotTo(HaveOccurred())

		form := paidForm()
		form.Mobile = "123"
		second, err := f.orchestrator.Complete(ctx, form, completion)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Outcome).To(Equal(checkout.OutcomeDuplicate))
		Expect(second.ApplicationID).To(Equal(first.ApplicationID))
		Expect(f.recoveries()).To(BeEmpty())
	})

	It("stores nothing for an invalid form without a valid signature", func() {
		completion := f.begin(ctx, "pay_V3")
		completion.Signature = paymentgateway.Sign("someone-else", completion.OrderID, "pay_V3")
		form := paidForm()
		form.Pincode = "12"

		_, err := f.orchestrator.Complete(ctx, form, completion)
		Expect(err).To(Equal(appErrors.ErrSignatureMismatch))
		Expect(f.recoveries()).To(BeEmpty())
	})
})

var _ = Describe("Ref", func() {
	It("accepts numbers and strings", func() {
		var form checkout.ApplicationForm
		Expect(json.Unmarshal([]byte(`{"service_id": 3, "state_id": "delhi"}`), &form)).To(Succeed())
		Expect(form.Service).To(Equal(checkout.Ref("3")))
		Expect(form.State).To(Equal(checkout.Ref("delhi")))
		Expect(form.Service.ID()).To(Equal(int64(3)))
		Expect(form.State.ID()).To(BeZero())
	})
})
