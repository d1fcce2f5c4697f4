package checkout_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rti-filing/internal/checkout"
	"github.com/frahmantamala/rti-filing/internal/paymentgateway"
	"github.com/frahmantamala/rti-filing/internal/transport"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

var _ = Describe("Checkout Handler", func() {
	var (
		f      *fixture
		router *chi.Mux
	)

	BeforeEach(func() {
		f = newFixture()
		h := checkout.NewHandler(transport.NewBaseHandler(logger.Discard()), f.orchestrator, f.gateway)
		router = chi.NewRouter()
		router.Post("/payments/create-order", h.CreateOrder)
		router.Post("/payments/verify", h.VerifyPayment)
		router.Post("/rti-applications/checkout", h.Checkout)
		router.Post("/rti-applications/checkout/cancel", h.CancelCheckout)
		router.Post("/rti-applications/public", h.SubmitPublic)
	})

	AfterEach(func() {
		f.close()
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	formJSON := func(service string, extra string) string {
		return fmt.Sprintf(`{"service_id":%q,"state_id":"maharashtra","full_name":"Asha Verma","mobile":"9876543210",
			"email":"asha@example.com","address":"12 MG Road, Pune","pincode":"411001"%s}`, service, extra)
	}

	It("creates an order with the amount converted to paise", func() {
		rec := post("/payments/create-order", `{"amount":"699.00","currency":"INR","receipt":"rcpt_1"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp checkout.CreateOrderResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.ID).To(HavePrefix("order_test_"))
		Expect(resp.Amount).To(Equal(int64(69900)))
		Expect(resp.KeyID).To(Equal(testKeyID))
	})

	It("rejects a non-positive amount without calling the provider", func() {
		rec := post("/payments/create-order", `{"amount":0}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(f.razorpay.calls.Load()).To(BeZero())
	})

	It("verifies signatures", func() {
		sig := paymentgateway.Sign(testKeySecret, "order_1", "pay_1")
		rec := post("/payments/verify", fmt.Sprintf(
			`{"razorpay_payment_id":"pay_1","razorpay_order_id":"order_1","razorpay_signature":%q,"order_id":"order_1"}`, sig))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"success":true`))

		rec = post("/payments/verify",
			`{"razorpay_payment_id":"pay_1","razorpay_order_id":"order_1","razorpay_signature":"deadbeef"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("PAYMENT_SIGNATURE_MISMATCH"))
	})

	It("begins a paid checkout and returns the order handle", func() {
		rec := post("/rti-applications/checkout", formJSON("", `,"service_slug":"seamless-online-filing"`))
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp checkout.CheckoutResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Status).To(Equal("awaiting_payment"))
		Expect(resp.Checkout.Options.Amount).To(Equal(int64(69900)))

		Expect(post("/rti-applications/checkout/cancel", fmt.Sprintf(`{"receipt":%q}`, resp.Checkout.Receipt)).Code).
			To(Equal(http.StatusNoContent))
	})

	It("accepts a verified public submission", func() {
		sig := paymentgateway.Sign(testKeySecret, "order_9", "pay_9")
		rec := post("/rti-applications/public", formJSON("seamless-online-filing",
			fmt.Sprintf(`,"payment_id":"pay_9","order_id":"order_9","razorpay_signature":%q`, sig)))
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(rec.Body.String()).To(ContainSubstring(`"id":1`))
	})

	It("answers 202 when the payment was kept as a recovery", func() {
		f.failApplicationInserts()
		sig := paymentgateway.Sign(testKeySecret, "order_9", "pay_9")
		rec := post("/rti-applications/public", formJSON("seamless-online-filing",
			fmt.Sprintf(`,"payment_id":"pay_9","order_id":"order_9","razorpay_signature":%q`, sig)))
		Expect(rec.Code).To(Equal(http.StatusAccepted))

		var resp checkout.RecoveryPendingResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Code).To(BeEquivalentTo("PAYMENT_RECOVERY_PENDING"))
		Expect(resp.Message).To(Equal("payment succeeded, application pending manual recovery"))
		Expect(resp.RecoveryID).To(BeNumerically(">", 0))
	})

	It("requires payment for a paid service", func() {
		rec := post("/rti-applications/public", formJSON("seamless-online-filing", ""))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("PAYMENT_REQUIRED"))
	})

	It("stores a free public submission", func() {
		rec := post("/rti-applications/public", formJSON("bulk", ""))
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})
})
