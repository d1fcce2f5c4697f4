package lead_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rti-filing/internal/lead"
	"github.com/frahmantamala/rti-filing/internal/transport"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

var _ = Describe("Lead Handler Integration", func() {
	var (
		router *chi.Mux
		sdb    *sqlx.DB
	)

	BeforeEach(func() {
		_, sdb = newLeadDB()
		handler := lead.NewHandler(transport.NewBaseHandler(logger.Discard()), newLeadService(sdb, nil))

		router = chi.NewRouter()
		router.Post("/consultations", handler.CreateConsultation)
		router.Get("/consultations", handler.ListConsultations)
		router.Patch("/consultations/{id}", handler.UpdateConsultationStatus)
		router.Post("/callbacks", handler.CreateCallback)
		router.Post("/newsletter", handler.Subscribe)
		router.Post("/newsletter/unsubscribe", handler.Unsubscribe)
	})

	AfterEach(func() {
		sdb.Close()
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("accepts a consultation and lists it", func() {
		rec := do(http.MethodPost, "/consultations",
			`{"full_name":"Asha Verma","email":"asha@example.com","mobile":"9876543210","consultation_type":"appeal"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		var created lead.CreatedResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())
		Expect(created.ID).To(BeNumerically(">", 0))

		rec = do(http.MethodGet, "/consultations?status=pending", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var page struct {
			Data       []lead.Consultation `json:"data"`
			Pagination struct {
				Total int64 `json:"total"`
			} `json:"pagination"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &page)).To(Succeed())
		Expect(page.Pagination.Total).To(Equal(int64(1)))
		Expect(page.Data[0].ID).To(Equal(created.ID))
	})

	It("reports field errors for an invalid callback", func() {
		rec := do(http.MethodPost, "/callbacks", `{"full_name":"R","mobile":"123"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("mobile"))
		Expect(rec.Body.String()).To(ContainSubstring("full_name"))
	})

	It("rejects a status outside the consultation lifecycle", func() {
		rec := do(http.MethodPost, "/consultations",
			`{"full_name":"Asha Verma","email":"asha@example.com","mobile":"9876543210","consultation_type":"appeal"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		rec = do(http.MethodPatch, "/consultations/1", `{"status":"archived"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("unsubscribes with no content and 404s unknown addresses", func() {
		Expect(do(http.MethodPost, "/newsletter", `{"email":"reader@example.com"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/newsletter/unsubscribe", `{"email":"reader@example.com"}`).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodPost, "/newsletter/unsubscribe", `{"email":"ghost@example.com"}`).Code).To(Equal(http.StatusNotFound))
	})
})
