package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/rti-filing/internal/catalog"
	catalogPostgres "github.com/frahmantamala/rti-filing/internal/catalog/postgres"
	catalogDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/catalog"
	"github.com/frahmantamala/rti-filing/internal/transport"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

var _ = Describe("Catalog Handler Integration", func() {
	var (
		router  *chi.Mux
		service *catalog.Service
	)

	BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&catalogDatamodel.Service{}, &catalogDatamodel.State{})).To(Succeed())

		service = catalog.NewService(catalogPostgres.NewCatalogRepository(db), logger.Discard())
		handler := catalog.NewHandler(transport.NewBaseHandler(logger.Discard()), service)

		ctx := context.Background()
		_, err = service.CreateService(ctx, catalog.ServiceDTO{
			Name: "Standard RTI", Slug: "standard-rti", Price: decimal.RequireFromString("499.00"),
			Features: []string{"Drafting"},
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.CreateState(ctx, catalog.StateDTO{Name: "Delhi", Slug: "delhi"})
		Expect(err).NotTo(HaveOccurred())

		router = chi.NewRouter()
		router.Get("/services", handler.GetServices)
		router.Get("/services/{slug}", handler.GetService)
		router.Post("/services", handler.CreateService)
		router.Delete("/services/{id}", handler.DeleteService)
		router.Get("/states/{slug}", handler.GetState)
	})

	It("lists active services", func() {
		req := httptest.NewRequest(http.MethodGet, "/services", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp catalog.ServicesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Services).To(HaveLen(1))
		Expect(resp.Services[0].Slug).To(Equal("standard-rti"))
		Expect(resp.Services[0].Features).To(ConsistOf("Drafting"))
	})

	It("returns a service by slug", func() {
		req := httptest.NewRequest(http.MethodGet, "/services/standard-rti", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"name":"Standard RTI"`))
	})

	It("returns 404 with an error body for unknown slugs", func() {
		req := httptest.NewRequest(http.MethodGet, "/services/unknown", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring(`"code":"SERVICE_NOT_FOUND"`))
	})

	It("resolves states case-insensitively", func() {
		req := httptest.NewRequest(http.MethodGet, "/states/DELHI", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("validates create payloads", func() {
		req := httptest.NewRequest(http.MethodPost, "/services", strings.NewReader(`{"name":"","slug":"Bad Slug!","price":"-5"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(`"field":"name"`))
		Expect(w.Body.String()).To(ContainSubstring(`"field":"price"`))
	})

	It("rejects malformed ids on delete", func() {
		req := httptest.NewRequest(http.MethodDelete, "/services/abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("soft-deletes a service", func() {
		req := httptest.NewRequest(http.MethodDelete, "/services/1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		req = httptest.NewRequest(http.MethodGet, "/services/standard-rti", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
