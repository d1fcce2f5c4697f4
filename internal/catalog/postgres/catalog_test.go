package postgres_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/rti-filing/internal/catalog"
	catalogPostgres "github.com/frahmantamala/rti-filing/internal/catalog/postgres"
	catalogDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/catalog"
)

func TestCatalogRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Catalog Repository Suite")
}

var _ = Describe("CatalogRepository", func() {
	var (
		db   *gorm.DB
		repo catalog.RepositoryAPI
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&catalogDatamodel.Service{}, &catalogDatamodel.State{})).To(Succeed())
		repo = catalogPostgres.NewCatalogRepository(db)
	})

	Describe("services", func() {
		It("round-trips price and features", func() {
			svc := &catalogDatamodel.Service{
				Name:     "Standard RTI",
				Slug:     "standard-rti",
				Price:    decimal.RequireFromString("499.00"),
				Features: []string{"Drafting", "Filing"},
				IsActive: true,
			}
			Expect(repo.CreateService(ctx, svc)).To(Succeed())
			Expect(svc.ID).NotTo(BeZero())

			found, err := repo.GetServiceBySlug(ctx, "standard-rti")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(found.Price.Equal(decimal.NewFromInt(499))).To(BeTrue())
			Expect([]string(found.Features)).To(Equal([]string{"Drafting", "Filing"}))
		})

		It("returns nil for a missing row", func() {
			found, err := repo.GetServiceByID(ctx, 999)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})

		It("lists only active services when asked", func() {
			Expect(repo.CreateService(ctx, &catalogDatamodel.Service{Name: "A", Slug: "a", Price: decimal.Zero, IsActive: true})).To(Succeed())
			Expect(repo.CreateService(ctx, &catalogDatamodel.Service{Name: "B", Slug: "b", Price: decimal.NewFromInt(10), IsActive: false})).To(Succeed())

			active, err := repo.ListServices(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(1))
			Expect(active[0].Slug).To(Equal("a"))

			all, err := repo.ListServices(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})

		It("deactivates instead of deleting", func() {
			svc := &catalogDatamodel.Service{Name: "A", Slug: "a", Price: decimal.Zero, IsActive: true}
			Expect(repo.CreateService(ctx, svc)).To(Succeed())

			Expect(repo.DeactivateService(ctx, svc.ID)).To(Succeed())

			found, err := repo.GetServiceByID(ctx, svc.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.IsActive).To(BeFalse())
		})
	})

	Describe("states", func() {
		It("matches slugs case-insensitively", func() {
			Expect(repo.CreateState(ctx, &catalogDatamodel.State{Name: "Delhi", Slug: "delhi", IsActive: true})).To(Succeed())

			found, err := repo.GetStateBySlug(ctx, "DELHI")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(found.Name).To(Equal("Delhi"))
		})

		It("orders states by name", func() {
			Expect(repo.CreateState(ctx, &catalogDatamodel.State{Name: "Kerala", Slug: "kerala", IsActive: true})).To(Succeed())
			Expect(repo.CreateState(ctx, &catalogDatamodel.State{Name: "Assam", Slug: "assam", IsActive: true})).To(Succeed())

			states, err := repo.ListStates(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(states).To(HaveLen(2))
			Expect(states[0].Name).To(Equal("Assam"))
		})
	})
})
