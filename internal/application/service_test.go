package application_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/application"
	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	applicationDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/application"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

func TestApplicationService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Application Service Suite")
}

type MockRepository struct {
	apps          map[int64]*applicationDatamodel.Application
	statusUpdates int
	lastFilter    application.Filter
}

func NewMockRepository() *MockRepository {
	return &MockRepository{apps: make(map[int64]*applicationDatamodel.Application)}
}

func (m *MockRepository) Create(_ context.Context, app *applicationDatamodel.Application) error {
	app.ID = int64(len(m.apps) + 1)
	m.apps[app.ID] = app
	return nil
}

func (m *MockRepository) FindByID(_ context.Context, id int64) (*applicationDatamodel.Application, error) {
	return m.apps[id], nil
}

func (m *MockRepository) FindByPaymentID(_ context.Context, paymentID string) (*applicationDatamodel.Application, error) {
	for _, a := range m.apps {
		if a.PaymentID != nil && *a.PaymentID == paymentID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) FindAll(_ context.Context, filter application.Filter, _ pagination.Params) ([]*applicationDatamodel.Application, int64, error) {
	m.lastFilter = filter
	var out []*applicationDatamodel.Application
	for _, a := range m.apps {
		if filter.UserID > 0 && (a.UserID == nil || *a.UserID != filter.UserID) {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (m *MockRepository) UpdateStatus(_ context.Context, id int64, status string) error {
	m.statusUpdates++
	m.apps[id].Status = status
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id int64) error {
	delete(m.apps, id)
	return nil
}

var _ = Describe("Application Service", func() {
	var (
		repo    *MockRepository
		service *application.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		service = application.NewService(repo, logger.Discard())
		Expect(repo.Create(ctx, &applicationDatamodel.Application{Status: application.StatusPending})).To(Succeed())
	})

	DescribeTable("status transitions",
		func(from, to string, allowed bool) {
			Expect(application.CanTransition(from, to)).To(Equal(allowed))
		},
		Entry("pending to submitted", application.StatusPending, application.StatusSubmitted, true),
		Entry("pending to in_progress", application.StatusPending, application.StatusInProgress, true),
		Entry("pending to rejected", application.StatusPending, application.StatusRejected, true),
		Entry("pending to completed", application.StatusPending, application.StatusCompleted, false),
		Entry("submitted to completed", application.StatusSubmitted, application.StatusCompleted, true),
		Entry("in_progress to completed", application.StatusInProgress, application.StatusCompleted, true),
		Entry("in_progress to pending", application.StatusInProgress, application.StatusPending, false),
		Entry("completed is terminal", application.StatusCompleted, application.StatusRejected, false),
		Entry("rejected is terminal", application.StatusRejected, application.StatusPending, false),
		Entry("same status", application.StatusCompleted, application.StatusCompleted, true),
	)

	It("applies an allowed transition", func() {
		app, err := service.UpdateStatus(ctx, 1, application.UpdateStatusDTO{Status: application.StatusSubmitted})
		Expect(err).NotTo(HaveOccurred())
		Expect(app.Status).To(Equal(application.StatusSubmitted))
		Expect(repo.statusUpdates).To(Equal(1))
	})

	It("treats re-applying the current status as a no-op", func() {
		app, err := service.UpdateStatus(ctx, 1, application.UpdateStatusDTO{Status: application.StatusPending})
		Expect(err).NotTo(HaveOccurred())
		Expect(app.Status).To(Equal(application.StatusPending))
		Expect(repo.statusUpdates).To(BeZero())
	})

	It("rejects a disallowed transition", func() {
		_, err := service.UpdateStatus(ctx, 1, application.UpdateStatusDTO{Status: application.StatusCompleted})
		appErr, ok := appErrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(appErrors.ErrorTypeValidation))
		Expect(repo.statusUpdates).To(BeZero())
	})

	It("rejects unknown statuses", func() {
		_, err := service.UpdateStatus(ctx, 1, application.UpdateStatusDTO{Status: "archived"})
		appErr, ok := appErrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(appErrors.ErrorTypeValidation))
	})

	It("reports missing applications", func() {
		_, err := service.Get(ctx, 42)
		Expect(err).To(MatchError(appErrors.ErrApplicationNotFound))

		Expect(service.Delete(ctx, 42)).To(MatchError(appErrors.ErrApplicationNotFound))
	})

	It("scopes ListMine to the caller", func() {
		uid := int64(7)
		Expect(repo.Create(ctx, &applicationDatamodel.Application{UserID: &uid, Status: application.StatusPending})).To(Succeed())

		apps, total, err := service.ListMine(ctx, uid, pagination.New(1, 20))
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(int64(1)))
		Expect(apps).To(HaveLen(1))
		Expect(repo.lastFilter.UserID).To(Equal(uid))
	})

	It("rejects an unknown status filter", func() {
		_, _, err := service.List(ctx, application.Filter{Status: "bogus"}, pagination.New(1, 20))
		Expect(err).To(HaveOccurred())
	})
})
