package notification_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rti-filing/internal/notification"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

// blockingChannel holds every send until release is closed.
type blockingChannel struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func (b *blockingChannel) wait(ctx context.Context) bool {
	select {
	case <-b.release:
	case <-ctx.Done():
		return false
	}
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
	return true
}

func (b *blockingChannel) SendFormSubmissionEmail(ctx context.Context, _ string, _ notification.FormData) bool {
	return b.wait(ctx)
}

func (b *blockingChannel) SendFormSubmissionNotification(_ context.Context, _ string, _ notification.FormData) bool {
	return true
}

func (b *blockingChannel) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

var _ = Describe("Dispatcher", func() {
	It("drains queued jobs on shutdown", func() {
		fake := &fakeChannel{result: true}
		d := notification.NewDispatcher(notification.DispatcherConfig{Workers: 2, QueueSize: 10}, fake, logger.Discard())

		for i := 0; i < 5; i++ {
			Expect(d.Enqueue(notification.Job{FormType: "consultation", Data: notification.FormData{ReferenceID: int64(i + 1)}})).To(BeTrue())
		}
		Expect(d.Shutdown(context.Background())).To(Succeed())

		// two channels per job
		Expect(fake.Calls()).To(HaveLen(10))
	})

	It("drops jobs once the queue is full", func() {
		blocker := &blockingChannel{release: make(chan struct{})}
		d := notification.NewDispatcher(notification.DispatcherConfig{Workers: 1, QueueSize: 1}, blocker, logger.Discard())

		// the first job occupies the worker, the second waits in the
		// dispatcher and the third fills the queue
		Expect(d.Enqueue(notification.Job{FormType: "a"})).To(BeTrue())
		Eventually(func() bool {
			return d.Enqueue(notification.Job{FormType: "b"})
		}).Should(BeTrue())
		Eventually(func() bool {
			return d.Enqueue(notification.Job{FormType: "c"})
		}).Should(BeTrue())
		Expect(d.Enqueue(notification.Job{FormType: "d"})).To(BeFalse())

		close(blocker.release)
		Expect(d.Shutdown(context.Background())).To(Succeed())
		Expect(blocker.Count()).To(Equal(3))
	})

	It("refuses work after shutdown", func() {
		d := notification.NewDispatcher(notification.DispatcherConfig{Workers: 1, QueueSize: 1}, &fakeChannel{}, logger.Discard())
		Expect(d.Shutdown(context.Background())).To(Succeed())
		Expect(d.Enqueue(notification.Job{FormType: "late"})).To(BeFalse())
	})

	It("cancels in-flight sends when the shutdown deadline passes", func() {
		blocker := &blockingChannel{release: make(chan struct{})}
		d := notification.NewDispatcher(notification.DispatcherConfig{Workers: 1, QueueSize: 1}, blocker, logger.Discard())
		Expect(d.Enqueue(notification.Job{FormType: "slow"})).To(BeTrue())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		Expect(d.Shutdown(ctx)).To(MatchError(context.DeadlineExceeded))
		Expect(blocker.Count()).To(BeZero())
	})
})
