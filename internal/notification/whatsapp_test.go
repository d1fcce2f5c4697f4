package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/notification"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

type messagingAPI struct {
	server     *httptest.Server
	probes     atomic.Int32
	failProbes int32
	sendStatus atomic.Int32

	mu       sync.Mutex
	messages []map[string]string
	auth     string
}

func newMessagingAPI(failProbes int32) *messagingAPI {
	api := &messagingAPI{failProbes: failProbes}
	api.sendStatus.Store(http.StatusCreated)
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if api.probes.Add(1) <= api.failProbes {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "connected": true})
	})
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		api.mu.Lock()
		api.messages = append(api.messages, body)
		api.auth = r.Header.Get("Authorization")
		api.mu.Unlock()
		w.WriteHeader(int(api.sendStatus.Load()))
	})
	api.server = httptest.NewServer(mux)
	return api
}

func (a *messagingAPI) Messages() []map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]map[string]string(nil), a.messages...)
}

var _ = Describe("WhatsAppSession", func() {
	var (
		api     *messagingAPI
		session *notification.WhatsAppSession
		ctx     context.Context
	)

	newSession := func(cfg internal.WhatsAppConfig) *notification.WhatsAppSession {
		return notification.NewWhatsAppSession(cfg, logger.Discard())
	}

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if session != nil {
			Expect(session.Shutdown(ctx)).To(Succeed())
		}
		if api != nil {
			api.server.Close()
		}
		session, api = nil, nil
	})

	It("is a no-op without configuration", func() {
		session = newSession(internal.WhatsAppConfig{})
		Expect(session.Init(ctx)).To(MatchError(notification.ErrSessionDisabled))
		Expect(session.SendIfReady(ctx, "hello")).To(BeFalse())
		Expect(session.State()).To(Equal(notification.StateUninitialized))
	})

	It("retries the readiness probe until the API is up", func() {
		api = newMessagingAPI(2)
		session = newSession(internal.WhatsAppConfig{
			APIURL:   api.server.URL,
			APIToken: "secret-token",
			Phone:    "919876543210",
		})

		Expect(session.Init(ctx)).To(Succeed())
		Expect(session.State()).To(Equal(notification.StateReady))
		Expect(api.probes.Load()).To(Equal(int32(3)))

		Expect(session.SendIfReady(ctx, "New consultation")).To(BeTrue())
		msgs := api.Messages()
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0]).To(HaveKeyWithValue("to", "919876543210"))
		Expect(msgs[0]).To(HaveKeyWithValue("body", "New consultation"))
		Expect(api.auth).To(Equal("Bearer secret-token"))
	})

	It("gives up after the retry budget and reports disconnected", func() {
		api = newMessagingAPI(1000)
		session = newSession(internal.WhatsAppConfig{
			APIURL:     api.server.URL,
			Phone:      "919876543210",
			MaxRetries: 1,
		})

		Expect(session.Init(ctx)).To(HaveOccurred())
		Expect(session.State()).To(Equal(notification.StateDisconnected))
		Expect(api.probes.Load()).To(Equal(int32(2)))
	})

	It("returns false once the ready timeout passes", func() {
		api = newMessagingAPI(1000)
		session = newSession(internal.WhatsAppConfig{
			APIURL:       api.server.URL,
			Phone:        "919876543210",
			ReadyTimeout: 50 * time.Millisecond,
			MaxRetries:   1,
		})

		start := time.Now()
		Expect(session.SendIfReady(ctx, "hello")).To(BeFalse())
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
		Expect(api.Messages()).To(BeEmpty())
	})

	It("bootstraps lazily on first send", func() {
		api = newMessagingAPI(0)
		session = newSession(internal.WhatsAppConfig{
			APIURL:       api.server.URL,
			Phone:        "919876543210",
			ReadyTimeout: 5 * time.Second,
		})

		Expect(session.SendIfReady(ctx, "hello")).To(BeTrue())
		Expect(session.State()).To(Equal(notification.StateReady))
	})

	It("marks the session disconnected when a send fails", func() {
		api = newMessagingAPI(0)
		api.sendStatus.Store(http.StatusBadGateway)
		session = newSession(internal.WhatsAppConfig{
			APIURL: api.server.URL,
			Phone:  "919876543210",
		})
		Expect(session.Init(ctx)).To(Succeed())

		Expect(session.SendIfReady(ctx, "hello")).To(BeFalse())
		// the background reconnect brings it back
		Eventually(session.State).Should(Equal(notification.StateReady))

		api.sendStatus.Store(http.StatusCreated)
		Expect(session.SendIfReady(ctx, "again")).To(BeTrue())
	})

	It("concurrent Init calls bootstrap once", func() {
		api = newMessagingAPI(0)
		session = newSession(internal.WhatsAppConfig{
			APIURL: api.server.URL,
			Phone:  "919876543210",
		})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				Expect(session.Init(ctx)).To(Succeed())
			}()
		}
		wg.Wait()
		Eventually(session.State).Should(Equal(notification.StateReady))
		Expect(api.probes.Load()).To(BeNumerically("<=", 8))
		Expect(api.probes.Load()).To(BeNumerically(">=", 1))
	})
})

var _ = Describe("WhatsAppNotifier", func() {
	It("formats the submission as a chat message", func() {
		api := newMessagingAPI(0)
		defer api.server.Close()
		session := notification.NewWhatsAppSession(internal.WhatsAppConfig{
			APIURL: api.server.URL,
			Phone:  "919876543210",
		}, logger.Discard())
		defer session.Shutdown(context.Background())
		Expect(session.Init(context.Background())).To(Succeed())

		n := notification.NewWhatsAppNotifier(session)
		ok := n.SendFormSubmissionNotification(context.Background(), "callback request", notification.FormData{
			ReferenceID: 12,
		})
		Expect(ok).To(BeTrue())
		Expect(api.Messages()[0]["body"]).To(ContainSubstring("Callback Request"))
		Expect(api.Messages()[0]["body"]).To(ContainSubstring("#12"))
	})
})
