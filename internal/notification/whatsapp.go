package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/frahmantamala/rti-filing/internal"
)

type SessionState string

const (
	StateUninitialized SessionState = "uninitialized"
	StateInitializing  SessionState = "initializing"
	StateReady         SessionState = "ready"
	StateDisconnected  SessionState = "disconnected"
)

var (
	ErrSessionDisabled = errors.New("whatsapp session not configured")
	ErrSessionClosed   = errors.New("whatsapp session shut down")
)

// WhatsAppSession is the process-wide connection to the messaging API.
// Only one bootstrap runs at a time; waiters block on the ready channel.
type WhatsAppSession struct {
	cfg         internal.WhatsAppConfig
	httpClient  *http.Client
	backoffBase time.Duration
	logger      *slog.Logger

	initializing atomic.Bool

	mu     sync.Mutex
	state  SessionState
	ready  chan struct{}
	closed bool

	// lifecycle of background re-initialization
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWhatsAppSession(cfg internal.WhatsAppConfig, logger *slog.Logger) *WhatsAppSession {
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	return &WhatsAppSession{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		backoffBase: 500 * time.Millisecond,
		logger:      logger,
		state:       StateUninitialized,
		ready:       make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *WhatsAppSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Init probes the API until it reports ready or the retry budget runs out.
// A call made while another bootstrap is running returns immediately.
func (s *WhatsAppSession) Init(ctx context.Context) error {
	if !s.cfg.IsConfigured() {
		s.logger.Info("whatsapp not configured, notifications disabled")
		return ErrSessionDisabled
	}
	if !s.initializing.CompareAndSwap(false, true) {
		return nil
	}
	defer s.initializing.Store(false)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state == StateReady {
		s.mu.Unlock()
		return nil
	}
	s.state = StateInitializing
	s.mu.Unlock()

	s.logger.Info("whatsapp session initializing", "api_url", s.cfg.APIURL)

	b := retry.NewExponential(s.backoffBase)
	b = retry.WithCappedDuration(30*time.Second, b)
	b = retry.WithJitter(s.backoffBase/2, b)
	b = retry.WithMaxRetries(s.cfg.MaxRetries, b)

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := s.probe(ctx); err != nil {
			s.logger.Warn("whatsapp session not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.setState(StateDisconnected)
		s.logger.Error("whatsapp session failed to initialize", "attempts", attempt, "error", err)
		return fmt.Errorf("whatsapp init: %w", err)
	}

	s.markReady()
	s.logger.Info("whatsapp session ready", "attempts", attempt)
	return nil
}

// SendIfReady waits up to the ready timeout for the session, then sends text
// to the configured phone. It reports false instead of blocking indefinitely.
func (s *WhatsAppSession) SendIfReady(ctx context.Context, text string) bool {
	if !s.cfg.IsConfigured() {
		return false
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	state, ready := s.state, s.ready
	s.mu.Unlock()

	if state == StateUninitialized || state == StateDisconnected {
		s.reconnect()
	}

	timer := time.NewTimer(s.cfg.ReadyTimeout)
	defer timer.Stop()
	select {
	case <-ready:
	case <-timer.C:
		s.logger.Warn("whatsapp session not ready, message dropped", "timeout", s.cfg.ReadyTimeout)
		return false
	case <-ctx.Done():
		return false
	case <-s.ctx.Done():
		return false
	}

	if err := s.send(ctx, text); err != nil {
		s.logger.Error("whatsapp send failed", "error", err)
		s.markDisconnected()
		s.reconnect()
		return false
	}
	return true
}

// Shutdown stops background reconnects and waits for them to exit.
func (s *WhatsAppSession) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.setState(StateUninitialized)
		s.logger.Info("whatsapp session shut down")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reconnect runs Init in the background unless a bootstrap is already running.
func (s *WhatsAppSession) reconnect() {
	if s.initializing.Load() {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		_ = s.Init(s.ctx)
	}()
}

func (s *WhatsAppSession) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *WhatsAppSession) markReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateReady {
		return
	}
	s.state = StateReady
	close(s.ready)
}

func (s *WhatsAppSession) markDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateReady {
		s.ready = make(chan struct{})
	}
	s.state = StateDisconnected
}

type statusResponse struct {
	Status    string `json:"status"`
	Connected *bool  `json:"connected,omitempty"`
}

func (s *WhatsAppSession) probe(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status probe returned %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode status: %w", err)
	}
	if status.Connected != nil && !*status.Connected {
		return fmt.Errorf("messaging api not connected (%s)", status.Status)
	}
	return nil
}

type messageRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *WhatsAppSession) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(messageRequest{To: s.cfg.Phone, Body: text})
	if err != nil {
		return err
	}
	req, err := s.newRequest(ctx, http.MethodPost, "/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("messages endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (s *WhatsAppSession) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.cfg.APIURL, "/")+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIToken)
	}
	return req, nil
}

// WhatsAppNotifier formats form submissions as chat messages for the session.
type WhatsAppNotifier struct {
	session *WhatsAppSession
}

func NewWhatsAppNotifier(session *WhatsAppSession) *WhatsAppNotifier {
	return &WhatsAppNotifier{session: session}
}

var _ MessageSender = (*WhatsAppNotifier)(nil)

func (n *WhatsAppNotifier) SendFormSubmissionNotification(ctx context.Context, formType string, data FormData) bool {
	if !n.session.cfg.IsConfigured() {
		recordSkipped(ChannelWhatsApp)
		return false
	}
	ok := n.session.SendIfReady(ctx, "*"+subject(formType)+"*\n\n"+plainText(formType, data))
	record(ChannelWhatsApp, ok)
	return ok
}
