package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"tvhook/internal/lifecycle"
	"tvhook/internal/relay"
	"tvhook/internal/trade"
	"tvhook/internal/trade/service"
)

const testSecret = "s3cret"

type memStore struct {
	mu        sync.Mutex
	insertErr error
	events    []*trade.Event
}

func (s *memStore) EnsureSchema(ctx context.Context) error { return nil }
func (s *memStore) Close() error                           { return nil }

func (s *memStore) Insert(ctx context.Context, ev *trade.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	ev.ID = int64(len(s.events) + 1)
	s.events = append(s.events, ev)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// newTestRouter wires the real manager, service and relay client around store.
// A nil store simulates an unconfigured or unreachable database.
func newTestRouter(t *testing.T, store *memStore, relayURL string) http.Handler {
	t.Helper()

	var open lifecycle.OpenFunc
	if store != nil {
		open = func(ctx context.Context) (lifecycle.Store, error) { return store, nil }
	}
	mgr := lifecycle.NewManager(open, lifecycle.Options{}, nil)
	mgr.Start(context.Background())
	t.Cleanup(func() { mgr.Close() })

	svc := service.NewService(mgr, relay.NewClient(relayURL, time.Second, nil), nil)
	h := NewHandler(svc, mgr, nil)

	r := chi.NewRouter()
	h.Register(r, testSecret, 1<<20)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

const demoBody = `{"strategy":"DEMO","action":"entry","side":"long","symbol":"AAPL","time_ms":1700000000000,"price":230.12,"qty":10}`

func TestWebhook_StoresDemoAlert(t *testing.T) {
	store := &memStore{}
	r := newTestRouter(t, store, "")

	rec := post(t, r, "/webhook/"+testSecret, demoBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true,"stored":true}` {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	if store.count() != 1 {
		t.Fatalf("expected 1 row, got %d", store.count())
	}
	ev := store.events[0]
	if ev.Symbol == nil || *ev.Symbol != "AAPL" {
		t.Errorf("unexpected symbol %v", ev.Symbol)
	}
	if ev.Price == nil || *ev.Price != 230.12 {
		t.Errorf("unexpected price %v", ev.Price)
	}
	if ev.Qty == nil || *ev.Qty != 10 {
		t.Errorf("unexpected qty %v", ev.Qty)
	}
	if ev.Reason != nil {
		t.Errorf("expected null reason, got %q", *ev.Reason)
	}
	if string(ev.Raw) != demoBody {
		t.Errorf("raw mismatch %s", ev.Raw)
	}
}

func TestWebhook_WrongSecret(t *testing.T) {
	store := &memStore{}
	r := newTestRouter(t, store, "")

	for _, body := range []string{demoBody, "not-json", ""} {
		rec := post(t, r, "/webhook/wrong", body)
		if rec.Code != http.StatusForbidden {
			t.Errorf("body %q: expected 403, got %d", body, rec.Code)
		}
	}
	if store.count() != 0 {
		t.Errorf("expected zero rows, got %d", store.count())
	}
}

func TestWebhook_NotJSON(t *testing.T) {
	store := &memStore{}
	r := newTestRouter(t, store, "")

	for _, body := range []string{"not-json", "", "{\"a\":", "{\"symbol\":\"\xff\xfe\"}"} {
		rec := post(t, r, "/webhook/"+testSecret, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
	if store.count() != 0 {
		t.Errorf("expected zero rows, got %d", store.count())
	}
}

func TestWebhook_UnknownFieldsOnly(t *testing.T) {
	store := &memStore{}
	r := newTestRouter(t, store, "")

	body := `{"ticker":"NASDAQ:AAPL","close":230.12}`
	if rec := post(t, r, "/webhook/"+testSecret, body); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ev := store.events[0]
	if ev.Strategy != nil || ev.Action != nil || ev.Side != nil || ev.Symbol != nil ||
		ev.TimeMs != nil || ev.Price != nil || ev.Qty != nil || ev.StopLoss != nil ||
		ev.TakeProfit != nil || ev.Equity != nil || ev.Reason != nil {
		t.Errorf("expected all typed fields nil, got %+v", ev)
	}
	if string(ev.Raw) != body {
		t.Errorf("raw mismatch %s", ev.Raw)
	}
}

func TestWebhook_Disconnected(t *testing.T) {
	r := newTestRouter(t, nil, "")

	for _, body := range []string{demoBody, `{}`, "not-json", ""} {
		rec := post(t, r, "/webhook/"+testSecret, body)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("body %q: expected 503, got %d", body, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("bad health body: %v", err)
	}
	if rec.Code != http.StatusOK || !health["ok"] || health["db_connected"] {
		t.Errorf("unexpected health %d %v", rec.Code, health)
	}
}

func TestWebhook_DisconnectedDoesNotRelay(t *testing.T) {
	var hits atomic.Int32
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer bridge.Close()

	r := newTestRouter(t, nil, bridge.URL)
	post(t, r, "/webhook/"+testSecret, demoBody)

	if hits.Load() != 0 {
		t.Errorf("expected no relay calls, got %d", hits.Load())
	}
}

func TestWebhook_StorageWriteFailure(t *testing.T) {
	var hits atomic.Int32
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer bridge.Close()

	store := &memStore{insertErr: errors.New("could not extend file")}
	r := newTestRouter(t, store, bridge.URL)

	rec := post(t, r, "/webhook/"+testSecret, demoBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "extend file") {
		t.Error("driver error leaked to caller")
	}
	if hits.Load() != 0 {
		t.Errorf("relay must not follow a failed insert, got %d calls", hits.Load())
	}
}

func TestWebhook_RelayForwardsVerbatim(t *testing.T) {
	got := make(chan string, 1)
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- string(b)
	}))
	defer bridge.Close()

	store := &memStore{}
	r := newTestRouter(t, store, bridge.URL)

	if rec := post(t, r, "/webhook/"+testSecret, demoBody); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	select {
	case body := <-got:
		if body != demoBody {
			t.Errorf("relayed body mismatch: %s", body)
		}
	default:
		t.Fatal("relay was not called")
	}
}

func TestWebhook_RelayFailureStillSucceeds(t *testing.T) {
	bridge := httptest.NewServer(http.NotFoundHandler())
	unreachable := bridge.URL
	bridge.Close()

	store := &memStore{}
	r := newTestRouter(t, store, unreachable)

	rec := post(t, r, "/webhook/"+testSecret, demoBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite relay failure, got %d", rec.Code)
	}
	if store.count() != 1 {
		t.Errorf("expected 1 row, got %d", store.count())
	}
}

func TestHealth_Connected(t *testing.T) {
	r := newTestRouter(t, &memStore{}, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true,"db_connected":true}` {
		t.Errorf("unexpected health body %s", rec.Body.String())
	}
}
