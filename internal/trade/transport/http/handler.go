package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tvhook/internal/metrics"
	"tvhook/internal/trade"
	"tvhook/pkg/middleware"
)

type Ingester interface {
	Ingest(ctx context.Context, body []byte) (*trade.Event, error)
}

type StatusReporter interface {
	Connected() bool
}

type Handler struct {
	Service Ingester
	Status  StatusReporter
	logger  *slog.Logger
}

func NewHandler(svc Ingester, status StatusReporter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: svc, Status: status, logger: logger.With("module", "webhook")}
}

// Register mounts /health and /webhook/{secret}. Extra middlewares run on the
// webhook route before the secret check.
func (h *Handler) Register(r chi.Router, secret string, maxBodyBytes int64, webhookMW ...func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	chain := append([]func(http.Handler) http.Handler{}, webhookMW...)
	chain = append(chain,
		forbiddenCounter,
		middleware.PathSecret("secret", secret),
		middleware.BodyLimit(maxBodyBytes),
	)
	r.With(chain...).Post("/webhook/{secret}", h.Webhook)
}

type webhookResponse struct {
	OK     bool `json:"ok"`
	Stored bool `json:"stored"`
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("bad_request").Inc()
		middleware.WriteError(w, http.StatusBadRequest, "bad request")
		return
	}

	ev, err := h.Service.Ingest(r.Context(), body)
	if err != nil {
		status, outcome := statusFor(err)
		metrics.WebhookEventsTotal.WithLabelValues(outcome).Inc()
		if status == http.StatusServiceUnavailable {
			h.logger.Warn("webhook rejected: storage not connected", "request_id", chimw.GetReqID(r.Context()))
		}
		middleware.WriteError(w, status, publicError(err))
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues("stored").Inc()
	h.logger.Info("event stored", "request_id", chimw.GetReqID(r.Context()), "event_id", ev.ID, "symbol", deref(ev.Symbol), "action", deref(ev.Action))
	middleware.WriteJSON(w, http.StatusOK, webhookResponse{OK: true, Stored: true})
}

type healthResponse struct {
	OK          bool `json:"ok"`
	DBConnected bool `json:"db_connected"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, healthResponse{OK: true, DBConnected: h.Status.Connected()})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, trade.ErrMalformedRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, trade.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "storage_error"
	}
}

// publicError hides driver details behind the taxonomy message.
func publicError(err error) string {
	for _, known := range []error{trade.ErrMalformedRequest, trade.ErrStorageUnavailable} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return trade.ErrStorageWrite.Error()
}

// forbiddenCounter counts requests turned away by the secret check.
func forbiddenCounter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == http.StatusForbidden {
			metrics.WebhookEventsTotal.WithLabelValues("forbidden").Inc()
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
