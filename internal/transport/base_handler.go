package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a bare error body for failures that have no AppError.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteAppError(w, &appErrors.AppError{
		Type:       appErrors.ErrorTypeInternal,
		Code:       appErrors.ErrorCode(strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))),
		Message:    message,
		StatusCode: status,
	})
}

func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *appErrors.AppError) {
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleError writes err as an AppError response. Anything that is not an
// AppError is logged with its cause and reported as a generic 500.
func (h *BaseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.From(r.Context())

	if appErr, ok := appErrors.IsAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.Error("request failed", "code", appErr.Code, "error", err)
		}
		h.WriteAppError(w, appErr)
		return
	}

	log.Error("unhandled error", "error", err)
	h.WriteAppError(w, appErrors.NewInternalError("Internal server error", err))
}

// DecodeJSON reads a single JSON object from the request body into dst.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) *appErrors.AppError {
	if r.Body == nil {
		return appErrors.NewValidationError("Request body is required", appErrors.ErrCodeInvalidBody)
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return appErrors.NewValidationError("Request body is required", appErrors.ErrCodeInvalidBody)
		}
		return appErrors.NewValidationError("Invalid request body", appErrors.ErrCodeInvalidBody)
	}
	return nil
}

// ParseIDParam reads a positive int64 chi URL parameter.
func (h *BaseHandler) ParseIDParam(r *http.Request, name string) (int64, *appErrors.AppError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.NewValidationFieldError(name, "invalid "+name, appErrors.ErrCodeInvalidID)
	}
	return id, nil
}

func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}
