package auth

import (
	"context"
	"net/http"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/transport"
	"github.com/frahmantamala/rti-filing/internal/user"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto user.RegisterDTO) (*AuthResponse, error)
	Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error)
	ValidateAccessToken(token string) (*Claims, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto user.RegisterDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// AuthMiddleware resolves the bearer token into the request's CurrentUser.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, appErrors.NewUnauthorizedError("Missing authorization token", appErrors.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			logger.From(r.Context()).Warn("auth middleware: token rejected", "error", err)
			h.HandleError(w, r, err)
			return
		}

		ctx := appErrors.ContextWithUser(r.Context(), claims.CurrentUser())
		ctx = logger.With(ctx, "user_id", claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after AuthMiddleware.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, ok := appErrors.UserFromContext(r.Context())
		if !ok {
			h.WriteAppError(w, appErrors.ErrInvalidToken)
			return
		}
		if !current.IsAdmin() {
			logger.From(r.Context()).Warn("admin route denied", "user_id", current.ID, "path", r.URL.Path)
			h.WriteAppError(w, appErrors.ErrAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OptionalAuth attaches the caller when a valid bearer token is present and
// lets anonymous requests through unchanged.
func (h *Handler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			logger.From(r.Context()).Debug("optional auth: ignoring invalid token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		ctx := appErrors.ContextWithUser(r.Context(), claims.CurrentUser())
		ctx = logger.With(ctx, "user_id", claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
