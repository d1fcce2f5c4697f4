package application

import (
	"context"
	"net/http"
	"strconv"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	"github.com/frahmantamala/rti-filing/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter, page pagination.Params) ([]*Application, int64, error)
	ListMine(ctx context.Context, userID int64, page pagination.Params) ([]*Application, int64, error)
	Get(ctx context.Context, id int64) (*Application, error)
	UpdateStatus(ctx context.Context, id int64, dto UpdateStatusDTO) (*Application, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{Status: q.Get("status")}
	for _, p := range []struct {
		name string
		dst  *int64
	}{
		{"state_id", &filter.StateID},
		{"service_id", &filter.ServiceID},
		{"user_id", &filter.UserID},
	} {
		name, dst := p.name, p.dst
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			h.WriteAppError(w, appErrors.NewValidationFieldError(name, "invalid "+name, appErrors.ErrCodeInvalidID))
			return
		}
		*dst = v
	}

	page := pagination.FromRequest(r)
	apps, total, err := h.Service.List(r.Context(), filter, page)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pagination.NewPage(ToResponses(apps), page, total))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := appErrors.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, appErrors.ErrInvalidToken)
		return
	}

	page := pagination.FromRequest(r)
	apps, total, err := h.Service.ListMine(r.Context(), user.ID, page)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pagination.NewPage(ToResponses(apps), page, total))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	app, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, app.ToResponse())
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto UpdateStatusDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	app, err := h.Service.UpdateStatus(r.Context(), id, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, app.ToResponse())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
