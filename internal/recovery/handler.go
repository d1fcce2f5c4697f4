package recovery

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	"github.com/frahmantamala/rti-filing/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter, page pagination.Params) ([]*Recovery, int64, error)
	Get(ctx context.Context, id int64) (*Recovery, error)
	MarkProcessed(ctx context.Context, id int64, dto ProcessDTO) (*Recovery, error)
	MarkFailed(ctx context.Context, id int64, dto FailDTO) (*Recovery, error)
	Reconcile(ctx context.Context, id int64) (*ReconcileResponse, error)
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
	page := pagination.FromRequest(r)
	recs, total, err := h.Service.List(r.Context(), Filter{Status: r.URL.Query().Get("status")}, page)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	out := make([]RecoveryResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, pagination.NewPage(out, page, total))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	rec, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rec.ToResponse())
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto ProcessDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	rec, err := h.Service.MarkProcessed(r.Context(), id, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rec.ToResponse())
}

func (h *Handler) Fail(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto FailDTO
	if r.ContentLength != 0 {
		if appErr := h.DecodeJSON(r, &dto); appErr != nil {
			h.WriteAppError(w, appErr)
			return
		}
	}

	rec, err := h.Service.MarkFailed(r.Context(), id, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rec.ToResponse())
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Reconcile(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
