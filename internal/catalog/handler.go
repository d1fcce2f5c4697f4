package catalog

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/rti-filing/internal/transport"
)

type ServiceAPI interface {
	ListServices(ctx context.Context, includeInactive bool) ([]*FilingService, error)
	ResolveService(ctx context.Context, slugOrID string) (*FilingService, error)
	CreateService(ctx context.Context, dto ServiceDTO) (*FilingService, error)
	UpdateService(ctx context.Context, id int64, dto ServiceDTO) (*FilingService, error)
	DeleteService(ctx context.Context, id int64) error

	ListStates(ctx context.Context, includeInactive bool) ([]*State, error)
	ResolveState(ctx context.Context, slugOrID string) (*State, error)
	CreateState(ctx context.Context, dto StateDTO) (*State, error)
	UpdateState(ctx context.Context, id int64, dto StateDTO) (*State, error)
	DeleteState(ctx context.Context, id int64) error
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

func (h *Handler) GetServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Service.ListServices(r.Context(), false)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	resp := ServicesResponse{Services: make([]ServiceResponse, 0, len(services))}
	for _, s := range services {
		resp.Services = append(resp.Services, s.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.Service.ResolveService(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, svc.ToResponse())
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var dto ServiceDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	svc, err := h.Service.CreateService(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, svc.ToResponse())
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto ServiceDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	svc, err := h.Service.UpdateService(r.Context(), id, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, svc.ToResponse())
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.DeleteService(r.Context(), id); err != nil {
		h.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.Service.ListStates(r.Context(), false)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	resp := StatesResponse{States: make([]StateResponse, 0, len(states))}
	for _, s := range states {
		resp.States = append(resp.States, s.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.ResolveState(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, st.ToResponse())
}

func (h *Handler) CreateState(w http.ResponseWriter, r *http.Request) {
	var dto StateDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	st, err := h.Service.CreateState(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, st.ToResponse())
}

func (h *Handler) UpdateState(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto StateDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	st, err := h.Service.UpdateState(r.Context(), id, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, st.ToResponse())
}

func (h *Handler) DeleteState(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.DeleteState(r.Context(), id); err != nil {
		h.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
