package lead

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	"github.com/frahmantamala/rti-filing/internal/transport"
)

type ServiceAPI interface {
	CreateConsultation(ctx context.Context, dto ConsultationDTO) (*Consultation, error)
	ListConsultations(ctx context.Context, filter Filter, page pagination.Params) ([]*Consultation, int64, error)
	GetConsultation(ctx context.Context, id int64) (*Consultation, error)
	UpdateConsultationStatus(ctx context.Context, id int64, status string) (*Consultation, error)
	DeleteConsultation(ctx context.Context, id int64) error

	CreateCallback(ctx context.Context, dto CallbackDTO) (*CallbackRequest, error)
	ListCallbacks(ctx context.Context, filter Filter, page pagination.Params) ([]*CallbackRequest, int64, error)
	GetCallback(ctx context.Context, id int64) (*CallbackRequest, error)
	UpdateCallbackStatus(ctx context.Context, id int64, status string) (*CallbackRequest, error)
	DeleteCallback(ctx context.Context, id int64) error

	Subscribe(ctx context.Context, dto NewsletterDTO) (*NewsletterSubscription, error)
	Unsubscribe(ctx context.Context, dto NewsletterDTO) error
	ListSubscriptions(ctx context.Context, filter Filter, page pagination.Params) ([]*NewsletterSubscription, int64, error)
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

func (h *Handler) CreateConsultation(w http.ResponseWriter, r *http.Request) {
	var dto ConsultationDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.CreateConsultation(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, CreatedResponse{
		ID:      c.ID,
		Message: "Consultation request received. Our team will contact you shortly.",
	})
}

func (h *Handler) ListConsultations(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	items, total, err := h.Service.ListConsultations(r.Context(), Filter{Status: r.URL.Query().Get("status")}, page)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pagination.NewPage(items, page, total))
}

func (h *Handler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.GetConsultation(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateConsultationStatus(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto StatusDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.UpdateConsultationStatus(r.Context(), id, dto.Status)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteConsultation(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.DeleteConsultation(r.Context(), id); err != nil {
		h.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateCallback(w http.ResponseWriter, r *http.Request) {
	var dto CallbackDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.CreateCallback(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, CreatedResponse{
		ID:      c.ID,
		Message: "Callback request received. We will call you back soon.",
	})
}

func (h *Handler) ListCallbacks(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	items, total, err := h.Service.ListCallbacks(r.Context(), Filter{Status: r.URL.Query().Get("status")}, page)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pagination.NewPage(items, page, total))
}

func (h *Handler) GetCallback(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.GetCallback(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCallbackStatus(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto StatusDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.UpdateCallbackStatus(r.Context(), id, dto.Status)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCallback(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.ParseIDParam(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.DeleteCallback(r.Context(), id); err != nil {
		h.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var dto NewsletterDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	sub, err := h.Service.Subscribe(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, CreatedResponse{
		ID:      sub.ID,
		Message: "Subscribed to the newsletter.",
	})
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var dto NewsletterDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.Unsubscribe(r.Context(), dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	items, total, err := h.Service.ListSubscriptions(r.Context(), Filter{Status: r.URL.Query().Get("status")}, page)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pagination.NewPage(items, page, total))
}
