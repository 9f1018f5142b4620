package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/communityos/occurrence-service/internal/application/registration"
	"github.com/communityos/occurrence-service/internal/domain"
	"github.com/communityos/occurrence-service/internal/transport/http/dto"
	"github.com/communityos/occurrence-service/internal/transport/http/middleware"
	"github.com/communityos/occurrence-service/internal/transport/http/response"
	"github.com/communityos/occurrence-service/internal/transport/http/validate"
)

type RegistrationsHandler struct {
	svc *registration.Service
}

func NewRegistrationsHandler(svc *registration.Service) *RegistrationsHandler {
	return &RegistrationsHandler{svc: svc}
}

// Rsvp registers the caller, refreshing the row when it already exists.
func (h *RegistrationsHandler) Rsvp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "occurrence_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"occurrence_id": "must be uuid",
		}))
		return
	}
	var req dto.RsvpReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}

	reg, err := h.svc.Add(r.Context(), registration.AddCmd{
		OccurrenceID: id,
		UserID:       middleware.UserID(r),
		UserEmail:    middleware.Email(r),
		GuestCount:   req.GuestCount,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	count, err := h.svc.Count(r.Context(), id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	updated := reg.UpdatedAt
	response.Data(w, http.StatusOK, dto.RsvpStatusResp{
		Registered: true,
		GuestCount: reg.GuestCount,
		Count:      count,
		UpdatedAt:  &updated,
	})
}

func (h *RegistrationsHandler) CancelRsvp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "occurrence_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"occurrence_id": "must be uuid",
		}))
		return
	}
	// Cancel is idempotent; a missing row is still a 204.
	if _, err := h.svc.Cancel(r.Context(), id, middleware.UserID(r), middleware.Email(r)); err != nil {
		response.Err(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistrationsHandler) GetRsvp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "occurrence_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"occurrence_id": "must be uuid",
		}))
		return
	}
	reg, err := h.svc.GetStatus(r.Context(), id, middleware.UserID(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	count, err := h.svc.Count(r.Context(), id)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	resp := dto.RsvpStatusResp{Count: count}
	if reg != nil {
		updated := reg.UpdatedAt
		resp.Registered = true
		resp.GuestCount = reg.GuestCount
		resp.UpdatedAt = &updated
	}
	response.Data(w, http.StatusOK, resp)
}
