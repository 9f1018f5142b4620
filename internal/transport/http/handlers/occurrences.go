package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/communityos/occurrence-service/internal/application/occurrence"
	"github.com/communityos/occurrence-service/internal/domain"
	"github.com/communityos/occurrence-service/internal/transport/http/dto"
	"github.com/communityos/occurrence-service/internal/transport/http/middleware"
	"github.com/communityos/occurrence-service/internal/transport/http/response"
	"github.com/communityos/occurrence-service/internal/transport/http/validate"
)

type Clock interface{ Now() time.Time }

type OccurrencesHandler struct {
	svc   *occurrence.Service
	clock Clock
}

func NewOccurrencesHandler(svc *occurrence.Service, clock Clock) *OccurrencesHandler {
	return &OccurrencesHandler{svc: svc, clock: clock}
}

// Public
func (h *OccurrencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "occurrence_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"occurrence_id": "must be uuid",
		}))
		return
	}
	o, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	now := h.clock.Now().UTC()
	response.Data(w, http.StatusOK, dto.ToOccurrenceResp(o, now))
}

func (h *OccurrencesHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	seriesID := chi.URLParam(r, "series_id")
	if !validate.IsUUID(seriesID) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"series_id": "must be uuid",
		}))
		return
	}
	rows, err := h.svc.GetSeries(r.Context(), seriesID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	now := h.clock.Now().UTC()
	response.Data(w, http.StatusOK, dto.ToSeriesResp(seriesID, rows, now))
}

// Organizer
func (h *OccurrencesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOccurrenceReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}
	o, err := h.svc.CreateSingle(r.Context(), occurrence.CreateCmd{
		ActorID:   middleware.UserID(r),
		ActorRole: middleware.Role(r),
		Template:  req.Template(),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	now := h.clock.Now().UTC()
	response.Data(w, http.StatusCreated, dto.ToOccurrenceResp(o, now))
}

func (h *OccurrencesHandler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSeriesReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}
	spec, err := dto.ToRecurrenceSpec(req.Recurrence)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	first, err := h.svc.CreateSeries(r.Context(), occurrence.CreateSeriesCmd{
		ActorID:    middleware.UserID(r),
		ActorRole:  middleware.Role(r),
		Template:   req.Template(),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Recurrence: spec,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	now := h.clock.Now().UTC()
	response.Data(w, http.StatusCreated, dto.ToOccurrenceResp(first, now))
}

func (h *OccurrencesHandler) ConvertToSeries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "occurrence_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"occurrence_id": "must be uuid",
		}))
		return
	}
	var req dto.ConvertToSeriesReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}
	spec, err := dto.ToRecurrenceSpec(req.Recurrence)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	cmd := occurrence.ConvertCmd{
		OccurrenceID: id,
		ActorID:      middleware.UserID(r),
		ActorRole:    middleware.Role(r),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Recurrence:   spec,
		Override: occurrence.TemplateOverride{
			Title:                   req.Title,
			Description:             req.Description,
			Location:                req.Location,
			ExternalRegistrationURL: req.ExternalRegistrationURL,
			ImageURL:                req.ImageURL,
		},
	}
	if req.Visibility != nil {
		v := domain.Visibility(*req.Visibility)
		cmd.Override.Visibility = &v
	}
	if req.EventType != nil {
		et := domain.EventType(*req.EventType)
		cmd.Override.EventType = &et
	}

	first, err := h.svc.ConvertToSeries(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	now := h.clock.Now().UTC()
	response.Data(w, http.StatusOK, dto.ToOccurrenceResp(first, now))
}

func (h *OccurrencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "occurrence_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"occurrence_id": "must be uuid",
		}))
		return
	}
	var req dto.UpdateOccurrenceReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}

	cmd := occurrence.UpdateCmd{
		OccurrenceID: id,
		ActorID:      middleware.UserID(r),
		ActorRole:    middleware.Role(r),
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		ImageURL:     req.ImageURL,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	}
	if req.Visibility != nil {
		v := domain.Visibility(*req.Visibility)
		cmd.Visibility = &v
	}

	o, err := h.svc.Update(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	now := h.clock.Now().UTC()
	response.Data(w, http.StatusOK, dto.ToOccurrenceResp(o, now))
}

func (h *OccurrencesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "occurrence_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"occurrence_id": "must be uuid",
		}))
		return
	}
	if err := h.svc.Delete(r.Context(), id, middleware.UserID(r), middleware.Role(r)); err != nil {
		response.Err(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
