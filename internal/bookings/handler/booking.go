package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"facilitybook/internal/bookings/service"
	apperrors "facilitybook/pkg/errors"
	httputil "facilitybook/pkg/http"
	"facilitybook/pkg/logger"
	"facilitybook/pkg/middleware"
	"facilitybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	loc     *time.Location
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, loc *time.Location, log *logger.Logger) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{
		service: service,
		loc:     loc,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Create(r.Context(), middleware.ActorFromContext(r.Context()), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), middleware.ActorFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Edit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Edit", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Edit(r.Context(), middleware.ActorFromContext(r.Context()), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Edit", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Edit", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ReasonRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, "Cancel", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Cancel(r.Context(), middleware.ActorFromContext(r.Context()), ps.ByName("id"), req.Reason)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListApprovals(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListApprovals", err)
		return
	}

	bookings, total, err := h.service.ListApprovals(r.Context(), middleware.ActorFromContext(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, "ListApprovals", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListApprovals", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Approve(r.Context(), middleware.ActorFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Approve", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Approve", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ReasonRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, "Reject", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Reject(r.Context(), middleware.ActorFromContext(r.Context()), ps.ByName("id"), req.Reason)
	if err != nil {
		h.writeError(w, "Reject", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Reject", "operation", "WriteSuccess", "error", err)
	}
}

// Calendar serves ?view=month|week&date=YYYY-MM-DD. A missing date means today
// in the configured timezone.
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	reference, err := httputil.ExtractDate(r, "date", h.loc, time.Time{})
	if err != nil {
		h.writeError(w, "Calendar", err)
		return
	}

	view := model.CalendarView(r.URL.Query().Get("view"))
	calendar, err := h.service.GetCalendar(r.Context(), view, reference)
	if err != nil {
		h.writeError(w, "Calendar", err)
		return
	}

	if err := httputil.WriteSuccess(w, calendar); err != nil {
		h.log.Error("failed to write success response", "handler", "Calendar", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Facilities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facilities, err := h.service.ListFacilities(r.Context())
	if err != nil {
		h.writeError(w, "Facilities", err)
		return
	}

	if err := httputil.WriteSuccess(w, facilities); err != nil {
		h.log.Error("failed to write success response", "handler", "Facilities", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// decodeOptional accepts an empty body as the zero value.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/calendar", h.Calendar)
	router.GET("/api/v1/facilities", h.Facilities)

	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id", h.Edit)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)

	router.GET("/api/v1/approvals", h.ListApprovals)
	router.POST("/api/v1/approvals/:id/approve", h.Approve)
	router.POST("/api/v1/approvals/:id/reject", h.Reject)
}
