package scheduling

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/auth"
	"clinic-scheduling/internal/database"
	"clinic-scheduling/internal/directory"
	"clinic-scheduling/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type httpHandler struct {
	authorizer auth.Authorizer
	service    Service
	logger     *log.Logger
}

// Setup setups the routes handled by the scheduling context.
func Setup(router *chi.Mux, logger *log.Logger, authorizer auth.Authorizer, dbConn database.Connection, resolver directory.Resolver) {
	handler := &httpHandler{logger: logger, authorizer: authorizer, service: NewService(dbConn, resolver)}

	// protected routes, any authenticated staff member
	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Get("/api/v1/schedule/{therapistUUID}/{year}/{month}/{day}", handler.GetDaySchedule)
		group.Get("/api/v1/schedule/{therapistUUID}/{year}/{month}", handler.GetMonthCalendar)
		group.Get("/api/v1/appointments", handler.ListAppointments)
		group.Post("/api/v1/appointments", handler.CreateAppointment)
		group.Get("/api/v1/appointments/{appointmentUUID}", handler.GetAppointment)
		group.Post("/api/v1/appointments/{appointmentUUID}/confirm", handler.ConfirmAppointment)
		group.Post("/api/v1/appointments/{appointmentUUID}/start", handler.StartAppointment)
		group.Post("/api/v1/appointments/{appointmentUUID}/cancel", handler.CancelAppointment)
		group.Delete("/api/v1/appointments/{appointmentUUID}", handler.DeleteAppointment)
	})

	// protected routes, only for therapists
	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Use(auth.AllowedRoles(authorizer, auth.TherapistRole))
		group.Post("/api/v1/appointments/{appointmentUUID}/complete", handler.CompleteAppointment)
		group.Post("/api/v1/appointments/{appointmentUUID}/no-show", handler.MarkNoShow)
	})
}

// writeError logs the given error and answers with the status its type maps to.
func (h httpHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
	switch v := err.(type) {
	case *apierrors.APIError:
		w.WriteHeader(v.HTTPStatusCode())
		_ = json.NewEncoder(w).Encode(v)
	case *apierrors.ValidationError:
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(v)
	case *apierrors.ConflictError:
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(v)
	case *apierrors.StaleStateError:
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(v)
	case *apierrors.InvalidTransitionError:
		// a transition attempted from an incompatible state means the caller rendered
		// stale data, answer generically
		w.WriteHeader(http.StatusUnprocessableEntity)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// parseDateParameters parses the given parameters into a valid time.
func (h httpHandler) parseDateParameters(r *http.Request) (time.Time, error) {
	var zeroTime time.Time
	year := chi.URLParam(r, "year")
	month := chi.URLParam(r, "month")
	day := chi.URLParam(r, "day")
	if year == "" || month == "" || day == "" {
		return zeroTime, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidDateReference), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	date, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%s-%s", year, month, day))
	if err != nil {
		return zeroTime, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidDateReference), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	return date, nil
}

// parseMonthParameters parses the given parameters into a valid year and month.
func (h httpHandler) parseMonthParameters(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		return 0, 0, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidYearReference), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidMonthReference), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	return year, time.Month(month), nil
}

// parseUUIDParameter parses a UUID parameter into a valid UUID.
func (h httpHandler) parseUUIDParameter(parName string, r *http.Request) (uuid.UUID, error) {
	zeroUUID := uuid.UUID{}
	uuidPar := chi.URLParam(r, parName)
	if uuidPar == "" {
		return zeroUUID, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	parsedUUID, err := uuid.Parse(uuidPar)
	if err != nil {
		return zeroUUID, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	return parsedUUID, nil
}

func (h httpHandler) GetDaySchedule(w http.ResponseWriter, r *http.Request) {
	therapistUUID, err := h.parseUUIDParameter("therapistUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := h.parseDateParameters(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	slots, err := h.service.GetDaySchedule(r.Context(), therapistUUID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(slots)
}

func (h httpHandler) GetMonthCalendar(w http.ResponseWriter, r *http.Request) {
	therapistUUID, err := h.parseUUIDParameter("therapistUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	year, month, err := h.parseMonthParameters(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	days, err := h.service.GetMonthCalendar(r.Context(), therapistUUID, year, month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(days)
}

// parseListQuery parses the optional listing filters from the query string.
func (h httpHandler) parseListQuery(r *http.Request) (ListQuery, error) {
	query := ListQuery{}
	if therapist := r.URL.Query().Get("therapist"); therapist != "" {
		therapistUUID, err := uuid.Parse(therapist)
		if err != nil {
			return query, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
		}
		query.TherapistUUID = &therapistUUID
	}
	if patient := r.URL.Query().Get("patient"); patient != "" {
		patientUUID, err := uuid.Parse(patient)
		if err != nil {
			return query, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
		}
		query.PatientUUID = &patientUUID
	}
	if date := r.URL.Query().Get("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return query, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidDateReference), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
		}
		query.Day = &day
	}
	if status := r.URL.Query().Get("status"); status != "" {
		parsedStatus, err := ParseStatus(status)
		if err != nil {
			return query, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidStatusFilter), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
		}
		query.Status = &parsedStatus
	}
	return query, nil
}

func (h httpHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseListQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	appointments, err := h.service.ListAppointments(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointments)
}

func (h httpHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentUUID, err := h.parseUUIDParameter("appointmentUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	appointment, err := h.service.GetAppointment(r.Context(), appointmentUUID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	request := new(BookingRequest)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	appointment, err := h.service.CreateAppointment(r.Context(), *request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentUUID, err := h.parseUUIDParameter("appointmentUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	appointment, err := h.service.ConfirmAppointment(r.Context(), appointmentUUID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) StartAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentUUID, err := h.parseUUIDParameter("appointmentUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	appointment, err := h.service.StartAppointment(r.Context(), appointmentUUID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentUUID, err := h.parseUUIDParameter("appointmentUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// session notes are optional, an empty body completes without them
	request := new(CompletionRequest)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil && err != io.EOF {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	appointment, err := h.service.CompleteAppointment(r.Context(), appointmentUUID, *request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentUUID, err := h.parseUUIDParameter("appointmentUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	request := new(CancellationRequest)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	appointment, err := h.service.CancelAppointment(r.Context(), appointmentUUID, *request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	appointmentUUID, err := h.parseUUIDParameter("appointmentUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	appointment, err := h.service.MarkAppointmentNoShow(r.Context(), appointmentUUID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentUUID, err := h.parseUUIDParameter("appointmentUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.DeleteAppointment(r.Context(), appointmentUUID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
