package directory

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"clinic-scheduling/internal/auth"
	"clinic-scheduling/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type httpHandler struct {
	service Service
	logger  *log.Logger
}

// Setup setups the routes handled by the directory context.
func Setup(router *chi.Mux, logger *log.Logger, authorizer auth.Authorizer, service Service) {
	handler := &httpHandler{logger: logger, service: service}

	// protected routes, any authenticated staff member
	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Get("/api/v1/patients", handler.SearchPatients)
		group.Get("/api/v1/therapists", handler.ListTherapists)
	})
}

func (h httpHandler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("name")
	patients, err := h.service.SearchPatients(r.Context(), term)
	if err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(patients)
}

func (h httpHandler) ListTherapists(w http.ResponseWriter, r *http.Request) {
	therapists, err := h.service.ListTherapists(r.Context())
	if err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(therapists)
}
