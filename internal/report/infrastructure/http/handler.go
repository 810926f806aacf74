package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopforge/commerce/internal/report/application"
	"github.com/shopforge/commerce/pkg/auth"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.With(auth.RequireAdmin).Get("/sales", h.sales)

	return r
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	period := application.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = application.Daily
	}

	report, err := h.service.Sales(r.Context(), period)
	if err != nil {
		h.log.Error("sales report failed", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Something went wrong"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(report)
}
