package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shopforge/commerce/internal/coupon/application"
	"github.com/shopforge/commerce/internal/coupon/domain"
	"github.com/shopforge/commerce/pkg/auth"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

type couponReq struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Active        bool            `json:"active"`
	ExpiresAt     *time.Time      `json:"expiresAt"`
	UsageLimit    int             `json:"usageLimit"`
}

type couponResp struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Active        bool            `json:"active"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
	UsageLimit    int             `json:"usageLimit"`
	UsedCount     int             `json:"usedCount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/{code}", h.getByCode)
	r.With(auth.RequireAdmin).Get("/", h.list)
	r.With(auth.RequireAdmin).Post("/", h.create)
	r.With(auth.RequireAdmin).Put("/{id}", h.update)
	r.With(auth.RequireAdmin).Delete("/{id}", h.delete)

	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req couponReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c, err := h.service.Create(r.Context(), toInput(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResp(c))
}

func (h *Handler) getByCode(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, domain.ErrCouponNotFound) {
			writeMessage(w, http.StatusNotFound, "Coupon not found or inactive")
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]couponResp, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, toResp(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req couponReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), toInput(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(c))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Coupon deleted")
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCouponNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrInvalidCouponInput):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("coupon request failed", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func toInput(req couponReq) application.CouponInput {
	return application.CouponInput{
		Code:          req.Code,
		DiscountType:  domain.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		Active:        req.Active,
		ExpiresAt:     req.ExpiresAt,
		UsageLimit:    req.UsageLimit,
	}
}

func toResp(c domain.Coupon) couponResp {
	return couponResp{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue,
		Active:        c.Active,
		ExpiresAt:     c.ExpiresAt,
		UsageLimit:    c.UsageLimit,
		UsedCount:     c.UsedCount,
		CreatedAt:     c.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
