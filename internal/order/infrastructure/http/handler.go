package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopforge/commerce/internal/order/application"
	"github.com/shopforge/commerce/internal/order/domain"
	"github.com/shopforge/commerce/pkg/auth"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

type placeOrderReq struct {
	Products   []application.ItemRequest `json:"products"`
	CouponCode string                    `json:"couponCode"`
}

type orderItemResp struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderResp struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Products  []orderItemResp `json:"products"`
	Total     decimal.Decimal `json:"total"`
	Discount  decimal.Decimal `json:"discount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.placeOrder)
	r.Get("/mine", h.myOrders)
	r.With(auth.RequireAdmin).Get("/", h.listOrders)
	r.With(auth.RequireAdmin).Put("/{id}/status", h.updateStatus)

	return r
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	id, ok := auth.FromContext(ctx)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token provided")
		return
	}

	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Order must have products")
		return
	}
	for _, item := range req.Products {
		if item.ProductID == "" || item.Quantity < 1 {
			writeMessage(w, http.StatusBadRequest, "Each product needs a productId and a positive quantity")
			return
		}
	}

	o, err := h.service.PlaceOrder(ctx, id.UserID, req.Products, req.CouponCode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token provided")
		return
	}
	orders, err := h.service.ListByUser(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResps(orders))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResps(orders))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid status")
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.ClientError(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error("order request failed", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func toOrderResp(o domain.Order) orderResp {
	items := make([]orderItemResp, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResp{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
	}
	return orderResp{
		ID:        o.ID,
		UserID:    o.UserID,
		Products:  items,
		Total:     o.Total,
		Discount:  o.Discount,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

func toOrderResps(orders []domain.Order) []orderResp {
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
