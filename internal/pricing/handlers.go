package pricing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ovenhouse/backend-pizzeria/internal/cache"
	"github.com/ovenhouse/backend-pizzeria/internal/common"
	"github.com/ovenhouse/backend-pizzeria/internal/discount"
)

// Handler exposes the pricing operations over HTTP.
type Handler struct {
	service   *Service
	discounts discount.Provider
	logger    zerolog.Logger
}

// HandlerConfig groups Handler dependencies.
type HandlerConfig struct {
	Service   *Service
	Discounts discount.Provider
	Logger    zerolog.Logger
}

// NewHandler constructs a Handler. A nil discount provider means no
// discount is applied when the request omits one.
func NewHandler(cfg HandlerConfig) *Handler {
	discounts := cfg.Discounts
	if discounts == nil {
		discounts = discount.None{}
	}
	return &Handler{service: cfg.Service, discounts: discounts, logger: cfg.Logger}
}

type priceResponse struct {
	Fingerprint string    `json:"fingerprint"`
	Breakdown   Breakdown `json:"breakdown"`
}

// Price computes the breakdown for one configuration.
// POST /api/v1/price
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	var cfg Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	breakdown, err := h.service.CalculatePrice(r.Context(), cfg)
	if err != nil {
		h.renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": priceResponse{Fingerprint: Fingerprint(cfg), Breakdown: breakdown},
	})
}

type batchRequest struct {
	Configs []Configuration `json:"configs"`
}

// Batch computes breakdowns for several configurations.
// POST /api/v1/price/batch
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	if len(req.Configs) == 0 {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "configs must not be empty", nil)
		return
	}
	breakdowns, err := h.service.CalculateBatch(r.Context(), req.Configs)
	if err != nil {
		h.renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": breakdowns})
}

type orderTotalRequest struct {
	OrderID     string           `json:"orderId,omitempty"`
	Breakdowns  []Breakdown      `json:"breakdowns"`
	Discount    *decimal.Decimal `json:"discount,omitempty"`
	DeliveryFee decimal.Decimal  `json:"deliveryFee"`
}

// OrderTotal aggregates breakdowns into an order total. When the request
// omits the discount amount the configured discount provider supplies it.
// POST /api/v1/orders/total
func (h *Handler) OrderTotal(w http.ResponseWriter, r *http.Request) {
	var req orderTotalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	disc := decimal.Zero
	if req.Discount != nil {
		disc = *req.Discount
	} else {
		subtotal := decimal.Zero
		for _, b := range req.Breakdowns {
			subtotal = subtotal.Add(b.Subtotal)
		}
		orderID := req.OrderID
		if orderID == "" {
			orderID = uuid.NewString()
		}
		amount, err := h.discounts.Discount(r.Context(), discount.OrderContext{OrderID: orderID, Subtotal: subtotal})
		if err != nil {
			h.renderError(w, err)
			return
		}
		disc = amount
	}
	total := h.service.AggregateOrder(req.Breakdowns, disc, req.DeliveryFee)
	common.JSON(w, http.StatusOK, map[string]any{"data": total})
}

// Invalidate drops all cached breakdowns.
// POST /api/v1/admin/pricing/invalidate
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.InvalidatePricing()
	if err != nil {
		h.renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]int{"removed": removed}})
}

// Warmup populates the catalog namespaces.
// POST /api/v1/admin/catalog/warmup
func (h *Handler) Warmup(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Warmup(r.Context()); err != nil {
		h.renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": "warmed"})
}

// CacheStats reports the shape of one cache namespace.
// GET /api/v1/admin/cache/{namespace}/stats
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	stats, err := h.service.CacheStats(namespace)
	if err != nil {
		h.renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": stats})
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	if errors.Is(err, cache.ErrNamespaceNotFound) {
		common.JSONError(w, http.StatusNotFound, common.CodeNamespaceNotFound, err.Error(), nil)
		return
	}
	if !common.IsAppError(err) {
		h.logger.Error().Err(err).Msg("pricing_handler_error")
	}
	common.JSONAppError(w, err)
}
