package devserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/skipit/redemption/internal/domain/order"
	"github.com/skipit/redemption/internal/orderservice"
	"github.com/skipit/redemption/internal/orderservice/memory"
)

// Handler serves the order service HTTP contract over the in-memory service.
// Authentication is dev-grade: the bearer token is taken verbatim as the
// user id.
type Handler struct {
	svc *memory.Service
}

// NewHandler builds a Handler over the given service.
func NewHandler(svc *memory.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the order routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /orders/my-history", h.myHistory)
	mux.HandleFunc("POST /orders/{$}", h.createOrder)
	mux.HandleFunc("GET /orders/{id}", h.orderByID)
	mux.HandleFunc("POST /orders/{id}/claim", h.claim)
}

// userID extracts the dev-mode user identity from the Authorization header.
func userID(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *Handler) myHistory(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	orders := h.svc.OrdersForUser(user)
	dtos := make([]orderservice.OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = orderservice.OrderToDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req orderservice.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		req.UserID = user
	}

	o, err := h.svc.CreateOrder(req.UserID, req.EventID, orderservice.ClaimItemsFromDTO(req.Items))
	if err != nil {
		switch {
		case errors.Is(err, memory.ErrEventNotFound),
			errors.Is(err, memory.ErrVariationNotFound):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, order.ErrEmptyClaim):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			var iq *order.InvalidClaimQuantityError
			if errors.As(err, &iq) {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, orderservice.OrderToDTO(o))
}

func (h *Handler) orderByID(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.OrderByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, orderservice.OrderToDTO(o))
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request) {
	var req orderservice.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.svc.Claim(r.PathValue("id"), orderservice.ClaimItemsFromDTO(req.Items))
	if err != nil {
		writeError(w, claimStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orderservice.OrderToDTO(o))
}

// claimStatus maps claim arbitration errors to response statuses. Over-claims
// are conflicts: the request was well-formed but lost against the counters.
func claimStatus(err error) int {
	var (
		exceeds *order.ClaimExceedsRemainingError
		unknown *order.UnknownVariationError
		invalid *order.InvalidClaimQuantityError
	)
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.As(err, &exceeds):
		return http.StatusConflict
	case errors.As(err, &unknown), errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrEmptyClaim):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, orderservice.ErrorResponse{Code: status, Message: msg})
}
