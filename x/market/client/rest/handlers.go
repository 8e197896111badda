package rest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cosmos/cosmos-sdk/types/query"
	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// ClientIDHeader identifies the caller for per-client query rate limiting.
const ClientIDHeader = "X-Client-Id"

// Handler serves the market queries over HTTP
type Handler struct {
	queryServer types.QueryServer
	ctxProvider func() context.Context
}

// NewHandler creates a new HTTP handler over qs. ctxProvider returns the
// context queries read state through.
func NewHandler(qs types.QueryServer, ctxProvider func() context.Context) *Handler {
	return &Handler{
		queryServer: qs,
		ctxProvider: ctxProvider,
	}
}

// RegisterRoutes registers all market query routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/market/v1/params", h.handleParams).Methods("GET")

	// Auctions
	r.HandleFunc("/market/v1/auctions/active", h.handleActiveAuctions).Methods("GET")
	r.HandleFunc("/market/v1/auctions/{id:[0-9]+}", h.handleAuction).Methods("GET")
	r.HandleFunc("/market/v1/auctions/{id:[0-9]+}/bids", h.handleBids).Methods("GET")

	// Tasks
	r.HandleFunc("/market/v1/tasks/{id:[0-9]+}", h.handleTask).Methods("GET")
	r.HandleFunc("/market/v1/tasks/{id:[0-9]+}/state", h.handleTaskState).Methods("GET")
	r.HandleFunc("/market/v1/tasks/{id:[0-9]+}/activation", h.handleActivationTime).Methods("GET")
	r.HandleFunc("/market/v1/tasks/{id:[0-9]+}/payment", h.handlePayment).Methods("GET")
	r.HandleFunc("/market/v1/tasks/{id:[0-9]+}/payment/state", h.handlePaymentState).Methods("GET")
	r.HandleFunc("/market/v1/tasks/{id:[0-9]+}/escrow", h.handleEscrow).Methods("GET")

	// Providers
	r.HandleFunc("/market/v1/providers/{address}/performance", h.handlePerformance).Methods("GET")

	r.HandleFunc("/market/v1/health", h.handleHealth).Methods("GET")
}

func (h *Handler) handleParams(w http.ResponseWriter, r *http.Request) {
	resp, err := h.queryServer.Params(h.queryContext(r), &types.QueryParamsRequest{})
	h.respond(w, resp, err)
}

func (h *Handler) handleActiveAuctions(w http.ResponseWriter, r *http.Request) {
	page := &query.PageRequest{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		page.Limit = limit
	}
	if raw := r.URL.Query().Get("key"); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid page key")
			return
		}
		page.Key = key
	}

	resp, err := h.queryServer.ActiveAuctions(h.queryContext(r), &types.QueryActiveAuctionsRequest{Pagination: page})
	h.respond(w, resp, err)
}

func (h *Handler) handleAuction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.queryServer.Auction(h.queryContext(r), &types.QueryAuctionRequest{AuctionID: id})
	h.respond(w, resp, err)
}

func (h *Handler) handleBids(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.queryServer.Bids(h.queryContext(r), &types.QueryBidsRequest{AuctionID: id})
	h.respond(w, resp, err)
}

func (h *Handler) handleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.queryServer.Task(h.queryContext(r), &types.QueryTaskRequest{TaskID: id})
	h.respond(w, resp, err)
}

func (h *Handler) handleTaskState(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.queryServer.TaskState(h.queryContext(r), &types.QueryTaskStateRequest{TaskID: id})
	h.respond(w, resp, err)
}

func (h *Handler) handleActivationTime(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.queryServer.ActivationTime(h.queryContext(r), &types.QueryActivationTimeRequest{TaskID: id})
	h.respond(w, resp, err)
}

func (h *Handler) handlePaymentState(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.queryServer.PaymentState(h.queryContext(r), &types.QueryPaymentStateRequest{TaskID: id})
	h.respond(w, resp, err)
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.queryServer.Payment(h.queryContext(r), &types.QueryPaymentRequest{TaskID: id})
	h.respond(w, resp, err)
}

func (h *Handler) handleEscrow(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.queryServer.Escrow(h.queryContext(r), &types.QueryEscrowRequest{TaskID: id})
	h.respond(w, resp, err)
}

func (h *Handler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	resp, err := h.queryServer.Performance(h.queryContext(r), &types.QueryPerformanceRequest{Provider: address})
	h.respond(w, resp, err)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Helper methods

// queryContext attaches the caller's identity for the query rate limiter.
func (h *Handler) queryContext(r *http.Request) context.Context {
	clientID := r.Header.Get(ClientIDHeader)
	if clientID == "" {
		clientID = r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			clientID = host
		}
	}
	return metadata.NewIncomingContext(h.ctxProvider(), metadata.Pairs("x-client-id", clientID))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, resp interface{}, err error) {
	if err != nil {
		h.writeError(w, httpStatus(err), status.Convert(err).Message())
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

// httpStatus maps a query error onto an HTTP status code.
func httpStatus(err error) int {
	switch status.Code(err) {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
