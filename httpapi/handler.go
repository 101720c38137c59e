package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/classchat/classchat/auth"
	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/globals"
	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	"github.com/gorilla/mux"
)

const requestTimeout = 5 * time.Second

// Handler serves the read-only message retrieval API. It shares the store's
// pagination codec with the websocket history replay, so a page fetched here
// and a page replayed on join are interchangeable.
type Handler struct {
	cfg      *config.Config
	store    store.Store
	verifier auth.Verifier
}

func NewHandler(cfg *config.Config, st store.Store, verifier auth.Verifier) *Handler {
	return &Handler{cfg: cfg, store: st, verifier: verifier}
}

// Register mounts the API routes on the given router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/chat/messages/{roomId}", h.handleMessages).Methods(http.MethodGet)
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		globals.AppLogger.Error("could not write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// handleMessages returns one page of a room's history, newest page first,
// optionally narrowed to a case-insensitive substring search. Query
// parameters: cursor (exclusive upper message id), take (page size) and
// search. Malformed cursor or take values are rejected, they are never
// silently coerced.
func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.verifier.Verify(ctx, r.Header.Get("Authorization")); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing credentials")
		return
	}

	roomId := mux.Vars(r)["roomId"]
	query := r.URL.Query()
	search := query.Get("search")

	var cursor *int64
	if raw := query.Get("cursor"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "cursor must be an integer")
			return
		}
		cursor = &parsed
	}

	take := h.cfg.HistoryConfig.PageSize
	if search != "" {
		take = h.cfg.HistoryConfig.SearchPageSize
	}
	if raw := query.Get("take"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "take must be a positive integer")
			return
		}
		take = parsed
	}

	if search != "" {
		page, err := h.store.SearchMessages(ctx, roomId, search, cursor, take)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	page, err := h.store.ListMessages(ctx, roomId, cursor, take)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, types.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	globals.AppLogger.Error("could not load messages", "error", err)
	writeError(w, http.StatusInternalServerError, "could not load messages")
}
