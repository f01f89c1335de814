package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventexplorer/eventexplorer-go/internal/middleware"
	"github.com/eventexplorer/eventexplorer-go/internal/model"
	"github.com/eventexplorer/eventexplorer-go/internal/registry"
	"github.com/eventexplorer/eventexplorer-go/internal/store"
)

// HandleRegister handles POST /event/{id}/register requests. The page
// consumes the JSON response and surfaces failures as a transient toast;
// no cached state changes on failure and nothing is retried here.
func (h *PageHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse("sign in to register for events"))
		return
	}

	id := chi.URLParam(r, "id")
	event, err := h.store.GetEvent(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse("event not found"))
		return
	}

	err = h.store.RegisterForEvent(r.Context(), user, event)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
	case errors.Is(err, store.ErrAuthRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, registry.ErrAlreadyRegistered):
		writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
	default:
		writeJSON(w, http.StatusBadGateway, errorResponse("registration failed, please try again"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) model.ErrorResponse {
	return model.ErrorResponse{Error: msg}
}
