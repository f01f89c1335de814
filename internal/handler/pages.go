// Package handler implements the page views and the registration
// endpoint. Each page derives its state purely from the data-access
// results: a present error renders the failure panel, an empty
// registrations list renders the empty state, anything else renders the
// populated content. Pages never retry automatically.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventexplorer/eventexplorer-go/internal/catalog"
	"github.com/eventexplorer/eventexplorer-go/internal/middleware"
	"github.com/eventexplorer/eventexplorer-go/internal/model"
	"github.com/eventexplorer/eventexplorer-go/internal/store"
)

// PageHandler serves the browsing pages.
type PageHandler struct {
	store    *store.Store
	renderer *Renderer
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(st *store.Store, rn *Renderer) *PageHandler {
	return &PageHandler{store: st, renderer: rn}
}

func (h *PageHandler) nav(r *http.Request) navData {
	return navData{
		Path: r.URL.Path,
		User: middleware.UserFromContext(r.Context()),
	}
}

type homeData struct {
	Nav navData
}

// HandleHome handles GET / requests.
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusOK, "home", homeData{Nav: h.nav(r)})
}

type eventsData struct {
	Nav    navData
	Events []model.Event
	Failed bool
}

// HandleEvents handles GET /events requests.
func (h *PageHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListEvents(r.Context())
	if err != nil {
		slog.Warn("event listing failed", "error", err)
		h.renderer.render(w, http.StatusBadGateway, "events", eventsData{Nav: h.nav(r), Failed: true})
		return
	}

	h.renderer.render(w, http.StatusOK, "events", eventsData{Nav: h.nav(r), Events: events})
}

type eventDetailData struct {
	Nav        navData
	Event      model.Event
	Registered bool
	User       *model.User
}

// HandleEventDetail handles GET /event/{id} requests. A failed detail
// fetch renders the not-found panel, mirroring the upstream source
// dropping an event that a registration may still reference.
func (h *PageHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user := middleware.UserFromContext(r.Context())

	event, err := h.store.GetEvent(r.Context(), id)
	if err != nil {
		var netErr *catalog.NetworkError
		if !errors.As(err, &netErr) && !errors.Is(err, catalog.ErrEmptyEventID) {
			slog.Warn("event detail fetch failed", "id", id, "error", err)
		}
		h.renderer.render(w, http.StatusNotFound, "event_not_found", homeData{Nav: h.nav(r)})
		return
	}

	registered, err := h.store.IsRegistered(r.Context(), user, id)
	if err != nil {
		// Surface the registration panel in its unregistered form; the
		// mutation path reports its own failures.
		slog.Warn("registration status check failed", "id", id, "error", err)
	}

	h.renderer.render(w, http.StatusOK, "event_detail", eventDetailData{
		Nav:        h.nav(r),
		Event:      event,
		Registered: registered,
		User:       user,
	})
}

type profileData struct {
	Nav           navData
	User          *model.User
	Registrations []model.RegisteredEvent
	Failed        bool
	SignOutFailed bool
}

// HandleProfile handles GET /profile requests. Without a session it
// redirects to /auth.
func (h *PageHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}

	regs, err := h.store.ListMyRegistrations(r.Context(), user)
	data := profileData{
		Nav:           h.nav(r),
		User:          user,
		Registrations: regs,
		SignOutFailed: r.URL.Query().Get("signout") == "failed",
	}
	status := http.StatusOK
	if err != nil {
		slog.Warn("registration listing failed", "user", user.ID, "error", err)
		data.Failed = true
		status = http.StatusBadGateway
	}

	h.renderer.render(w, status, "profile", data)
}
