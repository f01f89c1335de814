// Package store implements the data-access operations the pages consume:
// list events, get one event, list my registrations, check a single
// registration, and register for an event. Reads go through the shared
// query cache; the registration mutation invalidates exactly the keys it
// affects.
package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/eventexplorer/eventexplorer-go/internal/catalog"
	"github.com/eventexplorer/eventexplorer-go/internal/model"
	"github.com/eventexplorer/eventexplorer-go/internal/querycache"
	"github.com/eventexplorer/eventexplorer-go/internal/registry"
)

// ErrAuthRequired is returned when a mutation is attempted without an
// authenticated user. No network call is made in that case.
var ErrAuthRequired = errors.New("must be signed in to register")

// ErrBackendUnavailable is returned when the app started without a
// reachable hosted backend and runs browse-only.
var ErrBackendUnavailable = errors.New("hosted backend unavailable")

// Cache keys are operation name plus parameters, joined with "|".
const (
	keyEvents              = "events"
	keyEventPrefix         = "event|"
	keyRegistrationsPrefix = "registeredEvents|"
	keyIsRegisteredPrefix  = "isRegistered|"
)

// Catalog is the slice of the event-source client the store needs.
type Catalog interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id string) (model.Event, error)
}

// Registry is the slice of the hosted relation store the store needs.
type Registry interface {
	Insert(ctx context.Context, userID string, reg *model.RegisteredEvent) error
	ListByUser(ctx context.Context, userID string) ([]model.RegisteredEvent, error)
	FindByUserAndEvent(ctx context.Context, userID, eventID string) (*model.RegisteredEvent, error)
}

// Store exposes the data-access operations over the shared cache.
type Store struct {
	cache   *querycache.Cache
	catalog Catalog
	regs    Registry
}

// New creates a Store.
func New(cache *querycache.Cache, cat Catalog, regs Registry) *Store {
	return &Store{cache: cache, catalog: cat, regs: regs}
}

// ListEvents returns all events, read-through cached under one key.
func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	v, err := s.cache.Get(ctx, keyEvents, func(ctx context.Context) (any, error) {
		return s.catalog.ListEvents(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Event), nil
}

// GetEvent returns one event by id. An empty id short-circuits with
// catalog.ErrEmptyEventID before any fetch.
func (s *Store) GetEvent(ctx context.Context, id string) (model.Event, error) {
	if id == "" {
		return model.Event{}, catalog.ErrEmptyEventID
	}

	v, err := s.cache.Get(ctx, keyEventPrefix+id, func(ctx context.Context) (any, error) {
		return s.catalog.GetEvent(ctx, id)
	})
	if err != nil {
		return model.Event{}, err
	}
	return v.(model.Event), nil
}

// ListMyRegistrations returns the user's registrations, most recent
// first. A nil user yields an empty sequence, never an error or a fetch.
func (s *Store) ListMyRegistrations(ctx context.Context, user *model.User) ([]model.RegisteredEvent, error) {
	if user == nil {
		return nil, nil
	}
	if s.regs == nil {
		return nil, ErrBackendUnavailable
	}

	v, err := s.cache.Get(ctx, keyRegistrationsPrefix+user.ID, func(ctx context.Context) (any, error) {
		return s.regs.ListByUser(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.RegisteredEvent), nil
}

// IsRegistered reports whether the user is registered for the event.
// It short-circuits to false without a fetch when there is no user or
// the event id is empty, and treats the no-row case as false rather
// than an error.
func (s *Store) IsRegistered(ctx context.Context, user *model.User, eventID string) (bool, error) {
	if user == nil || eventID == "" || s.regs == nil {
		return false, nil
	}

	v, err := s.cache.Get(ctx, isRegisteredKey(user.ID, eventID), func(ctx context.Context) (any, error) {
		_, err := s.regs.FindByUserAndEvent(ctx, user.ID, eventID)
		if errors.Is(err, registry.ErrNoneRegistered) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// RegisterForEvent inserts one registration row for the user. Without an
// authenticated user it fails with ErrAuthRequired and performs no
// network call. Exactly one insert is attempted; nothing is retried. On
// success the user's registrations list and the is-registered status for
// this specific event are invalidated explicitly. The event cache is
// untouched.
func (s *Store) RegisterForEvent(ctx context.Context, user *model.User, event model.Event) error {
	if user == nil {
		return ErrAuthRequired
	}
	if s.regs == nil {
		return ErrBackendUnavailable
	}

	eventID := strconv.Itoa(event.ID)
	reg := &model.RegisteredEvent{
		EventID:          eventID,
		EventTitle:       event.Title,
		EventDescription: event.Description,
		EventImage:       event.Thumbnail,
	}

	if err := s.regs.Insert(ctx, user.ID, reg); err != nil {
		return err
	}

	s.cache.InvalidatePrefix(keyRegistrationsPrefix + user.ID)
	s.cache.Invalidate(isRegisteredKey(user.ID, eventID))
	return nil
}

// InvalidateUser drops every cached result scoped to the user. Called on
// session changes so a signed-out user's data does not linger.
func (s *Store) InvalidateUser(userID string) {
	s.cache.InvalidatePrefix(keyRegistrationsPrefix + userID)
	s.cache.InvalidatePrefix(keyIsRegisteredPrefix + userID)
}

func isRegisteredKey(userID, eventID string) string {
	return keyIsRegisteredPrefix + userID + "|" + eventID
}
