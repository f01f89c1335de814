package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventexplorer/eventexplorer-go/internal/catalog"
	"github.com/eventexplorer/eventexplorer-go/internal/model"
	"github.com/eventexplorer/eventexplorer-go/internal/querycache"
	"github.com/eventexplorer/eventexplorer-go/internal/registry"
)

type fakeCatalog struct {
	listCalls int
	getCalls  int
	events    []model.Event
	err       error
}

func (f *fakeCatalog) ListEvents(ctx context.Context) ([]model.Event, error) {
	f.listCalls++
	return f.events, f.err
}

func (f *fakeCatalog) GetEvent(ctx context.Context, id string) (model.Event, error) {
	f.getCalls++
	if f.err != nil {
		return model.Event{}, f.err
	}
	if len(f.events) == 0 {
		return model.Event{}, &catalog.NetworkError{StatusCode: 404}
	}
	return f.events[0], nil
}

type fakeRegistry struct {
	rows      []model.RegisteredEvent
	inserts   int
	insertErr error
	queryErr  error
}

func (f *fakeRegistry) Insert(ctx context.Context, userID string, reg *model.RegisteredEvent) error {
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	reg.ID = "row-1"
	reg.RegisteredAt = time.Now()
	f.rows = append([]model.RegisteredEvent{*reg}, f.rows...)
	return nil
}

func (f *fakeRegistry) ListByUser(ctx context.Context, userID string) ([]model.RegisteredEvent, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeRegistry) FindByUserAndEvent(ctx context.Context, userID, eventID string) (*model.RegisteredEvent, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	for i := range f.rows {
		if f.rows[i].EventID == eventID {
			return &f.rows[i], nil
		}
	}
	return nil, registry.ErrNoneRegistered
}

func newTestStore(cat Catalog, regs Registry) *Store {
	return New(querycache.New(time.Minute, nil), cat, regs)
}

var testUser = &model.User{ID: "u1", Email: "u1@example.com"}

func TestListEventsReadsThroughCache(t *testing.T) {
	cat := &fakeCatalog{events: []model.Event{{ID: 7, Title: "Demo"}}}
	st := newTestStore(cat, &fakeRegistry{})

	for i := 0; i < 3; i++ {
		events, err := st.ListEvents(context.Background())
		if err != nil {
			t.Fatalf("ListEvents() unexpected error: %v", err)
		}
		if len(events) != 1 || events[0].Title != "Demo" {
			t.Fatalf("unexpected events %+v", events)
		}
	}

	if cat.listCalls != 1 {
		t.Errorf("catalog fetched %d times, want 1", cat.listCalls)
	}
}

func TestGetEventEmptyIDNoFetch(t *testing.T) {
	cat := &fakeCatalog{}
	st := newTestStore(cat, &fakeRegistry{})

	_, err := st.GetEvent(context.Background(), "")
	if !errors.Is(err, catalog.ErrEmptyEventID) {
		t.Fatalf("expected ErrEmptyEventID, got %v", err)
	}
	if cat.getCalls != 0 {
		t.Errorf("expected no fetch, got %d", cat.getCalls)
	}
}

func TestListMyRegistrationsNilUser(t *testing.T) {
	regs := &fakeRegistry{queryErr: errors.New("should not be called")}
	st := newTestStore(&fakeCatalog{}, regs)

	rows, err := st.ListMyRegistrations(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected empty sequence, not error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty sequence, got %d rows", len(rows))
	}
}

func TestIsRegisteredNoRowIsFalse(t *testing.T) {
	st := newTestStore(&fakeCatalog{}, &fakeRegistry{})

	registered, err := st.IsRegistered(context.Background(), testUser, "7")
	if err != nil {
		t.Fatalf("no-row case must not be an error: %v", err)
	}
	if registered {
		t.Error("expected false for a user with no matching rows")
	}
}

func TestIsRegisteredMatchingRowIsTrue(t *testing.T) {
	regs := &fakeRegistry{rows: []model.RegisteredEvent{{ID: "r1", EventID: "7"}}}
	st := newTestStore(&fakeCatalog{}, regs)

	registered, err := st.IsRegistered(context.Background(), testUser, "7")
	if err != nil {
		t.Fatalf("IsRegistered() unexpected error: %v", err)
	}
	if !registered {
		t.Error("expected true for exactly one matching row")
	}
}

func TestIsRegisteredShortCircuits(t *testing.T) {
	regs := &fakeRegistry{queryErr: errors.New("should not be called")}
	st := newTestStore(&fakeCatalog{}, regs)

	if got, err := st.IsRegistered(context.Background(), nil, "7"); err != nil || got {
		t.Errorf("nil user: got %v, %v; want false, nil", got, err)
	}
	if got, err := st.IsRegistered(context.Background(), testUser, ""); err != nil || got {
		t.Errorf("empty id: got %v, %v; want false, nil", got, err)
	}
}

func TestIsRegisteredPropagatesBackendError(t *testing.T) {
	backendErr := &registry.BackendError{Op: "find registration", Err: errors.New("down")}
	regs := &fakeRegistry{queryErr: backendErr}
	st := newTestStore(&fakeCatalog{}, regs)

	_, err := st.IsRegistered(context.Background(), testUser, "7")
	var be *registry.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
}

func TestRegisterUnauthenticatedNoInsert(t *testing.T) {
	regs := &fakeRegistry{}
	st := newTestStore(&fakeCatalog{}, regs)

	err := st.RegisterForEvent(context.Background(), nil, model.Event{ID: 7})
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if regs.inserts != 0 {
		t.Errorf("expected no insert attempt, got %d", regs.inserts)
	}
}

func TestRegisterAttemptsExactlyOneInsert(t *testing.T) {
	regs := &fakeRegistry{insertErr: &registry.BackendError{Op: "insert registration", Err: errors.New("down")}}
	st := newTestStore(&fakeCatalog{}, regs)

	if err := st.RegisterForEvent(context.Background(), testUser, model.Event{ID: 7}); err == nil {
		t.Fatal("expected insert failure to propagate")
	}
	if regs.inserts != 1 {
		t.Errorf("expected exactly one insert attempt, got %d", regs.inserts)
	}
}

func TestRegisterInvalidatesCachedReads(t *testing.T) {
	regs := &fakeRegistry{}
	st := newTestStore(&fakeCatalog{}, regs)
	ctx := context.Background()

	// Prime both caches with the pre-registration state.
	if rows, _ := st.ListMyRegistrations(ctx, testUser); len(rows) != 0 {
		t.Fatalf("expected no registrations yet, got %d", len(rows))
	}
	if registered, _ := st.IsRegistered(ctx, testUser, "7"); registered {
		t.Fatal("expected not registered yet")
	}

	event := model.Event{ID: 7, Title: "Demo", Description: "D", Thumbnail: "http://x/img.png"}
	if err := st.RegisterForEvent(ctx, testUser, event); err != nil {
		t.Fatalf("RegisterForEvent() unexpected error: %v", err)
	}

	// Both reads reflect the new row without any TTL expiry.
	rows, err := st.ListMyRegistrations(ctx, testUser)
	if err != nil {
		t.Fatalf("ListMyRegistrations() unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].EventTitle != "Demo" || rows[0].EventImage != "http://x/img.png" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	registered, err := st.IsRegistered(ctx, testUser, "7")
	if err != nil || !registered {
		t.Errorf("IsRegistered() = %v, %v; want true, nil", registered, err)
	}
}

func TestRegisterDuplicatePropagates(t *testing.T) {
	regs := &fakeRegistry{insertErr: registry.ErrAlreadyRegistered}
	st := newTestStore(&fakeCatalog{}, regs)

	err := st.RegisterForEvent(context.Background(), testUser, model.Event{ID: 7})
	if !errors.Is(err, registry.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestBrowseOnlyWithoutBackend(t *testing.T) {
	st := newTestStore(&fakeCatalog{events: []model.Event{{ID: 7}}}, nil)
	ctx := context.Background()

	if _, err := st.ListEvents(ctx); err != nil {
		t.Errorf("browsing must work without a backend: %v", err)
	}
	if registered, err := st.IsRegistered(ctx, testUser, "7"); err != nil || registered {
		t.Errorf("IsRegistered() = %v, %v; want false, nil", registered, err)
	}
	if _, err := st.ListMyRegistrations(ctx, testUser); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
	if err := st.RegisterForEvent(ctx, testUser, model.Event{ID: 7}); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestInvalidateUserDropsScopedKeys(t *testing.T) {
	regs := &fakeRegistry{rows: []model.RegisteredEvent{{ID: "r1", EventID: "7"}}}
	st := newTestStore(&fakeCatalog{}, regs)
	ctx := context.Background()

	st.ListMyRegistrations(ctx, testUser)
	st.IsRegistered(ctx, testUser, "7")

	regs.queryErr = &registry.BackendError{Op: "list registrations", Err: errors.New("down")}
	st.InvalidateUser(testUser.ID)

	if _, err := st.ListMyRegistrations(ctx, testUser); err == nil {
		t.Error("expected a refetch after invalidation, got cached data")
	}
}
