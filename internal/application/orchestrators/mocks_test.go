package orchestrators

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"juventud/internal/adapters/api"
	"juventud/internal/adapters/email"
	outboxStore "juventud/internal/adapters/storage/outbox"
	"juventud/internal/domain/actividad"
	"juventud/internal/domain/outbox"
	"juventud/internal/domain/persona"
)

// --- Mock backend ---

// mockBackend stands in for the API client and counts every call.
type mockBackend struct {
	mu sync.Mutex

	personas    []persona.Persona
	pages       [][]persona.Persona // when set, GetPersonas serves these pages in order
	created     persona.Persona
	semana      []actividad.Actividad
	asistencia  api.Asistencia
	actividad   actividad.Actividad
	err         error // returned by every call when set
	asistirErr  error
	calls       int
	lastFilter  api.PersonaFilter
	filters     []api.PersonaFilter
	lastNew     persona.NewPersona
	lastAsistir [2]string
	lastSemana  api.SemanaFilter
	lastCreateA actividad.NewActividad
}

// CreatePersona records the payload and returns the configured persona.
func (m *mockBackend) CreatePersona(_ context.Context, p persona.NewPersona) (persona.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastNew = p
	if m.err != nil {
		return persona.Persona{}, m.err
	}
	return m.created, nil
}

// GetPersonas records the filter and returns the configured personas.
func (m *mockBackend) GetPersonas(_ context.Context, f api.PersonaFilter) (api.Page[persona.Persona], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastFilter = f
	m.filters = append(m.filters, f)
	if m.err != nil {
		return api.Page[persona.Persona]{}, m.err
	}
	if m.pages != nil {
		n := max(f.CurrentPage, 1)
		page := api.Page[persona.Persona]{CurrentPage: n, TotalPages: len(m.pages), Limit: f.Limit}
		if n <= len(m.pages) {
			page.Items = m.pages[n-1]
		}
		return page, nil
	}
	return api.Page[persona.Persona]{Items: m.personas, CurrentPage: 1, TotalPages: 1, TotalItems: len(m.personas), Limit: f.Limit}, nil
}

// AsistirActividad records the ids and returns the configured result.
func (m *mockBackend) AsistirActividad(_ context.Context, actividadID, personaID string) (api.Asistencia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastAsistir = [2]string{actividadID, personaID}
	if m.err != nil {
		return api.Asistencia{}, m.err
	}
	if m.asistirErr != nil {
		return api.Asistencia{}, m.asistirErr
	}
	return m.asistencia, nil
}

// GetActividadesSemana records the filter and returns the configured list.
func (m *mockBackend) GetActividadesSemana(_ context.Context, f api.SemanaFilter) ([]actividad.Actividad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastSemana = f
	if m.err != nil {
		return nil, m.err
	}
	return m.semana, nil
}

// CreateActividad records the payload and returns the configured activity.
func (m *mockBackend) CreateActividad(_ context.Context, a actividad.NewActividad) (actividad.Actividad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastCreateA = a
	if m.err != nil {
		return actividad.Actividad{}, m.err
	}
	return m.actividad, nil
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock outbox store ---

type mockOutboxStore struct {
	entries map[string]outbox.Entry
	saveErr error
}

var _ outboxStore.Store = (*mockOutboxStore)(nil)

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outbox.Entry)}
}

// GetByID retrieves a mock entry by ID.
func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, outboxStore.ErrNotFound
	}
	return e, nil
}

// Save stores the entry in the map.
func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) byStatus(statuses ...string) []outbox.Entry {
	var out []outbox.Entry
	for _, e := range m.entries {
		for _, s := range statuses {
			if e.Status == s {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ListPending returns pending and retrying entries by creation time.
func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	out := m.byStatus(outbox.StatusPending, outbox.StatusRetrying)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListFailed returns failed entries.
func (m *mockOutboxStore) ListFailed(_ context.Context, limit int) ([]outbox.Entry, error) {
	out := m.byStatus(outbox.StatusFailed)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByStatus counts entries per status.
func (m *mockOutboxStore) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, e := range m.entries {
		counts[e.Status]++
	}
	return counts, nil
}

// PruneDone removes done entries created before cutoff.
func (m *mockOutboxStore) PruneDone(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, e := range m.entries {
		if e.Status == outbox.StatusDone && e.CreatedAt.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// --- Mock sender ---

type mockSender struct {
	sent []email.SendRequest
	err  error
}

// Send records the request.
func (m *mockSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: "msg-1", SentAt: time.Now()}, nil
}

// --- Helpers ---

var errBoom = errors.New("dial tcp: connection refused")

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + string(rune('0'+n))
	}
}

// lockedStore serializes access for tests that run the background worker.
type lockedStore struct {
	mu sync.Mutex
	*mockOutboxStore
}

func (s *lockedStore) GetByID(ctx context.Context, id string) (outbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mockOutboxStore.GetByID(ctx, id)
}

func (s *lockedStore) Save(ctx context.Context, e outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mockOutboxStore.Save(ctx, e)
}

func (s *lockedStore) ListPending(ctx context.Context, limit int) ([]outbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mockOutboxStore.ListPending(ctx, limit)
}

func (s *lockedStore) PruneDone(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mockOutboxStore.PruneDone(ctx, cutoff)
}
