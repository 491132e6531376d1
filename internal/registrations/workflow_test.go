package registrations

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-society/backend/internal/models"
)

// memStore is an in-memory Store. A per-event mutex stands in for the event
// row lock, giving the same serialization guarantee the database provides.
type memStore struct {
	mu     sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex
	events map[uuid.UUID]*models.Event
	regs   map[uuid.UUID]*models.Registration
}

func newMemStore() *memStore {
	return &memStore{
		locks:  make(map[uuid.UUID]*sync.Mutex),
		events: make(map[uuid.UUID]*models.Event),
		regs:   make(map[uuid.UUID]*models.Registration),
	}
}

func (s *memStore) addEvent(capacity int, status models.EventStatus) *models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := &models.Event{
		ID:       uuid.New(),
		Title:    "Robotics Workshop",
		Date:     time.Now().Add(72 * time.Hour),
		Capacity: capacity,
		Category: models.CategoryWorkshop,
		Status:   status,
	}
	s.events[ev.ID] = ev
	s.locks[ev.ID] = &sync.Mutex{}
	return ev
}

func (s *memStore) eventLock(eventID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[eventID] = l
	}
	return l
}

func (s *memStore) InEventTx(ctx context.Context, eventID uuid.UUID, fn func(tx EventTx) error) error {
	l := s.eventLock(eventID)
	l.Lock()
	defer l.Unlock()
	return fn(&memTx{store: s, eventID: eventID})
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (s *memStore) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (s *memStore) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.RegistrationDetail
	for _, reg := range s.regs {
		if reg.EventID == eventID {
			list = append(list, models.RegistrationDetail{Registration: *reg})
		}
	}
	return list, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RegistrationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.RegistrationDetail
	for _, reg := range s.regs {
		if reg.UserID == userID {
			list = append(list, models.RegistrationDetail{Registration: *reg})
		}
	}
	return list, nil
}

type memTx struct {
	store   *memStore
	eventID uuid.UUID
}

func (t *memTx) Event(ctx context.Context) (*models.Event, error) {
	return t.store.GetEvent(ctx, t.eventID)
}

func (t *memTx) Find(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, reg := range t.store.regs {
		if reg.UserID == userID && reg.EventID == t.eventID {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) Get(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	reg, ok := t.store.regs[id]
	if !ok || reg.EventID != t.eventID {
		return nil, ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (t *memTx) CountByStatus(ctx context.Context, status models.RegistrationStatus) (int, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	n := 0
	for _, reg := range t.store.regs {
		if reg.EventID == t.eventID && reg.Status == status {
			n++
		}
	}
	return n, nil
}

func (t *memTx) Insert(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, reg := range t.store.regs {
		if reg.UserID == userID && reg.EventID == t.eventID {
			return nil, ErrConflict
		}
	}
	reg := &models.Registration{
		ID:           uuid.New(),
		UserID:       userID,
		EventID:      t.eventID,
		Status:       models.RegistrationPending,
		RegisteredAt: time.Now(),
	}
	t.store.regs[reg.ID] = reg
	cp := *reg
	return &cp, nil
}

func (t *memTx) SetStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus, reviewer uuid.UUID, notes string) (*models.Registration, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	reg, ok := t.store.regs[id]
	if !ok || reg.Status != models.RegistrationPending {
		return nil, ErrInvalidTransition
	}
	now := time.Now()
	reg.Status = status
	reg.ReviewedAt = &now
	reg.ReviewedBy = &reviewer
	reg.Notes = notes
	cp := *reg
	return &cp, nil
}

func (t *memTx) Delete(ctx context.Context, id uuid.UUID) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.regs[id]; !ok {
		return ErrNotFound
	}
	delete(t.store.regs, id)
	return nil
}

func (t *memTx) AddAttendee(ctx context.Context, userID uuid.UUID) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	ev := t.store.events[t.eventID]
	for _, id := range ev.Attendees {
		if id == userID {
			return nil
		}
	}
	ev.Attendees = append(ev.Attendees, userID)
	return nil
}

func (t *memTx) RemoveAttendee(ctx context.Context, userID uuid.UUID) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	ev := t.store.events[t.eventID]
	out := ev.Attendees[:0]
	for _, id := range ev.Attendees {
		if id != userID {
			out = append(out, id)
		}
	}
	ev.Attendees = out
	return nil
}

// recordingNotifier captures decision notifications.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []models.RegistrationStatus
}

func (n *recordingNotifier) RegistrationDecided(ctx context.Context, id uuid.UUID, status models.RegistrationStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, status)
	return nil
}

func TestRequestErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store, nil, nil)

	open := store.addEvent(2, models.EventUpcoming)
	ongoing := store.addEvent(2, models.EventOngoing)
	user := uuid.New()

	tests := []struct {
		name    string
		setup   func()
		eventID uuid.UUID
		userID  uuid.UUID
		wantErr error
	}{
		{
			name:    "unknown event",
			eventID: uuid.New(),
			userID:  user,
			wantErr: ErrNotFound,
		},
		{
			name:    "event not open",
			eventID: ongoing.ID,
			userID:  user,
			wantErr: ErrEventNotOpen,
		},
		{
			name: "duplicate request",
			setup: func() {
				_, _ = engine.Request(ctx, user, open.ID)
			},
			eventID: open.ID,
			userID:  user,
			wantErr: ErrConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, err := engine.Request(ctx, tt.userID, tt.eventID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Request() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRejectedRegistrationBlocksResubmission(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store, nil, nil)
	ev := store.addEvent(5, models.EventUpcoming)
	user := uuid.New()
	admin := uuid.New()

	reg, err := engine.Request(ctx, user, ev.ID)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := engine.Reject(ctx, reg.ID, admin, "not eligible"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := engine.Request(ctx, user, ev.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("resubmission after rejection: error = %v, want ErrConflict", err)
	}
}

func TestApprovalScenarioCapacityTwo(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	notifier := &recordingNotifier{}
	engine := NewEngine(store, notifier, nil)
	ev := store.addEvent(2, models.EventUpcoming)
	admin := uuid.New()

	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()
	regA, err := engine.Request(ctx, userA, ev.ID)
	if err != nil {
		t.Fatalf("Request A: %v", err)
	}
	regB, err := engine.Request(ctx, userB, ev.ID)
	if err != nil {
		t.Fatalf("Request B: %v", err)
	}
	regC, err := engine.Request(ctx, userC, ev.ID)
	if err != nil {
		t.Fatalf("Request C: %v", err)
	}

	if _, err := engine.Approve(ctx, regA.ID, admin, ""); err != nil {
		t.Fatalf("Approve A: %v", err)
	}
	out, err := engine.Approve(ctx, regB.ID, admin, "welcome")
	if err != nil {
		t.Fatalf("Approve B: %v", err)
	}
	if out.Status != models.RegistrationApproved {
		t.Errorf("B status = %s, want approved", out.Status)
	}
	if out.ReviewedAt == nil || out.ReviewedBy == nil || *out.ReviewedBy != admin {
		t.Errorf("B review metadata not stamped: %+v", out)
	}

	// Third approval exceeds capacity even though the request was accepted.
	if _, err := engine.Approve(ctx, regC.ID, admin, ""); !errors.Is(err, ErrEventFull) {
		t.Fatalf("Approve C: error = %v, want ErrEventFull", err)
	}

	// C stays pending and can still be rejected.
	got, err := store.GetByID(ctx, regC.ID)
	if err != nil {
		t.Fatalf("GetByID C: %v", err)
	}
	if got.Status != models.RegistrationPending {
		t.Errorf("C status after failed approval = %s, want pending", got.Status)
	}
	if _, err := engine.Reject(ctx, regC.ID, admin, "event full"); err != nil {
		t.Fatalf("Reject C: %v", err)
	}

	cached, _ := store.GetEvent(ctx, ev.ID)
	if len(cached.Attendees) != 2 {
		t.Fatalf("attendee cache size = %d, want 2", len(cached.Attendees))
	}
	for _, id := range cached.Attendees {
		if id != userA && id != userB {
			t.Errorf("unexpected attendee %s", id)
		}
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.calls) != 3 {
		t.Errorf("notifications = %d, want 3 (A, B approved; C rejected)", len(notifier.calls))
	}
}

func TestApproveTerminalState(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store, nil, nil)
	ev := store.addEvent(5, models.EventUpcoming)
	admin := uuid.New()

	reg, err := engine.Request(ctx, uuid.New(), ev.ID)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := engine.Approve(ctx, reg.ID, admin, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := engine.Approve(ctx, reg.ID, admin, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("re-approve: error = %v, want ErrInvalidTransition", err)
	}
	if _, err := engine.Reject(ctx, reg.ID, admin, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject approved: error = %v, want ErrInvalidTransition", err)
	}
}

func TestApproveUnknownRegistration(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, nil, nil)
	if _, err := engine.Approve(context.Background(), uuid.New(), uuid.New(), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store, nil, nil)
	ev := store.addEvent(3, models.EventUpcoming)
	admin := uuid.New()
	user := uuid.New()

	if err := engine.Withdraw(ctx, user, ev.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("withdraw without registration: error = %v, want ErrNotFound", err)
	}

	reg, err := engine.Request(ctx, user, ev.ID)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := engine.Approve(ctx, reg.ID, admin, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if err := engine.Withdraw(ctx, user, ev.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	cached, _ := store.GetEvent(ctx, ev.ID)
	if len(cached.Attendees) != 0 {
		t.Errorf("attendee cache after withdraw = %v, want empty", cached.Attendees)
	}
	if _, err := store.GetByID(ctx, reg.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("ledger row after withdraw: error = %v, want ErrNotFound", err)
	}

	// Freed slot is reusable.
	if _, err := engine.Request(ctx, user, ev.ID); err != nil {
		t.Errorf("re-request after withdraw: %v", err)
	}
}

func TestRejectLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store, nil, nil)
	ev := store.addEvent(3, models.EventUpcoming)

	reg, err := engine.Request(ctx, uuid.New(), ev.ID)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := engine.Reject(ctx, reg.ID, uuid.New(), "no"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	cached, _ := store.GetEvent(ctx, ev.ID)
	if len(cached.Attendees) != 0 {
		t.Errorf("attendee cache after reject = %v, want empty", cached.Attendees)
	}
}

func TestListByEventUnknown(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, nil, nil)
	if _, err := engine.ListByEvent(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentDuplicateRequests(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store, nil, nil)
	ev := store.addEvent(10, models.EventUpcoming)
	user := uuid.New()

	const workers = 16
	var success, conflict int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := engine.Request(ctx, user, ev.ID)
			switch {
			case err == nil:
				atomic.AddInt64(&success, 1)
			case errors.Is(err, ErrConflict):
				atomic.AddInt64(&conflict, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Errorf("successful requests = %d, want 1", success)
	}
	if conflict != workers-1 {
		t.Errorf("conflicts = %d, want %d", conflict, workers-1)
	}
	list, err := engine.ListByEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ledger rows = %d, want 1", len(list))
	}
}

func TestConcurrentApprovalsLastSlot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store, nil, nil)
	ev := store.addEvent(1, models.EventUpcoming)
	admin := uuid.New()

	regA, err := engine.Request(ctx, uuid.New(), ev.ID)
	if err != nil {
		t.Fatalf("Request A: %v", err)
	}
	regB, err := engine.Request(ctx, uuid.New(), ev.ID)
	if err != nil {
		t.Fatalf("Request B: %v", err)
	}

	var approved, full int64
	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{regA.ID, regB.ID} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := engine.Approve(ctx, id, admin, "")
			switch {
			case err == nil:
				atomic.AddInt64(&approved, 1)
			case errors.Is(err, ErrEventFull):
				atomic.AddInt64(&full, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if approved != 1 || full != 1 {
		t.Errorf("approved = %d, full = %d, want 1 and 1", approved, full)
	}
	cached, _ := store.GetEvent(ctx, ev.ID)
	if len(cached.Attendees) != 1 {
		t.Errorf("attendee cache size = %d, want 1", len(cached.Attendees))
	}
}

func TestConcurrentRequestsBoundedLedger(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store, nil, nil)
	ev := store.addEvent(2, models.EventUpcoming)
	admin := uuid.New()

	// Fill both slots.
	for i := 0; i < 2; i++ {
		reg, err := engine.Request(ctx, uuid.New(), ev.ID)
		if err != nil {
			t.Fatalf("Request: %v", err)
		}
		if _, err := engine.Approve(ctx, reg.ID, admin, ""); err != nil {
			t.Fatalf("Approve: %v", err)
		}
	}

	// Further requests bounce at request time once capacity is consumed.
	const workers = 8
	var full int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := engine.Request(ctx, uuid.New(), ev.ID); errors.Is(err, ErrEventFull) {
				atomic.AddInt64(&full, 1)
			}
		}()
	}
	wg.Wait()
	if full != workers {
		t.Errorf("ErrEventFull count = %d, want %d", full, workers)
	}
}
