package snapshot

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrSaveAborted = errors.New("save aborted")

type SyncState string

const (
	StateIdle       SyncState = "idle"
	StateProcessing SyncState = "processing"
	StateError      SyncState = "error"
)

type Status struct {
	State     SyncState  `json:"state"`
	Message   string     `json:"message,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Tracker records the save state per restaurant. A failed save keeps its
// message until the next save starts.
type Tracker struct {
	mu     sync.Mutex
	states map[uint]Status
	now    func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{states: map[uint]Status{}, now: time.Now}
}

// Begin marks a save as started. It returns false if one is already running.
func (t *Tracker) Begin(restaurantID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.states[restaurantID].State == StateProcessing {
		return false
	}
	now := t.now()
	t.states[restaurantID] = Status{State: StateProcessing, UpdatedAt: &now}
	return true
}

// Done ends the running save with err's outcome.
func (t *Tracker) Done(restaurantID uint, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if err != nil {
		t.states[restaurantID] = Status{State: StateError, Message: err.Error(), UpdatedAt: &now}
		return
	}
	t.states[restaurantID] = Status{State: StateIdle, UpdatedAt: &now}
}

// Track runs save for a restaurant already marked by Begin and records how it
// ended. A panic is recorded as ErrSaveAborted and then re-raised.
func (t *Tracker) Track(restaurantID uint, save func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.Done(restaurantID, fmt.Errorf("%w: %v", ErrSaveAborted, r))
			panic(r)
		}
		t.Done(restaurantID, err)
	}()
	return save()
}

func (t *Tracker) Get(restaurantID uint) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[restaurantID]
	if !ok {
		return Status{State: StateIdle}
	}
	return st
}
