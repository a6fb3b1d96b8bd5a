// Package memory holds process-local stores for single-instance runs and
// tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"midway_hotel/internal/domain"
)

type pickerEntry struct {
	state   domain.PickerState
	touched time.Time
}

// PickerStore keeps picker sessions in a map. Sessions not written for
// longer than ttl are gone; a ttl <= 0 keeps them forever.
type PickerStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]pickerEntry

	// Now defaults to time.Now.
	Now func() time.Time
}

func NewPickerStore(ttl time.Duration) *PickerStore {
	return &PickerStore{ttl: ttl, data: map[string]pickerEntry{}, Now: time.Now}
}

func (s *PickerStore) Create(ctx context.Context, st domain.PickerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	s.sweep(now)
	if _, ok := s.data[st.ID]; ok {
		return fmt.Errorf("picker %s already exists", st.ID)
	}
	s.data[st.ID] = pickerEntry{state: clonePicker(st), touched: now}
	return nil
}

func (s *PickerStore) Get(ctx context.Context, id string) (domain.PickerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id, s.Now())
	if !ok {
		return domain.PickerState{}, fmt.Errorf("%w: picker %s", domain.ErrNotFound, id)
	}
	return clonePicker(e.state), nil
}

func (s *PickerStore) Update(ctx context.Context, id string, fn func(*domain.PickerState) error) (domain.PickerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	e, ok := s.live(id, now)
	if !ok {
		return domain.PickerState{}, fmt.Errorf("%w: picker %s", domain.ErrNotFound, id)
	}
	work := clonePicker(e.state)
	if err := fn(&work); err != nil {
		return clonePicker(e.state), err
	}
	s.data[id] = pickerEntry{state: clonePicker(work), touched: now}
	return work, nil
}

// Len counts stored sessions, expired ones included until swept.
func (s *PickerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// live returns the entry for id, deleting it when expired. Callers hold mu.
func (s *PickerStore) live(id string, now time.Time) (pickerEntry, bool) {
	e, ok := s.data[id]
	if !ok {
		return pickerEntry{}, false
	}
	if s.expired(e, now) {
		delete(s.data, id)
		return pickerEntry{}, false
	}
	return e, true
}

func (s *PickerStore) expired(e pickerEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.touched) >= s.ttl
}

// sweep drops every expired entry. Callers hold mu.
func (s *PickerStore) sweep(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, e := range s.data {
		if s.expired(e, now) {
			delete(s.data, id)
		}
	}
}

// clonePicker copies the pointer fields so callers never alias stored state.
func clonePicker(in domain.PickerState) domain.PickerState {
	out := in
	if in.Marker != nil {
		m := *in.Marker
		out.Marker = &m
	}
	if in.Center != nil {
		c := *in.Center
		out.Center = &c
	}
	return out
}
