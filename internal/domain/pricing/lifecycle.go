package pricing

import (
	"pricebook/internal/core/apperror"
	"pricebook/internal/core/id"
	"pricebook/internal/core/types"
)

// transitions lists the legal target states per source state.
// CANCELLED and EXPIRED are terminal.
var transitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusCancelled},
	StatusActive:  {StatusExpired, StatusCancelled},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new status.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, apperror.NewInvalidTransition(string(from), string(to))
	}
	return to, nil
}

// newer reports whether a takes precedence over b within one scope:
// later effective date, then later update, then greater id.
func newer(a, b *PriceSchedule) bool {
	if c := a.EffectiveDate.Compare(b.EffectiveDate); c != 0 {
		return c > 0
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return id.Compare(a.ID, b.ID) > 0
}

// EffectiveStatus computes the status of s as of asOf. siblings may hold any schedules of
// the same item; only those sharing s's scope are considered.
func EffectiveStatus(s *PriceSchedule, siblings []*PriceSchedule, asOf types.Date) Status {
	if s.IsCancelled() {
		return StatusCancelled
	}
	if s.EffectiveDate.After(asOf) {
		return StatusPending
	}
	key := s.ScopeKey()
	for _, other := range siblings {
		if other.ID == s.ID || other.IsCancelled() || other.ScopeKey() != key {
			continue
		}
		if !other.EffectiveDate.After(asOf) && newer(other, s) {
			return StatusExpired
		}
	}
	return StatusActive
}

// Annotate overwrites Status on every schedule with its status as of asOf.
// The slice must contain every schedule of the scopes it touches.
func Annotate(schedules []*PriceSchedule, asOf types.Date) {
	current := make(map[string]*PriceSchedule)
	for _, s := range schedules {
		if s.IsCancelled() || s.EffectiveDate.After(asOf) {
			continue
		}
		key := s.ScopeKey()
		if best, ok := current[key]; !ok || newer(s, best) {
			current[key] = s
		}
	}

	for _, s := range schedules {
		switch {
		case s.IsCancelled():
		case s.EffectiveDate.After(asOf):
			s.Status = StatusPending
		case current[s.ScopeKey()] == s:
			s.Status = StatusActive
		default:
			s.Status = StatusExpired
		}
	}
}
