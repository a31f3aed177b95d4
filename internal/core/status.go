package core

// transitions is the canonical booking lifecycle. Completed and cancelled
// have no outgoing edges; nothing leads back to pending.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether next is reachable from s on the
// canonical machine. A same-state move is always allowed (no-op).
//
// The lifecycle operations do not reject off-machine moves: cancel and
// complete are applied regardless and callers use this only to flag them.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	s = s.Normalize()
	if s == next {
		return true
	}
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}
