package audit

import "sync"

// Gate bounds how many audits run at once. Acquisition never blocks: when
// every slot is taken the caller is turned away.
type Gate struct {
	slots chan struct{}
}

// NewGate returns a Gate with the given capacity. Capacity below 1 is raised to 1.
func NewGate(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{slots: make(chan struct{}, capacity)}
}

// TryAcquire takes a slot if one is free.
func (g *Gate) TryAcquire() (*Slot, bool) {
	select {
	case g.slots <- struct{}{}:
		return &Slot{gate: g}, true
	default:
		return nil, false
	}
}

// InUse returns the number of held slots.
func (g *Gate) InUse() int { return len(g.slots) }

// Capacity returns the configured number of slots.
func (g *Gate) Capacity() int { return cap(g.slots) }

// Slot is one unit of admission. It must be released exactly once.
type Slot struct {
	gate *Gate
	once sync.Once
}

// Release returns the slot to its gate. Only the first call has an effect;
// it reports whether this call did the release.
func (s *Slot) Release() bool {
	released := false
	s.once.Do(func() {
		<-s.gate.slots
		released = true
	})
	return released
}
