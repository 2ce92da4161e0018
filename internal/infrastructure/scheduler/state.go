package scheduler

import "sync/atomic"

// Driver states reported to the health endpoint.
const (
	StateIdle     = "idle"
	StateWaiting  = "waiting"
	StateRunning  = "running"
	StateCooldown = "cooldown"
	StateStopped  = "stopped"
)

type stateBox struct {
	v atomic.Value
}

func (s *stateBox) set(state string) {
	s.v.Store(state)
}

func (s *stateBox) get() string {
	if v, ok := s.v.Load().(string); ok {
		return v
	}
	return StateIdle
}
