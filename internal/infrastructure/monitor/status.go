package monitor

import "time"

// Status is the result of the last dependency check. PendingWrites counts the
// task writes and events still waiting in the local buffer, DeadWrites the ones
// that were given up on.
type Status struct {
	PostgreSQL    bool      `json:"postgresql"`
	Redis         bool      `json:"redis"`
	CacheEnabled  bool      `json:"cache_enabled"`
	Buffer        bool      `json:"buffer"`
	PendingWrites int       `json:"pending_writes"`
	DeadWrites    int       `json:"dead_writes"`
	LastCheck     time.Time `json:"last_check"`
}

// Healthy reports whether the store and the buffer answered. Redis only counts
// when the cache is enabled.
func (s Status) Healthy() bool {
	if !s.PostgreSQL || !s.Buffer {
		return false
	}
	return !s.CacheEnabled || s.Redis
}
