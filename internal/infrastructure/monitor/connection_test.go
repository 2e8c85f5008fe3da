package monitor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
)

func TestRefreshWithoutDatastores(t *testing.T) {
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	if err != nil {
		t.Fatalf("buffer.Open: %v", err)
	}
	defer store.Close()
	_ = store.Enqueue(buffer.Item{TaskID: "a", Entity: buffer.EntityTask, Operation: buffer.OperationCreate})

	m := New(nil, nil, store, time.Hour, nil)
	m.refresh()

	status := m.GetStatus()
	if status.PostgreSQL || status.Redis || status.CacheEnabled {
		t.Errorf("status = %+v, want datastores down", status)
	}
	if !status.Buffer || status.PendingWrites != 1 {
		t.Errorf("buffer status = (%v, %d), want (true, 1)", status.Buffer, status.PendingWrites)
	}
	if m.IsOnline() {
		t.Error("IsOnline() = true without postgres")
	}
	if m.Healthy() {
		t.Error("Healthy() = true without postgres")
	}
}

func TestStartStop(t *testing.T) {
	m := New(nil, nil, nil, 5*time.Millisecond, nil)
	m.Start()
	deadline := time.Now().Add(2 * time.Second)
	for m.GetStatus().LastCheck.IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("monitor never refreshed")
		}
		time.Sleep(time.Millisecond)
	}
	m.Stop()
	m.Stop()
}

func TestStatusHealthy(t *testing.T) {
	cases := []struct {
		name   string
		status Status
		want   bool
	}{
		{"all up", Status{PostgreSQL: true, Redis: true, CacheEnabled: true, Buffer: true}, true},
		{"cache disabled", Status{PostgreSQL: true, Buffer: true}, true},
		{"cache down", Status{PostgreSQL: true, CacheEnabled: true, Buffer: true}, false},
		{"postgres down", Status{Buffer: true}, false},
		{"buffer down", Status{PostgreSQL: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.status.Healthy(); got != tc.want {
				t.Errorf("Healthy() = %v, want %v", got, tc.want)
			}
		})
	}
}
