package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/pkg/taskapi"
	"github.com/fastygo/taskboard/store"
)

// backend is what the board needs from the task API.
type backend interface {
	store.Remote
	Events(ctx context.Context, id string) ([]domain.TaskEvent, error)
}

// app carries the dependencies shared by every command. The constructors are
// fields so tests can swap in fakes.
type app struct {
	loadConfig func() (*config.BoardConfig, error)
	newBackend func(cfg *config.BoardConfig, logger *zap.Logger) backend
	now        func() time.Time
	newID      func() string

	apiURL  string
	timeout time.Duration

	cfg     *config.BoardConfig
	logger  *zap.Logger
	backend backend
	store   *store.Store
}

func newApp() *app {
	return &app{
		loadConfig: config.LoadBoard,
		newBackend: func(cfg *config.BoardConfig, logger *zap.Logger) backend {
			return taskapi.New(cfg.APIURL, taskapi.WithTimeout(cfg.APITimeout), taskapi.WithLogger(logger))
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// reportedError marks a failure the store already showed to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// resolveID accepts a full task id or an unambiguous prefix of one.
func (a *app) resolveID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", domain.ErrMissingTaskID
	}
	if _, ok := a.store.Find(input); ok {
		return input, nil
	}

	var matches []string
	for _, t := range a.store.Tasks() {
		if strings.HasPrefix(strings.ToLower(t.ID), strings.ToLower(input)) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task matches %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %d tasks, use a longer prefix", input, len(matches))
	}
}

// parseDeadline accepts an RFC 3339 timestamp, a YYYY-MM-DD date (end of day,
// local time) or a duration from now such as 90m or 2h30m.
func parseDeadline(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if d, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
		return d.Add(24*time.Hour - time.Second), nil
	}
	if dur, err := time.ParseDuration(raw); err == nil {
		return now.Add(dur), nil
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q: use RFC 3339, YYYY-MM-DD or a duration like 2h", raw)
}
