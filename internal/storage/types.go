package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// DefaultMaxRecords bounds the history when Config.MaxRecords is zero.
const DefaultMaxRecords = 1000

// Config configures storage.
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	MaxRecords  int
}

func (c Config) maxRecords() int {
	if c.MaxRecords <= 0 {
		return DefaultMaxRecords
	}
	return c.MaxRecords
}

// PlaybackRun is one playback attempt as stored on disk.
type PlaybackRun struct {
	ID        string    `json:"id"`
	Trigger   string    `json:"trigger"`
	StartedAt time.Time `json:"started_at"`
	TookMS    int64     `json:"took_ms"`
	Directory string    `json:"directory,omitempty"`
	Player    string    `json:"player,omitempty"`
	Files     int       `json:"files"`
	Skipped   bool      `json:"skipped,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func (r PlaybackRun) Took() time.Duration { return time.Duration(r.TookMS) * time.Millisecond }

// Outcome is a one-word summary for listings.
func (r PlaybackRun) Outcome() string {
	switch {
	case r.Error != "":
		return "failed"
	case r.Skipped:
		return "skipped"
	default:
		return "played"
	}
}
