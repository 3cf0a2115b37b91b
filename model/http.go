package model

import "encoding/json"

type LevelResult struct {
	Title     string  `json:"title"`
	Artist    string  `json:"artist,omitempty"`
	Level     float64 `json:"level"`
	Notes     int     `json:"notes"`
	LongNotes int     `json:"long_notes"`
	LengthMS  int64   `json:"length_ms"`
}

type ChartResponse struct {
	SHA256   string          `json:"sha256"`
	Level    LevelResult     `json:"level"`
	Warnings []string        `json:"warnings"`
	Chart    json.RawMessage `json:"chart"`
}

type ReplayResponse struct {
	SHA256     string          `json:"sha256"`
	Path       string          `json:"path"`
	Modify     []int           `json:"modify"`
	Truncated  bool            `json:"truncated"`
	Unreleased int             `json:"unreleased"`
	Skipped    int             `json:"skipped"`
	Bars       []ReplayBarJSON `json:"bars"`
}

// ReplayBarJSON is the sparse per-bar view of a reconstructed replay. Lanes
// are keyed by name; long note segments are written as "start 1/2",
// "span 1/2-1 head" and "end 3/4".
type ReplayBarJSON struct {
	Number    int                 `json:"number"`
	Notes     map[string][]string `json:"notes"`
	LongNotes map[string][]string `json:"longnotes,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"detail"`
	RequestID string `json:"request_id"`
}
