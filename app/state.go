package app

import "time"

// Form holds the active input fields.
type Form struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

// GeneratedCode is the most recent successful generation. It is never
// modified after creation; a new generation replaces it.
type GeneratedCode struct {
	Raster     []byte    `json:"-"`
	SourceText string    `json:"source_text"`
	Title      string    `json:"title,omitempty"`
	Revision   uint64    `json:"revision"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryEntry records one successful generation.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Flags are the transient UI indicators.
type Flags struct {
	Generating   bool `json:"generating"`
	ShowThankYou bool `json:"show_thank_you"`
	ShowHistory  bool `json:"show_history"`
	Copied       bool `json:"copied"`
}

// State is a point-in-time copy of everything the controller owns.
type State struct {
	Form    Form           `json:"form"`
	Code    *GeneratedCode `json:"code,omitempty"`
	History []HistoryEntry `json:"history"`
	Flags   Flags          `json:"flags"`
}
