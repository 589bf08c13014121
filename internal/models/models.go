package models

import "time"

// Match is the best search hit for a song request. A non-nil Error means nothing usable was found.
type Match struct {
	Query    string
	URL      string
	Title    string
	Duration int // seconds, 0 when unknown
	Error    error
}

// Found reports whether the match can be handed to the download step.
func (m Match) Found() bool {
	return m.Error == nil && m.URL != ""
}

// Outcome is the result of downloading one song.
type Outcome struct {
	Song     string
	Filename string
	Path     string
	Error    error
}

// BatchResult summarizes a batch. Successful and Failed keep the input order and never share a song.
type BatchResult struct {
	RunID       string    `yaml:"run_id"`
	OutputDir   string    `yaml:"output_dir"`
	Successful  []string  `yaml:"successful"`
	Failed      []string  `yaml:"failed"`
	StartedAt   time.Time `yaml:"started_at"`
	FinishedAt  time.Time `yaml:"finished_at"`
	Interrupted bool      `yaml:"interrupted"`
}

// Total is the number of songs that reached a verdict.
func (r BatchResult) Total() int {
	return len(r.Successful) + len(r.Failed)
}
