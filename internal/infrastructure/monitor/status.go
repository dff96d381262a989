package monitor

import "time"

// Component is the last probe result of one dependency.
type Component struct {
	Up       bool   `json:"up"`
	Required bool   `json:"required"`
	Error    string `json:"error,omitempty"`
}

// Status is a snapshot of every probed dependency.
type Status struct {
	Healthy    bool                 `json:"healthy"`
	Components map[string]Component `json:"components"`
	SpoolSize  int                  `json:"spool_size"`
	LastCheck  time.Time            `json:"last_check"`
}
