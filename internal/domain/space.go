package domain

import "time"

// Viewer identifies who is looking at a space. It is part of every cache
// key because the same space renders differently for its owner and for a
// client following a share link.
type Viewer string

const (
	ViewerOwner  Viewer = "owner"
	ViewerClient Viewer = "client"
)

// Space is a client's project workspace, the parent entity for tasks,
// milestones and invoices.
type Space struct {
	ID         string
	Name       string
	ClientName string
	Email      string
	Archived   bool
	Share      ShareConfig
	CreatedAt  time.Time
}

// ShareConfig is the share-link state carried on a space record.
// At most one active token exists per space; revoking clears Enabled.
type ShareConfig struct {
	Token        string
	Enabled      bool
	PasswordHash string
}

// HasPassword reports whether resolving the share link requires a password.
func (s ShareConfig) HasPassword() bool { return s.PasswordHash != "" }

// SpaceStats aggregates margin and investment figures for a space.
// Revenue counts paid invoices, Outstanding counts sent but unpaid ones,
// Investment sums task costs.
type SpaceStats struct {
	SpaceID     string
	Revenue     float64
	Outstanding float64
	Investment  float64
	Margin      float64
	MarginRate  float64 // percent of revenue, 0 when revenue is 0
	TasksDone   int
	TasksTotal  int
}

// Compute fills the derived fields from the raw sums.
func (s *SpaceStats) Compute() {
	s.Margin = s.Revenue - s.Investment
	if s.Revenue > 0 {
		s.MarginRate = s.Margin / s.Revenue * 100
	} else {
		s.MarginRate = 0
	}
}
