package domain

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Task is a unit of work inside a space. Hours tracks time spent, Cost the
// investment side, Amount the billable side.
type Task struct {
	ID        string
	SpaceID   string
	Title     string
	Status    TaskStatus
	Billable  bool
	Hours     float64
	Cost      float64
	Amount    float64
	DueDate   *time.Time
	CreatedAt time.Time
}

// MilestoneStatus is the state of a milestone.
type MilestoneStatus string

const (
	MilestonePlanned  MilestoneStatus = "planned"
	MilestoneActive   MilestoneStatus = "active"
	MilestoneReached  MilestoneStatus = "reached"
	MilestoneObsolete MilestoneStatus = "obsolete"
)

// Milestone is a dated checkpoint inside a space.
type Milestone struct {
	ID       string
	SpaceID  string
	Title    string
	Status   MilestoneStatus
	Progress int // 0..100
	DueDate  *time.Time
}

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
)

// Invoice is a bill attached to a space.
type Invoice struct {
	ID       string
	SpaceID  string
	Number   string
	Amount   float64
	Status   InvoiceStatus
	IssuedAt *time.Time
	PaidAt   *time.Time
}

// ProspectStage is the pipeline stage of a prospect.
type ProspectStage string

const (
	ProspectNew         ProspectStage = "new"
	ProspectContacted   ProspectStage = "contacted"
	ProspectNegotiation ProspectStage = "negotiation"
	ProspectWon         ProspectStage = "won"
	ProspectLost        ProspectStage = "lost"
)

// Prospect is a pipeline entry not yet attached to a space.
type Prospect struct {
	ID        string
	Name      string
	Email     string
	Stage     ProspectStage
	Value     float64
	CreatedAt time.Time
}
