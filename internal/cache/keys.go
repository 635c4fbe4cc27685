package cache

import "github.com/lbrode/clientspace/internal/domain"

// Cache keys live in one place so composite construction stays uniform.
// Every dimension that affects a response is part of the key: two loads
// that differ only in viewer scope must never share an entry.

// TasksKey keys the task list of a space for one viewer scope.
func TasksKey(spaceID string, viewer domain.Viewer) string {
	return "tasks:" + spaceID + ":" + string(viewer)
}

// MilestonesKey keys the milestone list of a space for one viewer scope.
func MilestonesKey(spaceID string, viewer domain.Viewer) string {
	return "milestones:" + spaceID + ":" + string(viewer)
}

// InvoicesKey keys the invoice list of a space for one viewer scope.
func InvoicesKey(spaceID string, viewer domain.Viewer) string {
	return "invoices:" + spaceID + ":" + string(viewer)
}

// ProspectsKey keys the prospect pipeline (owner only).
func ProspectsKey() string {
	return "prospects:" + string(domain.ViewerOwner)
}

// StatsKey keys the aggregate statistics of a space.
func StatsKey(spaceID string) string {
	return "stats:" + spaceID
}

// ShareKey keys a resolved share token lookup.
func ShareKey(token string) string {
	return "share:" + token
}
