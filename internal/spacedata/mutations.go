package spacedata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lbrode/clientspace/internal/cache"
	"github.com/lbrode/clientspace/internal/domain"
)

// CreateTask appends the task to the cached list immediately, then writes
// it to the record store. On failure the list is restored and the caller
// gets the error; on success the placeholder is replaced by the stored
// row so the server-assigned ID lands in the cache.
func (s *Service) CreateTask(ctx context.Context, viewer domain.Viewer, task domain.Task) (*domain.Task, error) {
	if task.SpaceID == "" {
		return nil, fmt.Errorf("spacedata.CreateTask: %w", domain.NewValidationError("space_id", "required"))
	}
	if task.Title == "" {
		return nil, fmt.Errorf("spacedata.CreateTask: %w", domain.NewValidationError("title", "required"))
	}
	if task.Status == "" {
		task.Status = domain.TaskTodo
	}

	resp, err := s.mutator.Do(ctx, cache.Mutation{
		Key: cache.TasksKey(task.SpaceID, viewer),
		Apply: func(prev any) any {
			return append(taskList(prev), task)
		},
		Remote: func(ctx context.Context) (any, error) {
			return s.store.CreateTask(ctx, task)
		},
		// Swap the optimistic placeholder (empty ID) for the stored row
		// before the next queued mutation captures its rollback state.
		Reconcile: func(current, resp any) any {
			created := resp.(*domain.Task)
			list := taskList(current)
			out := make([]domain.Task, 0, len(list))
			for _, t := range list {
				if t.ID == "" && t.Title == task.Title {
					t = *created
				}
				out = append(out, t)
			}
			return out
		},
	})
	if err != nil {
		s.notifier.Notify(ctx, "task creation failed, change reverted")
		return nil, fmt.Errorf("spacedata.CreateTask: %w", err)
	}

	created := resp.(*domain.Task)
	s.cache.Invalidate(cache.StatsKey(task.SpaceID))

	s.log.InfoContext(ctx, "task created",
		slog.String("space_id", task.SpaceID),
		slog.String("task_id", created.ID),
	)
	return created, nil
}

// UpdateTask patches a cached task in place, then confirms the change
// against the record store. payload carries canonical field names.
func (s *Service) UpdateTask(ctx context.Context, viewer domain.Viewer, spaceID, taskID string, payload domain.Record) (*domain.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("spacedata.UpdateTask: %w", domain.NewValidationError("task_id", "required"))
	}

	resp, err := s.mutator.Do(ctx, cache.Mutation{
		Key: cache.TasksKey(spaceID, viewer),
		Apply: func(prev any) any {
			list := taskList(prev)
			out := make([]domain.Task, len(list))
			copy(out, list)
			for i := range out {
				if out[i].ID == taskID {
					applyTaskPatch(&out[i], payload)
				}
			}
			return out
		},
		Remote: func(ctx context.Context) (any, error) {
			return s.store.UpdateTask(ctx, taskID, payload)
		},
		Reconcile: func(current, resp any) any {
			updated := resp.(*domain.Task)
			list := taskList(current)
			out := make([]domain.Task, len(list))
			copy(out, list)
			for i := range out {
				if out[i].ID == taskID {
					out[i] = *updated
				}
			}
			return out
		},
	})
	if err != nil {
		s.notifier.Notify(ctx, "task update failed, change reverted")
		return nil, fmt.Errorf("spacedata.UpdateTask: %w", err)
	}

	updated := resp.(*domain.Task)
	s.cache.Invalidate(cache.StatsKey(spaceID))
	return updated, nil
}

// DeleteTask removes the task from the cached list, then from the store.
func (s *Service) DeleteTask(ctx context.Context, viewer domain.Viewer, spaceID, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("spacedata.DeleteTask: %w", domain.NewValidationError("task_id", "required"))
	}

	_, err := s.mutator.Do(ctx, cache.Mutation{
		Key: cache.TasksKey(spaceID, viewer),
		Apply: func(prev any) any {
			list := taskList(prev)
			out := make([]domain.Task, 0, len(list))
			for _, t := range list {
				if t.ID != taskID {
					out = append(out, t)
				}
			}
			return out
		},
		Remote: func(ctx context.Context) (any, error) {
			return nil, s.store.DeleteTask(ctx, taskID)
		},
	})
	if err != nil {
		s.notifier.Notify(ctx, "task deletion failed, change reverted")
		return fmt.Errorf("spacedata.DeleteTask: %w", err)
	}

	s.cache.Invalidate(cache.StatsKey(spaceID))
	return nil
}

// CreateInvoice appends optimistically and confirms against the store.
func (s *Service) CreateInvoice(ctx context.Context, viewer domain.Viewer, inv domain.Invoice) (*domain.Invoice, error) {
	if inv.SpaceID == "" {
		return nil, fmt.Errorf("spacedata.CreateInvoice: %w", domain.NewValidationError("space_id", "required"))
	}
	if inv.Amount <= 0 {
		return nil, fmt.Errorf("spacedata.CreateInvoice: %w", domain.NewValidationError("amount", "must be positive"))
	}
	if inv.Status == "" {
		inv.Status = domain.InvoiceDraft
	}

	resp, err := s.mutator.Do(ctx, cache.Mutation{
		Key: cache.InvoicesKey(inv.SpaceID, viewer),
		Apply: func(prev any) any {
			return append(invoiceList(prev), inv)
		},
		Remote: func(ctx context.Context) (any, error) {
			return s.store.CreateInvoice(ctx, inv)
		},
		Reconcile: func(current, resp any) any {
			created := resp.(*domain.Invoice)
			list := invoiceList(current)
			out := make([]domain.Invoice, 0, len(list))
			for _, v := range list {
				if v.ID == "" && v.Number == inv.Number && v.Amount == inv.Amount {
					v = *created
				}
				out = append(out, v)
			}
			return out
		},
	})
	if err != nil {
		s.notifier.Notify(ctx, "invoice creation failed, change reverted")
		return nil, fmt.Errorf("spacedata.CreateInvoice: %w", err)
	}

	created := resp.(*domain.Invoice)
	s.cache.Invalidate(cache.StatsKey(inv.SpaceID))
	return created, nil
}

// UpdateInvoiceStatus moves an invoice through draft/sent/paid.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, viewer domain.Viewer, spaceID, invoiceID string, status domain.InvoiceStatus) (*domain.Invoice, error) {
	switch status {
	case domain.InvoiceDraft, domain.InvoiceSent, domain.InvoicePaid:
	default:
		return nil, fmt.Errorf("spacedata.UpdateInvoiceStatus: %w", domain.NewValidationError("status", "unknown status"))
	}

	payload := domain.Record{"status": string(status)}
	resp, err := s.mutator.Do(ctx, cache.Mutation{
		Key: cache.InvoicesKey(spaceID, viewer),
		Apply: func(prev any) any {
			list := invoiceList(prev)
			out := make([]domain.Invoice, len(list))
			copy(out, list)
			for i := range out {
				if out[i].ID == invoiceID {
					out[i].Status = status
				}
			}
			return out
		},
		Remote: func(ctx context.Context) (any, error) {
			return s.store.UpdateInvoice(ctx, invoiceID, payload)
		},
	})
	if err != nil {
		s.notifier.Notify(ctx, "invoice update failed, change reverted")
		return nil, fmt.Errorf("spacedata.UpdateInvoiceStatus: %w", err)
	}

	updated := resp.(*domain.Invoice)
	s.cache.Invalidate(cache.StatsKey(spaceID))
	return updated, nil
}

// CreateProspect adds a pipeline entry optimistically.
func (s *Service) CreateProspect(ctx context.Context, p domain.Prospect) (*domain.Prospect, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("spacedata.CreateProspect: %w", domain.NewValidationError("name", "required"))
	}
	if p.Stage == "" {
		p.Stage = domain.ProspectNew
	}

	resp, err := s.mutator.Do(ctx, cache.Mutation{
		Key: cache.ProspectsKey(),
		Apply: func(prev any) any {
			return append(prospectList(prev), p)
		},
		Remote: func(ctx context.Context) (any, error) {
			return s.store.CreateProspect(ctx, p)
		},
	})
	if err != nil {
		s.notifier.Notify(ctx, "prospect creation failed, change reverted")
		return nil, fmt.Errorf("spacedata.CreateProspect: %w", err)
	}
	return resp.(*domain.Prospect), nil
}

// MoveProspect changes a prospect's pipeline stage.
func (s *Service) MoveProspect(ctx context.Context, prospectID string, stage domain.ProspectStage) (*domain.Prospect, error) {
	switch stage {
	case domain.ProspectNew, domain.ProspectContacted, domain.ProspectNegotiation, domain.ProspectWon, domain.ProspectLost:
	default:
		return nil, fmt.Errorf("spacedata.MoveProspect: %w", domain.NewValidationError("stage", "unknown stage"))
	}

	resp, err := s.mutator.Do(ctx, cache.Mutation{
		Key: cache.ProspectsKey(),
		Apply: func(prev any) any {
			list := prospectList(prev)
			out := make([]domain.Prospect, len(list))
			copy(out, list)
			for i := range out {
				if out[i].ID == prospectID {
					out[i].Stage = stage
				}
			}
			return out
		},
		Remote: func(ctx context.Context) (any, error) {
			return s.store.UpdateProspectStage(ctx, prospectID, stage)
		},
	})
	if err != nil {
		s.notifier.Notify(ctx, "prospect move failed, change reverted")
		return nil, fmt.Errorf("spacedata.MoveProspect: %w", err)
	}
	return resp.(*domain.Prospect), nil
}

func taskList(v any) []domain.Task {
	list, _ := v.([]domain.Task)
	return list
}

func invoiceList(v any) []domain.Invoice {
	list, _ := v.([]domain.Invoice)
	return list
}

func prospectList(v any) []domain.Prospect {
	list, _ := v.([]domain.Prospect)
	return list
}

// applyTaskPatch mirrors the canonical record fields onto a task for the
// optimistic view. The store response replaces it afterwards.
func applyTaskPatch(t *domain.Task, payload domain.Record) {
	if _, ok := payload["title"]; ok {
		t.Title = payload.String("title")
	}
	if _, ok := payload["status"]; ok {
		t.Status = domain.TaskStatus(payload.String("status"))
	}
	if _, ok := payload["billable"]; ok {
		t.Billable = payload.Bool("billable")
	}
	if _, ok := payload["hours"]; ok {
		t.Hours = payload.Float("hours")
	}
	if _, ok := payload["cost"]; ok {
		t.Cost = payload.Float("cost")
	}
	if _, ok := payload["amount"]; ok {
		t.Amount = payload.Float("amount")
	}
}
