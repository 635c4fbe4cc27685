package gateway

import (
	"context"
	"fmt"

	"github.com/lbrode/clientspace/internal/domain"
)

// Projections per collection. Synonym columns are requested alongside the
// canonical names so legacy rows keep all their fields; normalization
// collapses them right here at the boundary.
var (
	taskFields = []string{
		"id", "space_id", "projet_id", "title", "titre", "status", "statut",
		"billable", "hours", "heures", "cost", "cout", "amount", "montant",
		"due_date", "echeance", "created_at",
	}
	milestoneFields = []string{
		"id", "space_id", "projet_id", "title", "titre", "status", "statut",
		"progress", "avancement", "due_date", "echeance",
	}
	invoiceFields = []string{
		"id", "space_id", "projet_id", "number", "numero", "amount", "montant",
		"status", "statut", "issued_at", "paid_at",
	}
	prospectFields = []string{
		"id", "name", "nom", "email", "stage", "etape", "status",
		"value", "valeur", "montant", "created_at",
	}
)

// spaceFilter builds the equality filter for records belonging to a space.
func spaceFilter(spaceID string) map[string]string {
	return map[string]string{"space_id": spaceID}
}

// ListTasks returns every task of a space.
func (c *Client) ListTasks(ctx context.Context, spaceID string) ([]domain.Task, error) {
	res, err := c.List(ctx, CollectionTasks, ListOptions{
		Filter: spaceFilter(spaceID),
		Fields: taskFields,
	})
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(res.Records))
	for _, rec := range res.Records {
		tasks = append(tasks, domain.TaskFromRecord(rec))
	}
	return tasks, nil
}

// CreateTask inserts a task and returns the stored version.
func (c *Client) CreateTask(ctx context.Context, task domain.Task) (*domain.Task, error) {
	rec, err := c.Create(ctx, CollectionTasks, task.ToRecord())
	if err != nil {
		return nil, err
	}
	created := domain.TaskFromRecord(rec)
	return &created, nil
}

// UpdateTask patches a task and returns the stored version.
func (c *Client) UpdateTask(ctx context.Context, id string, payload domain.Record) (*domain.Task, error) {
	rec, err := c.Update(ctx, CollectionTasks, id, payload)
	if err != nil {
		return nil, err
	}
	updated := domain.TaskFromRecord(rec)
	return &updated, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.Delete(ctx, CollectionTasks, id)
}

// ListMilestones returns every milestone of a space.
func (c *Client) ListMilestones(ctx context.Context, spaceID string) ([]domain.Milestone, error) {
	res, err := c.List(ctx, CollectionMilestones, ListOptions{
		Filter: spaceFilter(spaceID),
		Fields: milestoneFields,
	})
	if err != nil {
		return nil, err
	}
	milestones := make([]domain.Milestone, 0, len(res.Records))
	for _, rec := range res.Records {
		milestones = append(milestones, domain.MilestoneFromRecord(rec))
	}
	return milestones, nil
}

// ListInvoices returns every invoice of a space.
func (c *Client) ListInvoices(ctx context.Context, spaceID string) ([]domain.Invoice, error) {
	res, err := c.List(ctx, CollectionInvoices, ListOptions{
		Filter: spaceFilter(spaceID),
		Fields: invoiceFields,
	})
	if err != nil {
		return nil, err
	}
	invoices := make([]domain.Invoice, 0, len(res.Records))
	for _, rec := range res.Records {
		invoices = append(invoices, domain.InvoiceFromRecord(rec))
	}
	return invoices, nil
}

// CreateInvoice inserts an invoice and returns the stored version.
func (c *Client) CreateInvoice(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error) {
	rec, err := c.Create(ctx, CollectionInvoices, inv.ToRecord())
	if err != nil {
		return nil, err
	}
	created := domain.InvoiceFromRecord(rec)
	return &created, nil
}

// UpdateInvoice patches an invoice and returns the stored version.
func (c *Client) UpdateInvoice(ctx context.Context, id string, payload domain.Record) (*domain.Invoice, error) {
	rec, err := c.Update(ctx, CollectionInvoices, id, payload)
	if err != nil {
		return nil, err
	}
	updated := domain.InvoiceFromRecord(rec)
	return &updated, nil
}

// ListProspects returns the whole prospect pipeline.
func (c *Client) ListProspects(ctx context.Context) ([]domain.Prospect, error) {
	res, err := c.List(ctx, CollectionProspects, ListOptions{Fields: prospectFields})
	if err != nil {
		return nil, err
	}
	prospects := make([]domain.Prospect, 0, len(res.Records))
	for _, rec := range res.Records {
		prospects = append(prospects, domain.ProspectFromRecord(rec))
	}
	return prospects, nil
}

// CreateProspect inserts a prospect and returns the stored version.
func (c *Client) CreateProspect(ctx context.Context, p domain.Prospect) (*domain.Prospect, error) {
	rec, err := c.Create(ctx, CollectionProspects, p.ToRecord())
	if err != nil {
		return nil, err
	}
	created := domain.ProspectFromRecord(rec)
	return &created, nil
}

// UpdateProspectStage moves a prospect to another pipeline stage.
func (c *Client) UpdateProspectStage(ctx context.Context, id string, stage domain.ProspectStage) (*domain.Prospect, error) {
	rec, err := c.Update(ctx, CollectionProspects, id, domain.Record{"stage": string(stage)})
	if err != nil {
		return nil, err
	}
	updated := domain.ProspectFromRecord(rec)
	return &updated, nil
}

// GetSpace returns a space by id.
func (c *Client) GetSpace(ctx context.Context, id string) (*domain.Space, error) {
	rec, err := c.Get(ctx, CollectionClients, id)
	if err != nil {
		return nil, err
	}
	space := domain.SpaceFromRecord(rec)
	return &space, nil
}

// CreateSpace inserts a client space and returns the stored version.
func (c *Client) CreateSpace(ctx context.Context, space domain.Space) (*domain.Space, error) {
	rec, err := c.Create(ctx, CollectionClients, domain.Record{
		"name":        space.Name,
		"client_name": space.ClientName,
		"email":       space.Email,
	})
	if err != nil {
		return nil, err
	}
	created := domain.SpaceFromRecord(rec)
	return &created, nil
}

// FindSpaceByShareToken resolves a share token to its space.
// Returns domain.ErrTokenNotFound when no space carries the token.
func (c *Client) FindSpaceByShareToken(ctx context.Context, token string) (*domain.Space, error) {
	res, err := c.List(ctx, CollectionClients, ListOptions{
		Filter: map[string]string{"share_token": token},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("share token lookup: %w", domain.ErrTokenNotFound)
	}
	space := domain.SpaceFromRecord(res.Records[0])
	return &space, nil
}

// UpdateSpaceShare persists a space's share-link state.
func (c *Client) UpdateSpaceShare(ctx context.Context, id string, share domain.ShareConfig) (*domain.Space, error) {
	rec, err := c.Update(ctx, CollectionClients, id, share.ShareToRecord())
	if err != nil {
		return nil, err
	}
	updated := domain.SpaceFromRecord(rec)
	return &updated, nil
}
