package domain

import (
	"strconv"
	"strings"
	"time"
)

// Record is a raw backend row: a flat mapping of field name to value.
// The hosted store is loose about column naming (several synonyms may
// exist for one logical field), so every Record is translated into a
// typed domain value right here, at the gateway boundary. Synonym
// fallback logic must never leak past this file.
type Record map[string]any

// Field synonym sets, first name wins on write.
var (
	fieldSpaceID = []string{"space_id", "projet_id", "project_id", "client_id"}
	fieldTitle   = []string{"title", "titre", "name", "nom"}
	fieldStatus  = []string{"status", "statut", "etat"}
	fieldAmount  = []string{"amount", "montant"}
	fieldCost    = []string{"cost", "cout", "investment"}
	fieldDueDate = []string{"due_date", "echeance", "deadline"}
	fieldEmail   = []string{"email", "courriel"}
)

// String returns the first non-empty string among the synonym keys.
func (r Record) String(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// Float returns the first numeric value among the synonym keys. Numbers
// arriving as JSON strings are tolerated.
func (r Record) Float(keys ...string) float64 {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// Int returns the first integer value among the synonym keys.
func (r Record) Int(keys ...string) int {
	return int(r.Float(keys...))
}

// Bool returns the first boolean value among the synonym keys.
// "true"/"1" strings and nonzero numbers are tolerated.
func (r Record) Bool(keys ...string) bool {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case string:
			return b == "true" || b == "1"
		case float64:
			return b != 0
		}
	}
	return false
}

// Time parses the first RFC 3339 or date-only value among the synonym keys.
func (r Record) Time(keys ...string) *time.Time {
	for _, k := range keys {
		s := r.String(k)
		if s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
	}
	return nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// TaskFromRecord maps a raw task row to a Task.
func TaskFromRecord(r Record) Task {
	return Task{
		ID:        r.String("id"),
		SpaceID:   r.String(fieldSpaceID...),
		Title:     r.String(fieldTitle...),
		Status:    TaskStatus(r.String(fieldStatus...)),
		Billable:  r.Bool("billable", "facturable"),
		Hours:     r.Float("hours", "heures", "time_spent"),
		Cost:      r.Float(fieldCost...),
		Amount:    r.Float(fieldAmount...),
		DueDate:   r.Time(fieldDueDate...),
		CreatedAt: timeOrZero(r.Time("created_at")),
	}
}

// ToRecord maps a Task to the canonical write payload.
func (t Task) ToRecord() Record {
	rec := Record{
		"space_id": t.SpaceID,
		"title":    t.Title,
		"status":   string(t.Status),
		"billable": t.Billable,
		"hours":    t.Hours,
		"cost":     t.Cost,
		"amount":   t.Amount,
	}
	if t.DueDate != nil {
		rec["due_date"] = t.DueDate.Format("2006-01-02")
	}
	return rec
}

// MilestoneFromRecord maps a raw milestone row to a Milestone.
func MilestoneFromRecord(r Record) Milestone {
	return Milestone{
		ID:       r.String("id"),
		SpaceID:  r.String(fieldSpaceID...),
		Title:    r.String(fieldTitle...),
		Status:   MilestoneStatus(r.String(fieldStatus...)),
		Progress: r.Int("progress", "avancement"),
		DueDate:  r.Time(fieldDueDate...),
	}
}

// InvoiceFromRecord maps a raw invoice row to an Invoice.
func InvoiceFromRecord(r Record) Invoice {
	return Invoice{
		ID:       r.String("id"),
		SpaceID:  r.String(fieldSpaceID...),
		Number:   r.String("number", "numero", "reference"),
		Amount:   r.Float(fieldAmount...),
		Status:   InvoiceStatus(r.String(fieldStatus...)),
		IssuedAt: r.Time("issued_at", "date_emission"),
		PaidAt:   r.Time("paid_at", "date_paiement"),
	}
}

// ToRecord maps an Invoice to the canonical write payload.
func (i Invoice) ToRecord() Record {
	rec := Record{
		"space_id": i.SpaceID,
		"number":   i.Number,
		"amount":   i.Amount,
		"status":   string(i.Status),
	}
	if i.IssuedAt != nil {
		rec["issued_at"] = i.IssuedAt.Format(time.RFC3339)
	}
	if i.PaidAt != nil {
		rec["paid_at"] = i.PaidAt.Format(time.RFC3339)
	}
	return rec
}

// ProspectFromRecord maps a raw prospect row to a Prospect.
func ProspectFromRecord(r Record) Prospect {
	return Prospect{
		ID:        r.String("id"),
		Name:      r.String(fieldTitle...),
		Email:     r.String(fieldEmail...),
		Stage:     ProspectStage(r.String("stage", "etape", "status")),
		Value:     r.Float("value", "valeur", "montant"),
		CreatedAt: timeOrZero(r.Time("created_at")),
	}
}

// ToRecord maps a Prospect to the canonical write payload.
func (p Prospect) ToRecord() Record {
	return Record{
		"name":  p.Name,
		"email": p.Email,
		"stage": string(p.Stage),
		"value": p.Value,
	}
}

// SpaceFromRecord maps a raw client row to a Space, including the embedded
// share-link fields.
func SpaceFromRecord(r Record) Space {
	return Space{
		ID:         r.String("id"),
		Name:       r.String(fieldTitle...),
		ClientName: r.String("client_name", "client"),
		Email:      r.String(fieldEmail...),
		Archived:   r.Bool("archived", "archive"),
		Share: ShareConfig{
			Token:        r.String("share_token", "token_partage"),
			Enabled:      r.Bool("share_enabled", "partage_actif"),
			PasswordHash: r.String("share_password_hash"),
		},
		CreatedAt: timeOrZero(r.Time("created_at")),
	}
}

// ShareToRecord maps a ShareConfig to the canonical write payload.
func (s ShareConfig) ShareToRecord() Record {
	return Record{
		"share_token":         s.Token,
		"share_enabled":       s.Enabled,
		"share_password_hash": s.PasswordHash,
	}
}
