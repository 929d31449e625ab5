package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	leadform "github.com/phbpx/leadform"
)

const insertLead = `
	INSERT INTO leads (
		id, name, email, phone, message, submitted_at, status
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7
	)`

// Ledger implements leadform.Ledger on the leads table.
type Ledger struct {
	db    *sql.DB
	newID func() string
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		db:    db,
		newID: uuid.NewString,
	}
}

// Append inserts entry as a new leads row. Duplicates are accepted.
func (l *Ledger) Append(ctx context.Context, entry leadform.Entry) error {
	_, err := l.db.ExecContext(ctx, insertLead,
		l.newID(),
		entry.Name,
		entry.Email,
		entry.Phone,
		entry.Message,
		entry.Timestamp,
		entry.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting lead: %w", err)
	}
	return nil
}
