package db

import (
	"fmt"
	"time"

	"github.com/storematch/internal/engine"
)

// EnsureSchema creates the run tables when they do not exist yet.
func (c *Connection) EnsureSchema() error {
	_, err := c.DB.Exec(`
		CREATE TABLE IF NOT EXISTS resolution_run (
			run_id       text PRIMARY KEY,
			submissions  int NOT NULL,
			resolved     int NOT NULL,
			pairings     int NOT NULL,
			conflicts    int NOT NULL,
			created_at   timestamptz DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create run table: %w", err)
	}

	_, err = c.DB.Exec(`
		CREATE TABLE IF NOT EXISTS run_assignment (
			run_id        text NOT NULL REFERENCES resolution_run(run_id),
			submission_id text NOT NULL,
			form_type     text NOT NULL,
			store_id      int,
			method        text NOT NULL,
			confidence    double precision NOT NULL,
			submitted_at  timestamptz NOT NULL,
			PRIMARY KEY (run_id, submission_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create assignment table: %w", err)
	}

	_, err = c.DB.Exec(`
		CREATE TABLE IF NOT EXISTS run_audit (
			audit_id      bigserial PRIMARY KEY,
			run_id        text NOT NULL REFERENCES resolution_run(run_id),
			submission_id text NOT NULL,
			event         text NOT NULL,
			detail        text NOT NULL,
			recorded_at   timestamptz NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create audit table: %w", err)
	}

	return nil
}

// SaveRun writes one resolution result, its assignments and its audit
// trail in a single transaction.
func (c *Connection) SaveRun(res *engine.Result) error {
	if err := c.EnsureSchema(); err != nil {
		return err
	}

	tx, err := c.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	resolved := 0
	for _, s := range res.Submissions {
		if s.Resolved() {
			resolved++
		}
	}

	_, err = tx.Exec(`
		INSERT INTO resolution_run (run_id, submissions, resolved, pairings, conflicts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, res.RunID, len(res.Submissions), resolved, len(res.Pairings), len(res.Conflicts), time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", res.RunID, err)
	}

	for _, s := range res.Submissions {
		var storeID interface{}
		if s.Resolved() {
			storeID = s.StoreID
		}
		_, err = tx.Exec(`
			INSERT INTO run_assignment (run_id, submission_id, form_type, store_id, method, confidence, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, res.RunID, s.ID, string(s.FormType), storeID, string(s.Method), s.Confidence, s.SubmittedAt)
		if err != nil {
			return fmt.Errorf("failed to insert assignment %s: %w", s.ID, err)
		}
	}

	for _, e := range res.Audit.Entries() {
		_, err = tx.Exec(`
			INSERT INTO run_audit (run_id, submission_id, event, detail, recorded_at)
			VALUES ($1, $2, $3, $4, $5)
		`, res.RunID, e.SubmissionID, string(e.Event), e.Detail, e.DecidedAt)
		if err != nil {
			return fmt.Errorf("failed to insert audit entry for %s: %w", e.SubmissionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", res.RunID, err)
	}
	return nil
}
