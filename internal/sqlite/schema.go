package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema DDL. The CHECK constraints mirror the rules in pkg/types so that the
// database rejects invalid rows even when the service layer is bypassed.
// Quarter-hour quantization holds when uren*4 has no fractional part.
const (
	createSprints = `CREATE TABLE sprints (
    id TEXT PRIMARY KEY,
    volgnummer INTEGER NOT NULL UNIQUE CHECK (volgnummer >= 1),
    startdatum TEXT NOT NULL CHECK (length(startdatum) = 10),
    einddatum TEXT NOT NULL CHECK (length(einddatum) = 10),
    CHECK (einddatum > startdatum)
);`

	createGoals = `CREATE TABLE goals (
    id TEXT PRIMARY KEY,
    sprint_id TEXT NOT NULL REFERENCES sprints(id) ON DELETE CASCADE,
    titel TEXT NOT NULL CHECK (length(titel) BETWEEN 1 AND 200),
    beschrijving TEXT NOT NULL DEFAULT '' CHECK (length(beschrijving) <= 2000),
    eigenaar TEXT NOT NULL CHECK (length(eigenaar) BETWEEN 1 AND 50),
    geschatte_uren REAL NOT NULL
        CHECK (geschatte_uren >= 0 AND geschatte_uren * 4 = CAST(geschatte_uren * 4 AS INTEGER)),
    werkelijke_uren REAL
        CHECK (werkelijke_uren IS NULL
            OR (werkelijke_uren >= 0 AND werkelijke_uren * 4 = CAST(werkelijke_uren * 4 AS INTEGER))),
    behaald INTEGER CHECK (behaald IN (0, 1)),
    toelichting TEXT CHECK (toelichting IS NULL OR length(toelichting) <= 2000),
    geleerde_lessen TEXT CHECK (geleerde_lessen IS NULL OR length(geleerde_lessen) <= 2000),
    aangemaakt_op TEXT NOT NULL,
    gewijzigd_op TEXT NOT NULL
);`

	createCriteria = `CREATE TABLE criteria (
    id TEXT PRIMARY KEY,
    goal_id TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
    beschrijving TEXT NOT NULL CHECK (length(beschrijving) BETWEEN 1 AND 500),
    voltooid INTEGER NOT NULL DEFAULT 0 CHECK (voltooid IN (0, 1))
);`

	idxGoalsSprint  = `CREATE INDEX idx_goals_sprint ON goals(sprint_id);`
	idxGoalsOwner   = `CREATE INDEX idx_goals_eigenaar ON goals(eigenaar);`
	idxCriteriaGoal = `CREATE INDEX idx_criteria_goal ON criteria(goal_id);`
	idxSprintsDates = `CREATE INDEX idx_sprints_dates ON sprints(startdatum, einddatum);`
)

// migration is one additive schema step. Destructive changes are not allowed;
// a new requirement gets a new version appended to the list.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			createSprints,
			createGoals,
			createCriteria,
			idxGoalsSprint,
			idxGoalsOwner,
			idxCriteriaGoal,
			idxSprintsDates,
		},
	},
}

// migrate brings the database to the newest schema version. Each pending
// migration applies atomically together with its version record, so a crash
// mid-upgrade never leaves a half-applied version behind. Idempotent.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("creating schema_version: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if current.Valid && int64(m.version) <= current.Int64 {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.version, err)
		}
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("applying migration %d: %w", m.version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
	}
	return nil
}
