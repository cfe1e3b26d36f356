package transfer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// Result reports what an import did. Recoverable conditions (structural
// problems, duplicate sprints) land in Errors and Warnings instead of being
// raised; when Errors is non-empty nothing was persisted.
type Result struct {
	SprintsImported  int      `json:"sprints_imported"`
	GoalsImported    int      `json:"goals_imported"`
	CriteriaImported int      `json:"criteria_imported"`
	Skipped          int      `json:"skipped"`
	Warnings         []string `json:"warnings,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// Import loads a document into the store. The whole document is structurally
// validated first; any problem fails the import with all problems collected
// in the result and zero rows persisted. A valid document is applied in one
// transaction: sprints whose ID already exists are replaced when overwrite is
// set, otherwise skipped together with their subtree and recorded as a
// warning. Fields are written verbatim, original identifiers and timestamps
// included.
//
// The returned error is reserved for input that is not JSON at all; every
// in-document condition is reported through the Result.
func (s *Service) Import(ctx context.Context, data []byte, overwrite bool) (*Result, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	result := &Result{}
	if errs := validateDocument(raw); len(errs) > 0 {
		result.Errors = errs
		return result, nil
	}

	// The shape is known good now, so the typed decode cannot fail on
	// structure; re-decoding beats hand-assembling the tree from maps.
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}

	applied := Result{Warnings: result.Warnings}
	err := s.store.Transact(ctx, func(tx types.Store) error {
		for _, record := range doc.Sprints {
			exists, err := tx.SprintExists(ctx, record.Sprint.ID)
			if err != nil {
				return err
			}
			if exists {
				if !overwrite {
					applied.Skipped++
					applied.Warnings = append(applied.Warnings,
						fmt.Sprintf("sprint %s already exists, skipped", record.Sprint.ID))
					continue
				}
				if _, err := tx.DeleteSprint(ctx, record.Sprint.ID); err != nil {
					return err
				}
			}
			if err := importSprint(ctx, tx, record, &applied); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// The transaction rolled back; none of the counted rows survived.
		result.Errors = append(result.Errors, fmt.Sprintf("import transaction failed: %v", err))
		return result, nil
	}
	return &applied, nil
}

func importSprint(ctx context.Context, tx types.Store, record SprintRecord, result *Result) error {
	sprint := record.Sprint
	if err := tx.CreateSprint(ctx, &sprint); err != nil {
		return fmt.Errorf("sprint %s: %w", sprint.ID, err)
	}
	result.SprintsImported++
	for _, grec := range record.Goals {
		goal := grec.Goal
		if err := tx.CreateGoal(ctx, &goal); err != nil {
			return fmt.Errorf("goal %s: %w", goal.ID, err)
		}
		result.GoalsImported++
		for _, crec := range grec.SuccessCriteria {
			crit := crec
			if err := tx.CreateCriterion(ctx, &crit); err != nil {
				return fmt.Errorf("criterion %s: %w", crit.ID, err)
			}
			result.CriteriaImported++
		}
	}
	return nil
}
