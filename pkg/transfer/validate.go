package transfer

import (
	"fmt"
	"math"
	"time"

	"github.com/jwdebruin/sprintplan/pkg/types"
)

// seenIDs tracks identifiers across the whole document so a repeated entity
// is reported where it recurs. Without this the backends would disagree on
// what a repeated ID means.
type seenIDs struct {
	sprints  map[string]bool
	goals    map[string]bool
	criteria map[string]bool
}

func newSeenIDs() *seenIDs {
	return &seenIDs{
		sprints:  make(map[string]bool),
		goals:    make(map[string]bool),
		criteria: make(map[string]bool),
	}
}

// validateDocument walks the decoded generic JSON and collects every
// structural problem as a path-prefixed message. It never stops at the first
// problem; the caller decides validity from the returned list being empty.
func validateDocument(raw map[string]any) []string {
	var errs []string
	addf := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}
	seen := newSeenIDs()

	if v, ok := raw["version"]; ok {
		if _, ok := v.(string); !ok {
			addf("version: must be a string")
		}
	}

	sprintsRaw, ok := raw["sprints"]
	if !ok {
		addf("sprints: missing")
		return errs
	}
	sprints, ok := sprintsRaw.([]any)
	if !ok {
		addf("sprints: must be an array")
		return errs
	}

	for i, el := range sprints {
		sprint, ok := el.(map[string]any)
		if !ok {
			addf("Sprint[%d]: must be an object", i)
			continue
		}
		validateSprint(fmt.Sprintf("Sprint[%d]", i), sprint, seen, addf)
	}
	return errs
}

func validateSprint(path string, m map[string]any, seen *seenIDs, addf func(string, ...any)) {
	id := checkID(path+".id", m["id"], addf)
	if id != "" {
		if seen.sprints[id] {
			addf("%s.id: duplicate sprint id", path)
		}
		seen.sprints[id] = true
	}

	if n, ok := m["volgnummer"].(float64); !ok || n < 1 || n != math.Trunc(n) {
		addf("%s.volgnummer: must be a positive integer", path)
	}

	start, startOK := checkDate(path+".startdatum", m["startdatum"], addf)
	end, endOK := checkDate(path+".einddatum", m["einddatum"], addf)
	if startOK && endOK && end <= start {
		addf("%s.einddatum: must be after startdatum", path)
	}

	goals, ok := optionalArray(path+".goals", m["goals"], addf)
	if !ok {
		return
	}
	for j, el := range goals {
		gpath := fmt.Sprintf("%s.goals[%d]", path, j)
		goal, ok := el.(map[string]any)
		if !ok {
			addf("%s: must be an object", gpath)
			continue
		}
		validateGoal(gpath, id, goal, seen, addf)
	}
}

func validateGoal(path, sprintID string, m map[string]any, seen *seenIDs, addf func(string, ...any)) {
	id := checkID(path+".id", m["id"], addf)
	if id != "" {
		if seen.goals[id] {
			addf("%s.id: duplicate goal id", path)
		}
		seen.goals[id] = true
	}

	if ref, ok := m["sprint_id"].(string); !ok || (sprintID != "" && ref != sprintID) {
		addf("%s.sprint_id: must match the enclosing sprint id", path)
	}
	checkString(path+".titel", m["titel"], 1, types.GoalTitleMax, false, addf)
	checkString(path+".beschrijving", m["beschrijving"], 0, types.GoalDescriptionMax, false, addf)
	checkString(path+".eigenaar", m["eigenaar"], 1, types.GoalOwnerMax, false, addf)

	if n, ok := m["geschatte_uren"].(float64); !ok || !types.ValidHours(n) {
		addf("%s.geschatte_uren: must be a non-negative number in 0.25 increments", path)
	}
	if v, ok := m["werkelijke_uren"]; ok && v != nil {
		if n, ok := v.(float64); !ok || !types.ValidHours(n) {
			addf("%s.werkelijke_uren: must be null or a non-negative number in 0.25 increments", path)
		}
	}
	if v, ok := m["behaald"]; ok && v != nil {
		if _, ok := v.(bool); !ok {
			addf("%s.behaald: must be true, false, or null", path)
		}
	}
	checkString(path+".toelichting", m["toelichting"], 0, types.GoalNoteMax, true, addf)
	checkString(path+".geleerde_lessen", m["geleerde_lessen"], 0, types.GoalNoteMax, true, addf)
	checkTimestamp(path+".aangemaakt_op", m["aangemaakt_op"], addf)
	checkTimestamp(path+".gewijzigd_op", m["gewijzigd_op"], addf)

	criteria, ok := optionalArray(path+".success_criteria", m["success_criteria"], addf)
	if !ok {
		return
	}
	for k, el := range criteria {
		cpath := fmt.Sprintf("%s.success_criteria[%d]", path, k)
		crit, ok := el.(map[string]any)
		if !ok {
			addf("%s: must be an object", cpath)
			continue
		}
		validateCriterion(cpath, id, crit, seen, addf)
	}
}

func validateCriterion(path, goalID string, m map[string]any, seen *seenIDs, addf func(string, ...any)) {
	if id := checkID(path+".id", m["id"], addf); id != "" {
		if seen.criteria[id] {
			addf("%s.id: duplicate criterion id", path)
		}
		seen.criteria[id] = true
	}
	if ref, ok := m["goal_id"].(string); !ok || (goalID != "" && ref != goalID) {
		addf("%s.goal_id: must match the enclosing goal id", path)
	}
	checkString(path+".beschrijving", m["beschrijving"], 1, types.CriterionDescriptionMax, false, addf)
	if _, ok := m["voltooid"].(bool); !ok {
		addf("%s.voltooid: must be a boolean", path)
	}
}

// optionalArray accepts a missing child-entity list but rejects any other
// non-array value.
func optionalArray(path string, v any, addf func(string, ...any)) ([]any, bool) {
	if v == nil {
		return nil, true
	}
	arr, ok := v.([]any)
	if !ok {
		addf("%s: must be an array", path)
		return nil, false
	}
	return arr, true
}

// checkID validates a unique-token field and returns its value when valid,
// so enclosing entities can match child references against it.
func checkID(path string, v any, addf func(string, ...any)) string {
	id, ok := v.(string)
	if !ok || !types.ValidID(id) {
		addf("%s: must be a valid identifier", path)
		return ""
	}
	return id
}

// checkString validates a string field with rune-length bounds. When
// nullable, null and absent are accepted.
func checkString(path string, v any, min, max int, nullable bool, addf func(string, ...any)) {
	if v == nil {
		if nullable && min == 0 {
			return
		}
	}
	s, ok := v.(string)
	if !ok || len([]rune(s)) < min || len([]rune(s)) > max {
		if nullable {
			addf("%s: must be null or a string (at most %d chars)", path, max)
		} else if min > 0 {
			addf("%s: must be a string (%d-%d chars)", path, min, max)
		} else {
			addf("%s: must be a string (at most %d chars)", path, max)
		}
	}
}

func checkDate(path string, v any, addf func(string, ...any)) (string, bool) {
	s, ok := v.(string)
	if !ok || !types.ValidDate(s) {
		addf("%s: must be a YYYY-MM-DD date", path)
		return "", false
	}
	return s, true
}

func checkTimestamp(path string, v any, addf func(string, ...any)) {
	s, ok := v.(string)
	if !ok {
		addf("%s: must be an ISO-8601 timestamp", path)
		return
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			addf("%s: must be an ISO-8601 timestamp", path)
		}
	}
}
