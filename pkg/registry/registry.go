package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"onboarding-workers/internal/common/validation"
)

func New(version string) *ActivityRegistry {
	return &ActivityRegistry{Version: version}
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON, creating the parent directory if needed.
func (r *ActivityRegistry) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Upsert adds the activity or replaces the one with the same ID. Activities stay sorted by ID.
func (r *ActivityRegistry) Upsert(a Activity) error {
	if err := validateActivity(a); err != nil {
		return err
	}

	replaced := false
	for i := range r.Activities {
		if r.Activities[i].ID == a.ID {
			r.Activities[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		r.Activities = append(r.Activities, a)
	}
	sort.Slice(r.Activities, func(i, j int) bool { return r.Activities[i].ID < r.Activities[j].ID })
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Find returns the activity registered for a task type.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Validate checks every activity and reports duplicate IDs and task types.
func (r *ActivityRegistry) Validate() []error {
	var errs []error
	ids := map[string]bool{}
	taskTypes := map[string]bool{}

	for _, a := range r.Activities {
		if err := validateActivity(a); err != nil {
			errs = append(errs, err)
		}
		if ids[a.ID] {
			errs = append(errs, fmt.Errorf("duplicate activity id %q", a.ID))
		}
		if taskTypes[a.TaskType] {
			errs = append(errs, fmt.Errorf("duplicate task type %q", a.TaskType))
		}
		ids[a.ID] = true
		taskTypes[a.TaskType] = true
	}
	return errs
}

func validateActivity(a Activity) error {
	if a.ID == "" {
		return fmt.Errorf("activity id is required")
	}
	if err := validation.ValidateActivityNaming(a.TaskType); err != nil {
		return fmt.Errorf("activity %s: %w", a.ID, err)
	}
	switch a.ImplementationStatus {
	case "", StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified:
	default:
		return fmt.Errorf("activity %s: unknown implementation status %q", a.ID, a.ImplementationStatus)
	}
	if a.Timeout != "" {
		if _, err := time.ParseDuration(a.Timeout); err != nil {
			return fmt.Errorf("activity %s: invalid timeout %q", a.ID, a.Timeout)
		}
	}
	return nil
}

// SchemaMap converts a typed schema into the generic form stored in the registry.
func SchemaMap(schema interface{}) map[string]interface{} {
	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}
