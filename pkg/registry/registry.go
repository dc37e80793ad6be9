// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"
)

//go:embed activities.json
var defaultRegistry []byte

var (
	ErrActivityNotFound = errors.New("activity not found")

	activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)
)

// Default returns the registry compiled into the binary.
func Default() *ActivityRegistry {
	reg, err := Parse(defaultRegistry)
	if err != nil {
		panic(fmt.Sprintf("embedded activity registry is invalid: %v", err))
	}
	return reg
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity serving taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, error) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrActivityNotFound, taskType)
}

// Validate reports every structural problem found, not just the first.
func (r *ActivityRegistry) Validate() []error {
	var errs []error
	if r.Version == "" {
		errs = append(errs, errors.New("registry version is empty"))
	}

	ids := map[string]bool{}
	taskTypes := map[string]bool{}
	for i, a := range r.Activities {
		where := fmt.Sprintf("activities[%d]", i)
		if !activityIDPattern.MatchString(a.ID) {
			errs = append(errs, fmt.Errorf("%s: id %q must follow domain.subdomain.action", where, a.ID))
		}
		if ids[a.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id %q", where, a.ID))
		}
		ids[a.ID] = true

		if a.TaskType == "" {
			errs = append(errs, fmt.Errorf("%s: taskType is empty", where))
		} else if taskTypes[a.TaskType] {
			errs = append(errs, fmt.Errorf("%s: duplicate taskType %q", where, a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if len(a.InputSchema) == 0 || !json.Valid(a.InputSchema) {
			errs = append(errs, fmt.Errorf("%s: inputSchema is missing or not JSON", where))
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				errs = append(errs, fmt.Errorf("%s: timeout %q: %v", where, a.Timeout, err))
			}
		}
		if a.Retries < 0 {
			errs = append(errs, fmt.Errorf("%s: retries must not be negative", where))
		}
	}
	return errs
}
