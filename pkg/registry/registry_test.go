// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg := Default()
	assert.Empty(t, reg.Validate())

	for _, taskType := range []string{"quick-match", "score-program", "lock-result", "search-programs", "send-shortlist"} {
		a, err := reg.Find(taskType)
		require.NoError(t, err, taskType)
		assert.NotEmpty(t, a.InputSchema)
	}

	_, err := reg.Find("parse-user-intent")
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestValidate(t *testing.T) {
	reg := &ActivityRegistry{
		Activities: []Activity{
			{ID: "matching.plan.create", TaskType: "quick-match", InputSchema: []byte(`{}`), Timeout: "10s"},
			{ID: "matching.plan.create", TaskType: "quick-match", InputSchema: []byte(`{`), Timeout: "soon"},
			{ID: "BadID", Retries: -1},
		},
	}

	errs := reg.Validate()
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}

	assert.Contains(t, msgs, "registry version is empty")
	assert.Contains(t, msgs, `activities[1]: duplicate id "matching.plan.create"`)
	assert.Contains(t, msgs, `activities[1]: duplicate taskType "quick-match"`)
	assert.Contains(t, msgs, "activities[1]: inputSchema is missing or not JSON")
	assert.Contains(t, msgs, `activities[2]: id "BadID" must follow domain.subdomain.action`)
	assert.Contains(t, msgs, "activities[2]: taskType is empty")
	assert.Contains(t, msgs, "activities[2]: retries must not be negative")
	assert.Len(t, errs, 9)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, defaultRegistry, 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Version, reg.Version)

	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))
	_, err = LoadRegistry(path)
	assert.ErrorContains(t, err, "decode registry")
}
