// internal/catalog/snapshot_test.go
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotYAML = `
schools:
  - id: s-ucl
    name: 伦敦大学学院
    country: 英国
    city: 伦敦
    ranking: 9
  - id: s-melb
    name: 墨尔本大学
    country: 澳大利亚
  - id: s-man
    name: 曼彻斯特大学
    country: 英国
    city: 曼彻斯特
    ranking: 32
programs:
  - id: p-ucl-cs
    schoolId: s-ucl
    name: 计算机科学硕士
    degree: master
    tuitionFee: "¥380,000"
  - id: p-man-ds
    schoolId: s-man
    name: 数据科学硕士
`

func writeSnapshot(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSnapshot_YAML(t *testing.T) {
	snap, err := LoadSnapshot(writeSnapshot(t, "catalog.yaml", snapshotYAML))
	require.NoError(t, err)

	require.Len(t, snap.Schools, 3)
	assert.Equal(t, "英国 伦敦", snap.Schools[0].Location)
	assert.Equal(t, "澳大利亚", snap.Schools[1].Location)
	assert.Equal(t, "未知", snap.Programs[1].Degree)

	p := NewMemoryProvider(snap)
	ctx := context.Background()

	uk, err := p.Schools(ctx, []string{"英国"})
	require.NoError(t, err)
	require.Len(t, uk, 2)
	assert.Equal(t, "s-ucl", uk[0].ID)
	assert.Equal(t, "s-man", uk[1].ID)

	all, err := p.Schools(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "s-melb", all[2].ID, "unranked schools sort last")

	programs, err := p.Programs(ctx, []string{"s-man"})
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "p-man-ds", programs[0].ID)

	_, err = p.School(ctx, "s-nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadSnapshot_JSON(t *testing.T) {
	body := `{"schools":[{"id":"s-1","name":"多伦多大学","country":"加拿大","ranking":21}],
	          "programs":[{"id":"p-1","schoolId":"s-1","name":"MEng","url":"https://example.edu/meng"}]}`

	snap, err := LoadSnapshot(writeSnapshot(t, "catalog.json", body))
	require.NoError(t, err)
	assert.Equal(t, 21, *snap.Schools[0].Ranking)
	assert.Equal(t, "https://example.edu/meng", snap.Programs[0].URL)
}

func TestLoadSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing school name",
			body: "schools:\n  - id: s-1\n",
			want: "Name",
		},
		{
			name: "non-positive ranking",
			body: "schools:\n  - id: s-1\n    name: A\n    ranking: -3\n",
			want: "Ranking",
		},
		{
			name: "duplicate school",
			body: "schools:\n  - {id: s-1, name: A}\n  - {id: s-1, name: B}\n",
			want: "duplicate school id",
		},
		{
			name: "dangling program",
			body: "schools:\n  - {id: s-1, name: A}\nprograms:\n  - {id: p-1, schoolId: s-9}\n",
			want: "unknown school",
		},
		{
			name: "bad url",
			body: "schools:\n  - {id: s-1, name: A}\nprograms:\n  - {id: p-1, schoolId: s-1, url: not a url}\n",
			want: "URL",
		},
		{
			name: "malformed yaml",
			body: "schools: [",
			want: "decode snapshot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSnapshot(writeSnapshot(t, "catalog.yaml", tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read snapshot")
}
