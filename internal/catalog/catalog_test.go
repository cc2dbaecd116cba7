package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

const minimalCatalog = `
sites:
  - id: incheon
    name: 인천
    period: { start: "2026-03-01", end: "2026-03-31" }
work_types: [크레인]
emergency_targets: [전체 현장]
`

func TestDefault(t *testing.T) {
	c := Default()

	assert.Len(t, c.Sites, 6)
	assert.Equal(t, []string{"지게차", "크레인", "스카이(고소작업차)"}, c.WorkTypes)
	assert.Len(t, c.Guides, 2)
	assert.Equal(t, "스마트 안전보건 관리 시스템", c.Title)
	assert.Contains(t, c.Greeting, "안녕하세요")
	assert.Equal(t, "📜 [필독] 산업안전보건법 제15조 (관리감독자)", c.Guides[0].Title)

	site, ok := c.Site("pyeongtaek")
	require.True(t, ok)
	assert.Equal(t, "경기-평택", site.Name)
	assert.Equal(t, 50, site.Baseline)
	assert.Equal(t, "2026.01.20 ~ 2026.02.15", site.Period.String())

	_, ok = c.Site("busan")
	assert.False(t, ok)
}

func TestBaselines(t *testing.T) {
	got := Default().Baselines()
	require.Len(t, got, 6)
	assert.Equal(t, domain.SiteBaseline{Site: "경기-안성", Percent: 100}, got[0])
	assert.Equal(t, domain.SiteBaseline{Site: "충청권", Percent: 0}, got[5])
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalCatalog), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Sites, 1)
	assert.True(t, c.HasWorkType("크레인"))
	assert.False(t, c.HasWorkType("지게차"))
	assert.True(t, c.HasEmergencyTarget("전체 현장"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read catalog")
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"no sites":        "work_types: [a]\nemergency_targets: [b]\n",
		"duplicate id":    "sites:\n  - {id: a, name: A, period: {start: 2026-01-01, end: 2026-01-02}}\n  - {id: a, name: B, period: {start: 2026-01-01, end: 2026-01-02}}\nwork_types: [x]\nemergency_targets: [y]\n",
		"bad baseline":    "sites:\n  - {id: a, name: A, baseline: 101, period: {start: 2026-01-01, end: 2026-01-02}}\nwork_types: [x]\nemergency_targets: [y]\n",
		"reversed period": "sites:\n  - {id: a, name: A, period: {start: 2026-02-01, end: 2026-01-02}}\nwork_types: [x]\nemergency_targets: [y]\n",
		"bad date":        "sites:\n  - {id: a, name: A, period: {start: soon, end: 2026-01-02}}\nwork_types: [x]\nemergency_targets: [y]\n",
		"no work types":   "sites:\n  - {id: a, name: A, period: {start: 2026-01-01, end: 2026-01-02}}\nemergency_targets: [y]\n",
		"no targets":      "sites:\n  - {id: a, name: A, period: {start: 2026-01-01, end: 2026-01-02}}\nwork_types: [x]\n",
		"not yaml":        "sites: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}
}
