// Package catalog loads the site catalog: the construction sites, their work
// periods, the work types that need a plan approval, and the static text the
// pages show.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

//go:embed default.yaml
var defaultYAML []byte

// Catalog is the static configuration behind every session.
type Catalog struct {
	Company             string   `yaml:"company"`
	Title               string   `yaml:"title"`
	Greeting            string   `yaml:"greeting"`
	DefaultParticipants string   `yaml:"default_participants"`
	Sites               []Site   `yaml:"sites"`
	WorkTypes           []string `yaml:"work_types"`
	EmergencyTargets    []string `yaml:"emergency_targets"`
	Guides              []Guide  `yaml:"guides"`
}

// Site is a construction site.
type Site struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Period   Period `yaml:"period"`
	Baseline int    `yaml:"baseline"` // dashboard completion placeholder, percent
}

// Period is a site's construction period as YYYY-MM-DD dates.
type Period struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// String formats the period the way the field page shows it.
func (p Period) String() string {
	start, err1 := time.Parse(time.DateOnly, p.Start)
	end, err2 := time.Parse(time.DateOnly, p.End)
	if err1 != nil || err2 != nil {
		return p.Start + " ~ " + p.End
	}
	return start.Format("2006.01.02") + " ~ " + end.Format("2006.01.02")
}

// Guide is a collapsible Markdown section on the login page.
type Guide struct {
	Title    string `yaml:"title"`
	Markdown string `yaml:"markdown"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path returns the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Sites) == 0 {
		return errors.New("at least one site is required")
	}
	seen := make(map[string]bool, len(c.Sites))
	for _, s := range c.Sites {
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("site %q: id and name are required", s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("site %q: duplicate id", s.ID)
		}
		seen[s.ID] = true
		if s.Baseline < 0 || s.Baseline > 100 {
			return fmt.Errorf("site %q: baseline must be between 0 and 100", s.ID)
		}
		start, err := time.Parse(time.DateOnly, s.Period.Start)
		if err != nil {
			return fmt.Errorf("site %q: invalid period start: %w", s.ID, err)
		}
		end, err := time.Parse(time.DateOnly, s.Period.End)
		if err != nil {
			return fmt.Errorf("site %q: invalid period end: %w", s.ID, err)
		}
		if end.Before(start) {
			return fmt.Errorf("site %q: period ends before it starts", s.ID)
		}
	}
	if len(c.WorkTypes) == 0 {
		return errors.New("at least one work type is required")
	}
	if len(c.EmergencyTargets) == 0 {
		return errors.New("at least one emergency target is required")
	}
	return nil
}

// Site looks up a site by id.
func (c *Catalog) Site(id string) (Site, bool) {
	i := slices.IndexFunc(c.Sites, func(s Site) bool { return s.ID == id })
	if i < 0 {
		return Site{}, false
	}
	return c.Sites[i], true
}

// HasWorkType reports whether workType is in the catalog.
func (c *Catalog) HasWorkType(workType string) bool {
	return slices.Contains(c.WorkTypes, workType)
}

// HasEmergencyTarget reports whether target is in the catalog.
func (c *Catalog) HasEmergencyTarget(target string) bool {
	return slices.Contains(c.EmergencyTargets, target)
}

// Baselines returns the dashboard baselines keyed by site name, in catalog order.
func (c *Catalog) Baselines() []domain.SiteBaseline {
	out := make([]domain.SiteBaseline, len(c.Sites))
	for i, s := range c.Sites {
		out[i] = domain.SiteBaseline{Site: s.Name, Percent: s.Baseline}
	}
	return out
}
