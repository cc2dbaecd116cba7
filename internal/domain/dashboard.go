package domain

import "math"

// RecentLogSize is how many archival entries the dashboard shows.
const RecentLogSize = 5

// SiteBaseline is a site's placeholder completion percentage before any TBM
// is logged in the session.
type SiteBaseline struct {
	Site    string
	Percent int
}

// SiteProgress is one row of the per-site completion listing.
type SiteProgress struct {
	Site    string
	Percent int
}

// DashboardSummary is the head-office aggregate view of a session.
type DashboardSummary struct {
	SiteCount         int
	CompletedSites    int
	CompletionPercent int
	Progress          []SiteProgress
	RecentLog         []LogEntry
}

// BuildDashboard aggregates the session over the catalog sites. A site with a
// TBM record in the session reports 100%; other sites report their baseline.
func BuildDashboard(s *Session, sites []SiteBaseline) DashboardSummary {
	done := make(map[string]bool, len(s.tbm))
	for _, r := range s.tbm {
		if r.Status == TbmComplete {
			done[r.Site] = true
		}
	}

	summary := DashboardSummary{
		SiteCount: len(sites),
		Progress:  make([]SiteProgress, 0, len(sites)),
		RecentLog: s.RecentLog(RecentLogSize),
	}
	for _, site := range sites {
		pct := site.Percent
		if done[site.Site] {
			pct = 100
			summary.CompletedSites++
		}
		summary.Progress = append(summary.Progress, SiteProgress{Site: site.Site, Percent: pct})
	}
	if summary.SiteCount > 0 {
		summary.CompletionPercent = int(math.Round(100 * float64(summary.CompletedSites) / float64(summary.SiteCount)))
	}
	return summary
}
