package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// TbmStatus is the state of a logged Tool Box Meeting.
type TbmStatus string

// TbmComplete is the only status a TBM record can carry.
const TbmComplete TbmStatus = "complete"

// TbmRecord marks a site whose TBM was logged in this session.
type TbmRecord struct {
	Site   string
	Status TbmStatus
}

// TBMSubmission is the TBM form as submitted from the field page.
type TBMSubmission struct {
	Site                string
	Participants        string
	HazardsAcknowledged bool
	Photo               *Attachment
}

// Session is the state of one user session. It is not safe for concurrent
// use; callers serialize access per session.
type Session struct {
	id        string
	createdAt time.Time
	page      Page
	tbm       []TbmRecord
	log       []LogEntry

	// Field page form state.
	siteID       string
	hazardPhoto  *Attachment
	directiveAck bool
}

// NewSession creates a session on the login page with siteID preselected.
func NewSession(id string, createdAt time.Time, siteID string) *Session {
	return &Session{
		id:        id,
		createdAt: createdAt,
		page:      PageLogin,
		siteID:    siteID,
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) Page() Page           { return s.page }
func (s *Session) SelectedSite() string { return s.siteID }

// Navigate applies a navigation action. On error the page is unchanged.
// Leaving the field page discards the hazard photo and the directive
// acknowledgment, so the safety lock is engaged again on return.
func (s *Session) Navigate(a Action) error {
	to, err := Next(s.page, a)
	if err != nil {
		return err
	}
	if s.page == PageFieldManager && to != PageFieldManager {
		s.hazardPhoto = nil
		s.directiveAck = false
	}
	s.page = to
	return nil
}

// SelectSite records the site chosen on the field page. The caller is
// responsible for checking siteID against the catalog.
func (s *Session) SelectSite(siteID string) error {
	if err := s.Require(PageFieldManager); err != nil {
		return err
	}
	s.siteID = siteID
	return nil
}

// SubmitTBM logs a Tool Box Meeting. Both the photo and the hazard
// acknowledgment are required; on success one TbmRecord and one log entry are
// appended.
func (s *Session) SubmitTBM(ctx context.Context, gw ArchivalGateway, at time.Time, sub TBMSubmission) error {
	if err := s.Require(PageFieldManager); err != nil {
		return err
	}
	if sub.Photo == nil || !sub.HazardsAcknowledged {
		return ErrTBMIncomplete
	}

	entry := Entry{
		Timestamp:  at,
		Site:       sub.Site,
		Category:   CategoryTBM,
		Content:    "participants: " + strings.TrimSpace(sub.Participants),
		Attachment: sub.Photo,
	}
	if err := s.archive(ctx, gw, entry); err != nil {
		return err
	}
	s.tbm = append(s.tbm, TbmRecord{Site: sub.Site, Status: TbmComplete})
	return nil
}

// AttachHazardPhoto attaches the protective-measure photo that unlocks the
// start-work action.
func (s *Session) AttachHazardPhoto(photo *Attachment) error {
	if err := s.Require(PageFieldManager); err != nil {
		return err
	}
	if photo == nil {
		return ErrMissingAttachment
	}
	s.hazardPhoto = photo
	return nil
}

// HazardPhoto returns the attached protective-measure photo, or nil.
func (s *Session) HazardPhoto() *Attachment { return s.hazardPhoto }

// StartWorkAvailable reports whether the start-work action may be offered.
func (s *Session) StartWorkAvailable() bool { return s.hazardPhoto != nil }

// ReportWorkStart archives the start of work at site. It is refused while
// the safety lock is engaged.
func (s *Session) ReportWorkStart(ctx context.Context, gw ArchivalGateway, at time.Time, site string) error {
	if err := s.Require(PageFieldManager); err != nil {
		return err
	}
	if !s.StartWorkAvailable() {
		return ErrSafetyLocked
	}
	return s.archive(ctx, gw, Entry{
		Timestamp:  at,
		Site:       site,
		Category:   CategoryHazardReport,
		Content:    "protection confirmed",
		Attachment: s.hazardPhoto,
	})
}

// RequestPlanApproval archives a work-plan approval request. The plan
// attachment is optional.
func (s *Session) RequestPlanApproval(ctx context.Context, gw ArchivalGateway, at time.Time, site, workType string, plan *Attachment) error {
	if err := s.Require(PageFieldManager); err != nil {
		return err
	}
	return s.archive(ctx, gw, Entry{
		Timestamp:  at,
		Site:       site,
		Category:   CategoryWorkPlan,
		Content:    "approval requested: " + workType,
		Attachment: plan,
	})
}

// AcknowledgeDirective marks the head-office directives as read.
func (s *Session) AcknowledgeDirective() error {
	if err := s.Require(PageFieldManager); err != nil {
		return err
	}
	s.directiveAck = true
	return nil
}

func (s *Session) DirectiveAcknowledged() bool { return s.directiveAck }

// TBMRecords returns a copy of the TBM records in submission order.
func (s *Session) TBMRecords() []TbmRecord { return slices.Clone(s.tbm) }

// Log returns a copy of the archival log in chronological order.
func (s *Session) Log() []LogEntry { return slices.Clone(s.log) }

// RecentLog returns up to n of the latest log entries, newest first.
func (s *Session) RecentLog(n int) []LogEntry {
	if n <= 0 {
		return nil
	}
	start := max(len(s.log)-n, 0)
	recent := slices.Clone(s.log[start:])
	slices.Reverse(recent)
	return recent
}

// Require returns ErrWrongPage unless the session is on p.
func (s *Session) Require(p Page) error {
	if s.page != p {
		return fmt.Errorf("%w: on %s, need %s", ErrWrongPage, s.page, p)
	}
	return nil
}

func (s *Session) archive(ctx context.Context, gw ArchivalGateway, entry Entry) error {
	if err := gw.Record(ctx, entry); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveUnavailable, err)
	}
	s.log = append(s.log, entry.LogEntry())
	return nil
}
