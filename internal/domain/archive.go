package domain

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Archive categories.
const (
	CategoryTBM          = "TBM"
	CategoryHazardReport = "hazard-report"
	CategoryWorkPlan     = "work-plan"
)

// Accepted attachment extensions, lower case with the leading dot.
var (
	PhotoExtensions = []string{".jpg", ".jpeg", ".png"}
	PlanExtensions  = []string{".pdf", ".jpg", ".jpeg"}
)

// Attachment is an uploaded file. The core treats it as an opaque handle;
// only archive adapters read Data.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the attachment length in bytes.
func (a *Attachment) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// ValidateAttachment checks the file extension against allowed. A nil
// attachment returns ErrMissingAttachment.
func ValidateAttachment(a *Attachment, allowed []string) error {
	if a == nil {
		return ErrMissingAttachment
	}
	ext := strings.ToLower(filepath.Ext(a.Filename))
	if !slices.Contains(allowed, ext) {
		return fmt.Errorf("%w: %q (allowed %s)", ErrUnsupportedAttachment, a.Filename, strings.Join(allowed, ", "))
	}
	return nil
}

// Entry is what a session hands to an ArchivalGateway.
type Entry struct {
	Timestamp  time.Time
	Site       string
	Category   string
	Content    string
	Attachment *Attachment
}

// Path returns the NAS directory the entry belongs in.
func (e Entry) Path() string {
	return ArchivePath(e.Site, e.Timestamp)
}

// LogEntry converts e into its archival-log form.
func (e Entry) LogEntry() LogEntry {
	return LogEntry{
		Timestamp:     e.Timestamp,
		Site:          e.Site,
		Category:      e.Category,
		Content:       e.Content,
		HasAttachment: e.Attachment != nil,
	}
}

// LogEntry is one line of a session's archival log.
type LogEntry struct {
	Timestamp     time.Time
	Site          string
	Category      string
	Content       string
	HasAttachment bool
}

// String renders the entry the way the dashboard log shows it.
func (l LogEntry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - [NAS 업로드] 경로: %s | 분류: %s | 내용: %s",
		l.Timestamp.Format(time.TimeOnly), ArchivePath(l.Site, l.Timestamp), l.Category, l.Content)
	if l.HasAttachment {
		b.WriteString(" | [사진 첨부됨]")
	}
	return b.String()
}

// ArchivePath returns the NAS share directory for a site on the day of t.
func ArchivePath(site string, t time.Time) string {
	return fmt.Sprintf(`\\NAS\Safety_Data\%s\%s\`, site, t.Format(time.DateOnly))
}

// ArchivalGateway records entries in durable storage.
type ArchivalGateway interface {
	Record(ctx context.Context, entry Entry) error
}
