package desk

import (
	"context"
	"errors"

	"github.com/couchcryptid/site-safety-desk/internal/catalog"
	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// NoticeLevel selects how a notice is styled.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeError   NoticeLevel = "error"
	NoticeAlert   NoticeLevel = "alert"
)

// Notice is a one-shot message shown on the next render.
type Notice struct {
	Level   NoticeLevel
	Message string
}

func success(msg string) *Notice { return &Notice{Level: NoticeSuccess, Message: msg} }
func info(msg string) *Notice    { return &Notice{Level: NoticeInfo, Message: msg} }
func alert(msg string) *Notice   { return &Notice{Level: NoticeAlert, Message: msg} }

var noticeMessages = []struct {
	err error
	msg string
}{
	{domain.ErrTBMIncomplete, "사진 업로드 및 위험요인 체크는 필수입니다."},
	{domain.ErrSafetyLocked, "📷 사진을 등록해야 '작업 시작' 버튼이 나타납니다."},
	{domain.ErrMissingAttachment, "사진을 첨부하세요."},
	{domain.ErrUnsupportedAttachment, "지원하지 않는 파일 형식입니다."},
	{domain.ErrUnknownSite, "등록되지 않은 현장입니다."},
	{domain.ErrUnknownWorkType, "등록되지 않은 작업 종류입니다."},
	{domain.ErrUnknownTarget, "등록되지 않은 대상 현장입니다."},
	{domain.ErrArchiveUnavailable, "NAS 서버 전송에 실패했습니다. 다시 시도하세요."},
	{domain.ErrWrongPage, "현재 화면에서 할 수 없는 작업입니다."},
	{domain.ErrInvalidTransition, "현재 화면에서 할 수 없는 이동입니다."},
}

func noticeFor(err error) *Notice {
	for _, m := range noticeMessages {
		if errors.Is(err, m.err) {
			return &Notice{Level: NoticeError, Message: m.msg}
		}
	}
	return &Notice{Level: NoticeError, Message: "요청을 처리하지 못했습니다."}
}

// View is everything needed to render the session's current page. Exactly
// one of Login, Field and Dashboard is set, matching Page.
type View struct {
	SessionID string
	Page      domain.Page
	Notice    *Notice
	Title     string
	Company   string
	Wind      WindView

	Login     *LoginView
	Field     *FieldView
	Dashboard *DashboardView
}

// WindView is the wind gate. Known is false when the reading failed.
type WindView struct {
	Known    bool
	Speed    float64
	Stoppage bool
}

type LoginView struct {
	Greeting string
	Guides   []catalog.Guide
}

type FieldView struct {
	Sites               []catalog.Site
	Site                catalog.Site
	DefaultParticipants string
	WorkTypes           []string
	HazardPhoto         string // attached filename, empty while locked
	StartWorkAvailable  bool
	DirectiveAck        bool
}

type DashboardView struct {
	Summary          domain.DashboardSummary
	EmergencyTargets []string
}

// View renders the session's current page model and consumes its notice.
// The wind signal is read once per field or dashboard render.
func (d *Desk) View(ctx context.Context, id string) (View, error) {
	var v View
	err := d.with(id, func(e *entry) error {
		s := e.session
		v = View{
			SessionID: id,
			Page:      s.Page(),
			Notice:    e.notice,
			Title:     d.catalog.Title,
			Company:   d.catalog.Company,
		}
		e.notice = nil

		switch s.Page() {
		case domain.PageLogin:
			v.Login = &LoginView{Greeting: d.catalog.Greeting, Guides: d.catalog.Guides}
		case domain.PageFieldManager:
			v.Wind = d.readWind(ctx, id)
			v.Field = d.fieldView(s)
		case domain.PageHQDashboard:
			v.Wind = d.readWind(ctx, id)
			v.Dashboard = &DashboardView{
				Summary:          domain.BuildDashboard(s, d.catalog.Baselines()),
				EmergencyTargets: d.catalog.EmergencyTargets,
			}
		}
		return nil
	})
	if err != nil {
		return View{}, err
	}
	d.metrics.PageRenders.WithLabelValues(v.Page.String()).Inc()
	return v, nil
}

func (d *Desk) fieldView(s *domain.Session) *FieldView {
	site, ok := d.catalog.Site(s.SelectedSite())
	if !ok {
		site = d.catalog.Sites[0]
	}
	fv := &FieldView{
		Sites:               d.catalog.Sites,
		Site:                site,
		DefaultParticipants: d.catalog.DefaultParticipants,
		WorkTypes:           d.catalog.WorkTypes,
		StartWorkAvailable:  s.StartWorkAvailable(),
		DirectiveAck:        s.DirectiveAcknowledged(),
	}
	if p := s.HazardPhoto(); p != nil {
		fv.HazardPhoto = p.Filename
	}
	return fv
}

func (d *Desk) readWind(ctx context.Context, id string) WindView {
	r, err := d.weather.Current(ctx)
	if err != nil {
		d.metrics.WeatherErrors.Inc()
		d.logger.Warn("wind reading unavailable", "session_id", id, "error", err)
		return WindView{}
	}
	w := WindView{Known: true, Speed: r.SpeedMetersPerSecond, Stoppage: r.StoppageRequired()}
	if w.Stoppage {
		d.metrics.WindAlerts.Inc()
	}
	return w
}
