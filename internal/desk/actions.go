package desk

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/site-safety-desk/internal/catalog"
	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// Submission kinds, used as metric labels.
const (
	KindSelectSite   = "select_site"
	KindTBM          = "tbm"
	KindHazardPhoto  = "hazard_photo"
	KindStartWork    = "start_work"
	KindPlanApproval = "plan_approval"
	KindDirective    = "directive_ack"
	KindEmergency    = "emergency"
)

// TBMForm is the TBM tab as posted.
type TBMForm struct {
	SiteID              string
	Participants        string
	HazardsAcknowledged bool
	Photo               *domain.Attachment
}

// PlanForm is the work-plan approval tab as posted.
type PlanForm struct {
	SiteID   string
	WorkType string
	Plan     *domain.Attachment
}

// Navigate applies a navigation action. A rejected action leaves the page
// unchanged and sets an error notice.
func (d *Desk) Navigate(id string, action domain.Action) error {
	err := d.with(id, func(e *entry) error {
		from := e.session.Page()
		if err := e.session.Navigate(action); err != nil {
			e.notice = noticeFor(err)
			return err
		}
		d.logger.Info("page changed", "session_id", id, "from", from.String(), "to", e.session.Page().String())
		return nil
	})
	if errors.Is(err, ErrSessionNotFound) {
		return err
	}

	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
		d.logger.Info("navigation rejected", "session_id", id, "action", string(action), "error", err)
	}
	d.metrics.Navigations.WithLabelValues(navigationLabel(action), outcome).Inc()
	return err
}

// SelectSite changes the site the field page works on.
func (d *Desk) SelectSite(id, siteID string) error {
	return d.act(id, KindSelectSite, func(e *entry) error {
		if _, err := d.site(siteID); err != nil {
			return err
		}
		return e.session.SelectSite(siteID)
	})
}

// SubmitTBM logs a Tool Box Meeting for the posted site.
func (d *Desk) SubmitTBM(ctx context.Context, id string, form TBMForm) error {
	return d.act(id, KindTBM, func(e *entry) error {
		site, err := d.site(form.SiteID)
		if err != nil {
			return err
		}
		if form.Photo != nil {
			if err := domain.ValidateAttachment(form.Photo, domain.PhotoExtensions); err != nil {
				return err
			}
		}
		err = e.session.SubmitTBM(ctx, d.archive, d.clock.Now(), domain.TBMSubmission{
			Site:                site.Name,
			Participants:        form.Participants,
			HazardsAcknowledged: form.HazardsAcknowledged,
			Photo:               form.Photo,
		})
		if err != nil {
			return err
		}
		if err := e.session.SelectSite(site.ID); err != nil {
			return err
		}
		e.notice = success("TBM 내용이 본사 서버로 전송되었습니다.")
		return nil
	})
}

// AttachHazardPhoto attaches the protective-measure photo, releasing the
// safety lock on the start-work action.
func (d *Desk) AttachHazardPhoto(id string, photo *domain.Attachment) error {
	return d.act(id, KindHazardPhoto, func(e *entry) error {
		if err := domain.ValidateAttachment(photo, domain.PhotoExtensions); err != nil {
			return err
		}
		if err := e.session.AttachHazardPhoto(photo); err != nil {
			return err
		}
		e.notice = success("보호조치 확인됨. 작업 시작 버튼이 활성화되었습니다.")
		return nil
	})
}

// StartWork reports the start of work at the posted site.
func (d *Desk) StartWork(ctx context.Context, id, siteID string) error {
	return d.act(id, KindStartWork, func(e *entry) error {
		site, err := d.site(siteID)
		if err != nil {
			return err
		}
		if err := e.session.ReportWorkStart(ctx, d.archive, d.clock.Now(), site.Name); err != nil {
			return err
		}
		if err := e.session.SelectSite(site.ID); err != nil {
			return err
		}
		e.notice = info("작업 시작 시간이 기록되었습니다.")
		return nil
	})
}

// RequestPlanApproval sends a work-plan approval request for the posted site.
func (d *Desk) RequestPlanApproval(ctx context.Context, id string, form PlanForm) error {
	return d.act(id, KindPlanApproval, func(e *entry) error {
		site, err := d.site(form.SiteID)
		if err != nil {
			return err
		}
		if !d.catalog.HasWorkType(form.WorkType) {
			return fmt.Errorf("%w: %q", domain.ErrUnknownWorkType, form.WorkType)
		}
		if form.Plan != nil {
			if err := domain.ValidateAttachment(form.Plan, domain.PlanExtensions); err != nil {
				return err
			}
		}
		if err := e.session.RequestPlanApproval(ctx, d.archive, d.clock.Now(), site.Name, form.WorkType, form.Plan); err != nil {
			return err
		}
		if err := e.session.SelectSite(site.ID); err != nil {
			return err
		}
		e.notice = success(fmt.Sprintf("%s 작업계획서 승인 요청이 전송되었습니다.", form.WorkType))
		return nil
	})
}

// AcknowledgeDirective marks the head-office directives as read.
func (d *Desk) AcknowledgeDirective(id string) error {
	return d.act(id, KindDirective, func(e *entry) error {
		return e.session.AcknowledgeDirective()
	})
}

// SendEmergency acknowledges an emergency stop message for target. Delivery
// is out of scope; the message is logged and counted.
func (d *Desk) SendEmergency(id, target string) error {
	return d.act(id, KindEmergency, func(e *entry) error {
		if err := e.session.Require(domain.PageHQDashboard); err != nil {
			return err
		}
		if !d.catalog.HasEmergencyTarget(target) {
			return fmt.Errorf("%w: %q", domain.ErrUnknownTarget, target)
		}
		d.metrics.EmergencyMessages.WithLabelValues(target).Inc()
		d.logger.Warn("emergency stop message sent", "session_id", id, "target", target)
		e.notice = alert(fmt.Sprintf("[%s]에 긴급 메시지가 발송되었습니다.", target))
		return nil
	})
}

// act runs a field or dashboard submission, turning a failure into a notice
// and counting the outcome.
func (d *Desk) act(id, kind string, fn func(*entry) error) error {
	err := d.with(id, func(e *entry) error {
		if err := fn(e); err != nil {
			e.notice = noticeFor(err)
			return err
		}
		return nil
	})
	if errors.Is(err, ErrSessionNotFound) {
		return err
	}

	outcome := "accepted"
	switch {
	case err == nil:
		d.logger.Info("submission accepted", "session_id", id, "kind", kind)
	case errors.Is(err, domain.ErrArchiveUnavailable):
		outcome = "failed"
		d.logger.Warn("submission failed", "session_id", id, "kind", kind, "error", err)
	default:
		outcome = "rejected"
		d.logger.Info("submission rejected", "session_id", id, "kind", kind, "error", err)
	}
	d.metrics.Submissions.WithLabelValues(kind, outcome).Inc()
	return err
}

func (d *Desk) site(id string) (catalog.Site, error) {
	site, ok := d.catalog.Site(id)
	if !ok {
		return catalog.Site{}, fmt.Errorf("%w: %q", domain.ErrUnknownSite, id)
	}
	return site, nil
}

// navigationLabel keeps the metric label set bounded.
func navigationLabel(a domain.Action) string {
	if a.Known() {
		return string(a)
	}
	return "unknown"
}
