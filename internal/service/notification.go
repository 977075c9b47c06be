package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	"github.com/memberbase/memberbase/internal/domain/grace"
	"github.com/memberbase/memberbase/internal/domain/membership"
	"github.com/memberbase/memberbase/internal/email"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

const warningSendConcurrency = 8

// WarningSchedule maps days-before-end-date to the email template sent on
// that day. The table is configuration; call sites never hard-code it.
type WarningSchedule map[int]string

// DefaultWarningSchedule returns the production schedule: reminders 28 and
// 10 days before the end date.
func DefaultWarningSchedule() WarningSchedule {
	return WarningSchedule{
		28: email.TemplateExpiring28,
		10: email.TemplateExpiring10,
	}
}

// TemplateFor returns the template for the given days-before-end, if any.
func (w WarningSchedule) TemplateFor(daysBeforeEnd int) (string, bool) {
	templateID, ok := w[daysBeforeEnd]
	return templateID, ok
}

// NotificationService decides whether lifecycle notifications fire and runs
// the expiration warning schedule.
type NotificationService interface {
	// ShouldSendExpiredNotification gates the "membership expired" notice.
	// False while the member is entering grace; true exactly once when the
	// member exits grace (consuming the one-shot marker); true by absence
	// otherwise.
	ShouldSendExpiredNotification(ctx context.Context, memberID string) (bool, error)

	// Schedule returns the active warning schedule.
	Schedule() WarningSchedule

	// SendExpiredNotification consults the gate and, if allowed, sends the
	// "membership expired" email to the member.
	SendExpiredNotification(ctx context.Context, memberID string) error

	// SendExpirationWarnings scans active, non-grace memberships and sends
	// the scheduled reminder to every member whose end date is exactly a
	// configured number of days away. Returns the number of emails sent.
	SendExpirationWarnings(ctx context.Context, now time.Time) (int, error)

	// SimulateEmail sends a lifecycle template to a member regardless of
	// schedule or gate state (testing tool).
	SimulateEmail(ctx context.Context, memberID, templateID string) error
}

type notificationService struct {
	ServiceParams
	schedule WarningSchedule
}

// NewNotificationService creates a notification service with the schedule
// from configuration, falling back to the default table.
func NewNotificationService(params ServiceParams) NotificationService {
	schedule := WarningSchedule(params.Config.Grace.WarningTemplates())
	if len(schedule) == 0 {
		schedule = DefaultWarningSchedule()
	}
	return &notificationService{
		ServiceParams: params,
		schedule:      schedule,
	}
}

func (s *notificationService) Schedule() WarningSchedule {
	return s.schedule
}

func (s *notificationService) ShouldSendExpiredNotification(ctx context.Context, memberID string) (bool, error) {
	entry, err := s.GraceRepo.Get(ctx, memberID)
	if err != nil {
		if ierr.IsNotFound(err) {
			// No grace bookkeeping: nothing suppresses the notification.
			return true, nil
		}
		return false, err
	}

	if entry.State == types.GraceStateExiting {
		// One-shot consumption: the exiting marker is gone after this call.
		if err := s.GraceRepo.Delete(ctx, memberID); err != nil && !ierr.IsNotFound(err) {
			return false, err
		}
		return true, nil
	}

	// Entering grace, not exiting it: the real notice comes when the sweep
	// finalizes the window.
	s.Logger.Debugw("suppressing expired notification for member in grace",
		"member_id", memberID,
		"grace_end_date", entry.GraceEndDate,
	)
	return false, nil
}

func (s *notificationService) SendExpiredNotification(ctx context.Context, memberID string) error {
	allowed, err := s.ShouldSendExpiredNotification(ctx, memberID)
	if err != nil {
		return err
	}
	if !allowed {
		return nil
	}

	m, err := s.MembershipRepo.GetByMemberID(ctx, memberID)
	if err != nil {
		return err
	}

	return s.EmailSender.SendTemplate(ctx, m.MemberEmail, email.TemplateExpired, s.templateData(ctx, m))
}

func (s *notificationService) SendExpirationWarnings(ctx context.Context, now time.Time) (int, error) {
	memberships, err := s.MembershipRepo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	entries, err := s.GraceRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	inGrace := lo.SliceToMap(entries, func(e *grace.Entry) (string, struct{}) {
		return e.MemberID, struct{}{}
	})

	p := pool.NewWithResults[bool]().WithMaxGoroutines(warningSendConcurrency)
	for _, m := range memberships {
		if m.EndDate == nil {
			continue
		}
		// Members inside a grace extension already had their reminders; the
		// next email they get is the final notice from the sweep.
		if _, ok := inGrace[m.MemberID]; ok {
			continue
		}

		days := types.DaysUntil(*m.EndDate, now)
		templateID, ok := s.schedule.TemplateFor(days)
		if !ok {
			continue
		}

		m := m
		p.Go(func() bool {
			if err := s.EmailSender.SendTemplate(ctx, m.MemberEmail, templateID, s.templateData(ctx, m)); err != nil {
				s.Logger.Errorw("failed to send expiration warning",
					"error", err,
					"member_id", m.MemberID,
					"template", templateID,
				)
				return false
			}
			return true
		})
	}

	sent := lo.Count(p.Wait(), true)
	s.Logger.Infow("expiration warning run completed",
		"memberships_scanned", len(memberships),
		"sent", sent,
	)
	return sent, nil
}

func (s *notificationService) SimulateEmail(ctx context.Context, memberID, templateID string) error {
	m, err := s.MembershipRepo.GetByMemberID(ctx, memberID)
	if err != nil {
		return err
	}

	if err := s.EmailSender.SendTemplate(ctx, m.MemberEmail, templateID, s.templateData(ctx, m)); err != nil {
		return err
	}

	s.Logger.Infow("simulated lifecycle email",
		"member_id", memberID,
		"template", templateID,
	)
	return nil
}

func (s *notificationService) templateData(ctx context.Context, m *membership.Membership) map[string]interface{} {
	data := map[string]interface{}{
		"site_name":    s.Config.Email.SiteName,
		"login_url":    s.Config.Email.LoginURL,
		"member_name":  m.MemberID,
		"member_email": m.MemberEmail,
	}
	if m.EndDate != nil {
		data["end_date"] = m.EndDate.Format("January 2, 2006")
	}
	if lvl, err := s.getLevel(ctx, m.LevelID); err == nil {
		data["level_name"] = lvl.Name
	}
	return data
}
