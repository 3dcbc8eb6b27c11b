package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/assessment"
	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/interview"
	"github.com/darasahq/darasa/core/user"
)

// Notifier turns domain events into queued emails. It satisfies the notifier
// interfaces of the user, application, assessment and interview packages.
type Notifier struct {
	svc     *Service
	cohorts cohort.Repository
	logger  core.Logger
}

func NewNotifier(svc *Service, cohorts cohort.Repository, logger core.Logger) *Notifier {
	return &Notifier{svc: svc, cohorts: cohorts, logger: logger}
}

func (n *Notifier) enqueue(ctx context.Context, templateType string, to mail.Address, vars map[string]string, attachments ...core.Attachment) {
	if _, err := n.svc.Enqueue(ctx, templateType, to, vars, attachments...); err != nil {
		n.logger.Error(fmt.Sprintf("email: queueing %s to %s: %v", templateType, to.Address, err))
	}
}

func (n *Notifier) cohortDisplay(ctx context.Context, id primitive.ObjectID) string {
	c, err := n.cohorts.GetCohortByID(ctx, id)
	if err != nil {
		n.logger.Warn(fmt.Sprintf("email: resolving cohort %s: %v", id.Hex(), err))
		return "your cohort"
	}
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("Cohort %s", c.Number)
}

func trackDisplay(trackID string) string {
	words := strings.Split(trackID, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (n *Notifier) ApplicationReceived(ctx context.Context, app application.Application, applicant user.User) {
	n.enqueue(ctx, TypeApplicationReceived, mail.Address{Name: applicant.Name, Address: applicant.Email}, map[string]string{
		"name":   applicant.Name,
		"track":  trackDisplay(app.TrackID),
		"cohort": n.cohortDisplay(ctx, app.CohortID),
	})
}

func (n *Notifier) ApplicationShortlisted(ctx context.Context, app application.Application, applicant user.User) {
	n.enqueue(ctx, TypeApplicationShortlisted, mail.Address{Name: applicant.Name, Address: applicant.Email}, map[string]string{
		"name":   applicant.Name,
		"track":  trackDisplay(app.TrackID),
		"cohort": n.cohortDisplay(ctx, app.CohortID),
	})
}

func (n *Notifier) ApplicationAccepted(ctx context.Context, app application.Application, applicant user.User, password string) {
	n.enqueue(ctx, TypeApplicationAccepted, mail.Address{Name: applicant.Name, Address: applicant.Email}, map[string]string{
		"name":      applicant.Name,
		"track":     trackDisplay(app.TrackID),
		"cohort":    n.cohortDisplay(ctx, app.CohortID),
		"password":  password,
		"login_url": core.Conf.FrontendBaseURL + "/login",
	})
}

func (n *Notifier) ApplicationRejected(ctx context.Context, app application.Application, applicant user.User, reason string) {
	n.enqueue(ctx, TypeApplicationRejected, mail.Address{Name: applicant.Name, Address: applicant.Email}, map[string]string{
		"name":   applicant.Name,
		"track":  trackDisplay(app.TrackID),
		"cohort": n.cohortDisplay(ctx, app.CohortID),
		"reason": reason,
	})
}

func (n *Notifier) AssessmentReceived(ctx context.Context, a assessment.Assessment, applicant user.User) {
	n.enqueue(ctx, TypeAssessmentReceived, mail.Address{Name: applicant.Name, Address: applicant.Email}, map[string]string{
		"name": applicant.Name,
	})
}

func (n *Notifier) AssessmentReviewed(ctx context.Context, a assessment.Assessment, applicant user.User) {
	n.enqueue(ctx, TypeAssessmentReviewed, mail.Address{Name: applicant.Name, Address: applicant.Email}, map[string]string{
		"name":            applicant.Name,
		"submission_type": a.SubmissionType(),
	})
}

func (n *Notifier) InterviewScheduled(ctx context.Context, iv interview.Interview, applicant user.User, event interview.CalendarEvent) {
	invite := core.Attachment{
		Content:     new(bytes.Buffer),
		ContentType: "text/calendar",
		Filename:    "invite.ics",
	}
	encoder := base64.NewEncoder(base64.StdEncoding, invite.Content)
	_, _ = encoder.Write([]byte(event.ICS()))
	_ = encoder.Close()

	n.enqueue(ctx, TypeInterviewInvitation, mail.Address{Name: applicant.Name, Address: applicant.Email}, map[string]string{
		"name":           applicant.Name,
		"interview_time": iv.ScheduledAt.Format(time.RFC1123),
		"meeting_url":    iv.MeetingURL,
	}, invite)
}

func (n *Notifier) PasswordResetRequested(ctx context.Context, usr user.User, uid, token string) {
	n.enqueue(ctx, TypePasswordReset, mail.Address{Name: usr.Name, Address: usr.Email}, map[string]string{
		"name":      usr.Name,
		"reset_url": fmt.Sprintf("%s/password-reset/%s/%s", core.Conf.FrontendBaseURL, uid, token),
	})
}
