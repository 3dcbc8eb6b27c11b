package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

var (
	ErrTemplateNotFound = errors.New("email template not found")
	ErrLogNotFound      = errors.New("email log not found")
)

type (
	Repository interface {
		// CreateTemplate persists t; when t.IsActive it atomically deactivates
		// every other template of the same type.
		CreateTemplate(ctx context.Context, t EmailTemplate) (EmailTemplate, error)
		GetTemplateByID(ctx context.Context, id primitive.ObjectID) (EmailTemplate, error)
		GetActiveTemplateByType(ctx context.Context, templateType string) (EmailTemplate, error)
		QueryTemplates(ctx context.Context, templateType string) ([]EmailTemplate, error)
		// UpdateTemplate applies t's set fields; activating follows the same
		// exclusivity rule as CreateTemplate.
		UpdateTemplate(ctx context.Context, t EmailTemplate, isActive *bool) (EmailTemplate, error)
		DeleteTemplate(ctx context.Context, id primitive.ObjectID) error

		CreateLog(ctx context.Context, lg EmailLog) (EmailLog, error)
		UpdateLog(ctx context.Context, lg EmailLog) (EmailLog, error)
		FilterLogs(ctx context.Context, filter LogFilter) ([]EmailLog, error)
		// DuePendingLogs returns pending rows created before cutoff that still
		// have attempts left, oldest first.
		DuePendingLogs(ctx context.Context, cutoff time.Time, maxAttempts int) ([]EmailLog, error)
	}

	// Rendered is a template with its placeholders substituted.
	Rendered struct {
		Subject     string `json:"subject"`
		HTMLContent string `json:"html_content"`
	}

	Service struct {
		repo    Repository
		backend core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, backend core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, backend: backend, logger: logger}
}

func (svc *Service) CreateTemplate(ctx context.Context, createdBy primitive.ObjectID, nt NewTemplate) (EmailTemplate, error) {
	if err := nt.Validate(); err != nil {
		return EmailTemplate{}, err
	}

	now := time.Now().UTC()
	t := EmailTemplate{
		Name:         nt.Name,
		TemplateType: nt.TemplateType,
		Subject:      nt.Subject,
		HTMLContent:  nt.HTMLContent,
		Variables:    nt.Variables,
		IsActive:     nt.IsActive,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateTemplate(ctx, t)
}

func (svc *Service) GetTemplate(ctx context.Context, id primitive.ObjectID) (EmailTemplate, error) {
	return svc.repo.GetTemplateByID(ctx, id)
}

func (svc *Service) QueryTemplates(ctx context.Context, templateType string) ([]EmailTemplate, error) {
	return svc.repo.QueryTemplates(ctx, templateType)
}

func (svc *Service) UpdateTemplate(ctx context.Context, id primitive.ObjectID, ut UpdateTemplate) (EmailTemplate, error) {
	orig, err := svc.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return EmailTemplate{}, err
	}
	if err = ut.Validate(orig); err != nil {
		return EmailTemplate{}, err
	}

	t := EmailTemplate{
		ID:          id,
		Name:        ut.Name,
		Subject:     ut.Subject,
		HTMLContent: ut.HTMLContent,
		Variables:   ut.Variables,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateTemplate(ctx, t, ut.IsActive)
}

func (svc *Service) DeleteTemplate(ctx context.Context, id primitive.ObjectID) error {
	return svc.repo.DeleteTemplate(ctx, id)
}

// Preview renders a stored template with sample variables without sending
// anything or writing a log row.
func (svc *Service) Preview(ctx context.Context, id primitive.ObjectID, vars map[string]string) (Rendered, error) {
	t, err := svc.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Subject:     Render(t.Subject, vars),
		HTMLContent: Render(t.HTMLContent, vars),
	}, nil
}

// renderForType resolves the active template of a type, falling back to the
// built-in content when none has been authored yet.
func (svc *Service) renderForType(ctx context.Context, templateType string, vars map[string]string) (*primitive.ObjectID, Rendered, error) {
	t, err := svc.repo.GetActiveTemplateByType(ctx, templateType)
	if err == nil {
		return &t.ID, Rendered{
			Subject:     Render(t.Subject, vars),
			HTMLContent: Render(t.HTMLContent, vars),
		}, nil
	}
	if err != ErrTemplateNotFound {
		return nil, Rendered{}, err
	}

	dt, ok := defaultTemplates[templateType]
	if !ok {
		return nil, Rendered{}, ErrTemplateNotFound
	}
	return nil, Rendered{
		Subject:     Render(dt.subject, vars),
		HTMLContent: Render(dt.html, vars),
	}, nil
}

// Enqueue renders the active template of templateType for the recipient and
// writes a pending log row; the outbox dispatcher delivers it.
func (svc *Service) Enqueue(
	ctx context.Context,
	templateType string,
	to mail.Address,
	vars map[string]string,
	attachments ...core.Attachment,
) (EmailLog, error) {
	templateID, rendered, err := svc.renderForType(ctx, templateType, vars)
	if err != nil {
		return EmailLog{}, err
	}

	lg := EmailLog{
		TemplateID:   templateID,
		TemplateType: templateType,
		ToName:       to.Name,
		ToAddress:    to.Address,
		Subject:      rendered.Subject,
		HTMLContent:  rendered.HTMLContent,
		Variables:    vars,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	for _, at := range attachments {
		lg.Attachments = append(lg.Attachments, LogAttachment{
			Filename:    at.Filename,
			ContentType: at.ContentType,
			ContentB64:  at.Content.String(),
		})
	}
	return svc.repo.CreateLog(ctx, lg)
}

// EnqueueDirect queues a one-off email authored by an admin, bypassing the
// template store.
func (svc *Service) EnqueueDirect(ctx context.Context, to mail.Address, subject, htmlContent string) (EmailLog, error) {
	lg := EmailLog{
		TemplateType: TypeDirect,
		ToName:       to.Name,
		ToAddress:    to.Address,
		Subject:      subject,
		HTMLContent:  htmlContent,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.CreateLog(ctx, lg)
}

func (svc *Service) FilterLogs(ctx context.Context, filter LogFilter) ([]EmailLog, error) {
	return svc.repo.FilterLogs(ctx, filter)
}

// Dispatch attempts delivery of one pending log row and records the outcome.
// A row that exhausts its attempts is marked failed and never retried.
func (svc *Service) Dispatch(ctx context.Context, lg EmailLog) (EmailLog, error) {
	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: lg.ToName, Address: lg.ToAddress}},
		Subject:     lg.Subject,
		HTMLContent: lg.HTMLContent,
	}
	for _, at := range lg.Attachments {
		buf := new(bytes.Buffer)
		buf.WriteString(at.ContentB64)
		msg.Attachments = append(msg.Attachments, core.Attachment{
			Content:     buf,
			ContentType: at.ContentType,
			Filename:    at.Filename,
		})
	}

	lg.Attempts++
	if err := svc.backend.SendMessage(msg); err != nil {
		lg.LastError = err.Error()
		if lg.Attempts >= core.Conf.Email.MaxSendAttempts {
			lg.Status = StatusFailed
		}
		if _, uerr := svc.repo.UpdateLog(ctx, lg); uerr != nil {
			svc.logger.Error(fmt.Sprintf("email: updating log %s: %v", lg.ID.Hex(), uerr))
		}
		return lg, err
	}

	now := time.Now().UTC()
	lg.Status = StatusSent
	lg.SentAt = &now
	lg.LastError = ""
	return svc.repo.UpdateLog(ctx, lg)
}

// DispatchDue delivers every pending row with attempts left, oldest first.
// Rows that have been pending longer than the grace period are flagged in the
// logs so a stuck queue is noticed.
func (svc *Service) DispatchDue(ctx context.Context) error {
	now := time.Now().UTC()
	due, err := svc.repo.DuePendingLogs(ctx, now, core.Conf.Email.MaxSendAttempts)
	if err != nil {
		return err
	}
	for _, lg := range due {
		if now.Sub(lg.CreatedAt) > core.Conf.Email.PendingGrace {
			svc.logger.Warn(fmt.Sprintf("email: log %s pending since %s", lg.ID.Hex(), lg.CreatedAt.Format(time.RFC3339)))
		}
		if _, err = svc.Dispatch(ctx, lg); err != nil {
			svc.logger.Error(fmt.Sprintf("email: dispatching log %s: %v", lg.ID.Hex(), err))
		}
	}
	return nil
}

// DecodeAttachment returns the raw bytes of a stored attachment.
func DecodeAttachment(at LogAttachment) ([]byte, error) {
	return base64.StdEncoding.DecodeString(at.ContentB64)
}
