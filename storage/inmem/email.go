package inmemdb

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/email"
)

type emailRepository struct {
	db *DB
}

var _ email.Repository = (*emailRepository)(nil)

func NewEmailRepository(db *DB) *emailRepository {
	return &emailRepository{db: db}
}

func (repo *emailRepository) CreateTemplate(_ context.Context, t email.EmailTemplate) (email.EmailTemplate, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t.ID = primitive.NewObjectID()
	if t.IsActive {
		repo.deactivateOthersLocked(t.TemplateType, t.ID)
	}
	repo.db.emailTemplates[t.ID] = &t
	return t, nil
}

// deactivateOthersLocked assumes the db mutex is held.
func (repo *emailRepository) deactivateOthersLocked(templateType string, keep primitive.ObjectID) {
	for _, t := range repo.db.emailTemplates {
		if t.TemplateType == templateType && t.ID != keep {
			t.IsActive = false
		}
	}
}

func (repo *emailRepository) GetTemplateByID(_ context.Context, id primitive.ObjectID) (email.EmailTemplate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.emailTemplates[id]; ok {
		return *t, nil
	}
	return email.EmailTemplate{}, email.ErrTemplateNotFound
}

func (repo *emailRepository) GetActiveTemplateByType(_ context.Context, templateType string) (email.EmailTemplate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.db.emailTemplates {
		if t.TemplateType == templateType && t.IsActive {
			return *t, nil
		}
	}
	return email.EmailTemplate{}, email.ErrTemplateNotFound
}

func (repo *emailRepository) QueryTemplates(_ context.Context, templateType string) ([]email.EmailTemplate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	templates := make([]email.EmailTemplate, 0)
	for _, t := range repo.db.emailTemplates {
		if templateType != "" && t.TemplateType != templateType {
			continue
		}
		templates = append(templates, *t)
	}
	sort.Slice(templates, func(i, j int) bool {
		if templates[i].TemplateType != templates[j].TemplateType {
			return templates[i].TemplateType < templates[j].TemplateType
		}
		return templates[i].CreatedAt.After(templates[j].CreatedAt)
	})
	return templates, nil
}

func (repo *emailRepository) UpdateTemplate(_ context.Context, t email.EmailTemplate, isActive *bool) (email.EmailTemplate, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.emailTemplates[t.ID]
	if !ok {
		return email.EmailTemplate{}, email.ErrTemplateNotFound
	}
	if isActive != nil && *isActive {
		repo.deactivateOthersLocked(orig.TemplateType, t.ID)
	}
	if t.Name != "" {
		orig.Name = t.Name
	}
	if t.Subject != "" {
		orig.Subject = t.Subject
	}
	if t.HTMLContent != "" {
		orig.HTMLContent = t.HTMLContent
	}
	if t.Variables != nil {
		orig.Variables = t.Variables
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = t.UpdatedAt
	return *orig, nil
}

func (repo *emailRepository) DeleteTemplate(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.emailTemplates[id]; !ok {
		return email.ErrTemplateNotFound
	}
	delete(repo.db.emailTemplates, id)
	return nil
}

func (repo *emailRepository) CreateLog(_ context.Context, lg email.EmailLog) (email.EmailLog, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lg.ID = primitive.NewObjectID()
	repo.db.emailLogs[lg.ID] = &lg
	return lg, nil
}

func (repo *emailRepository) UpdateLog(_ context.Context, lg email.EmailLog) (email.EmailLog, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.emailLogs[lg.ID]
	if !ok {
		return email.EmailLog{}, email.ErrLogNotFound
	}
	orig.Status = lg.Status
	orig.Attempts = lg.Attempts
	orig.LastError = lg.LastError
	if lg.SentAt != nil {
		orig.SentAt = lg.SentAt
	}
	return *orig, nil
}

func (repo *emailRepository) FilterLogs(_ context.Context, qf email.LogFilter) ([]email.EmailLog, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	logs := make([]email.EmailLog, 0)
	for _, lg := range repo.db.emailLogs {
		if qf.Status != "" && lg.Status != qf.Status {
			continue
		}
		if qf.TemplateType != "" && lg.TemplateType != qf.TemplateType {
			continue
		}
		if qf.ToAddress != "" && lg.ToAddress != qf.ToAddress {
			continue
		}
		logs = append(logs, *lg)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	return logs, nil
}

func (repo *emailRepository) DuePendingLogs(_ context.Context, cutoff time.Time, maxAttempts int) ([]email.EmailLog, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	logs := make([]email.EmailLog, 0)
	for _, lg := range repo.db.emailLogs {
		if lg.Status != email.StatusPending || lg.CreatedAt.After(cutoff) || lg.Attempts >= maxAttempts {
			continue
		}
		logs = append(logs, *lg)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.Before(logs[j].CreatedAt) })
	return logs, nil
}
