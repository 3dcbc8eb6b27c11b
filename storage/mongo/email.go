package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/email"
)

type emailRepository struct {
	db        *mongo.Database
	templates *mongo.Collection
	logs      *mongo.Collection
}

var _ email.Repository = (*emailRepository)(nil) // interface compliance check

func NewEmailRepository(db *mongo.Database) *emailRepository {
	return &emailRepository{
		db:        db,
		templates: db.Collection(emailTemplatesColl),
		logs:      db.Collection(emailLogsColl),
	}
}

func (repo *emailRepository) CreateTemplate(ctx context.Context, t email.EmailTemplate) (email.EmailTemplate, error) {
	t.ID = primitive.NewObjectID()
	err := runTxn(ctx, repo.db, func(ctx context.Context) error {
		if t.IsActive {
			if err := repo.deactivateOthers(ctx, t.TemplateType, t.ID); err != nil {
				return err
			}
		}
		_, err := repo.templates.InsertOne(ctx, t)
		return err
	})
	if err != nil {
		return email.EmailTemplate{}, err
	}
	return t, nil
}

// deactivateOthers keeps the one-active-per-type invariant.
func (repo *emailRepository) deactivateOthers(ctx context.Context, templateType string, keep primitive.ObjectID) error {
	_, err := repo.templates.UpdateMany(ctx,
		bson.M{"template_type": templateType, "is_active": true, "_id": bson.M{"$ne": keep}},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	return err
}

func (repo *emailRepository) GetTemplateByID(ctx context.Context, id primitive.ObjectID) (email.EmailTemplate, error) {
	var t email.EmailTemplate
	err := repo.templates.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return email.EmailTemplate{}, email.ErrTemplateNotFound
	}
	return t, err
}

func (repo *emailRepository) GetActiveTemplateByType(ctx context.Context, templateType string) (email.EmailTemplate, error) {
	var t email.EmailTemplate
	err := repo.templates.FindOne(ctx, bson.M{"template_type": templateType, "is_active": true}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return email.EmailTemplate{}, email.ErrTemplateNotFound
	}
	return t, err
}

func (repo *emailRepository) QueryTemplates(ctx context.Context, templateType string) ([]email.EmailTemplate, error) {
	filter := bson.M{}
	if templateType != "" {
		filter["template_type"] = templateType
	}
	opts := options.Find().SetSort(bson.D{{Key: "template_type", Value: 1}, {Key: "created_at", Value: -1}})
	cur, err := repo.templates.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	templates := make([]email.EmailTemplate, 0)
	if err = cur.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (repo *emailRepository) UpdateTemplate(ctx context.Context, t email.EmailTemplate, isActive *bool) (email.EmailTemplate, error) {
	var updated email.EmailTemplate
	err := runTxn(ctx, repo.db, func(ctx context.Context) error {
		orig, err := repo.GetTemplateByID(ctx, t.ID)
		if err != nil {
			return err
		}
		if isActive != nil && *isActive {
			if err = repo.deactivateOthers(ctx, orig.TemplateType, t.ID); err != nil {
				return err
			}
		}

		set := bson.M{"updated_at": t.UpdatedAt}
		if t.Name != "" {
			set["name"] = t.Name
		}
		if t.Subject != "" {
			set["subject"] = t.Subject
		}
		if t.HTMLContent != "" {
			set["html_content"] = t.HTMLContent
		}
		if t.Variables != nil {
			set["variables"] = t.Variables
		}
		if isActive != nil {
			set["is_active"] = *isActive
		}

		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = repo.templates.FindOneAndUpdate(ctx, bson.M{"_id": t.ID}, bson.M{"$set": set}, opts).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			return email.ErrTemplateNotFound
		}
		return err
	})
	if err != nil {
		return email.EmailTemplate{}, err
	}
	return updated, nil
}

func (repo *emailRepository) DeleteTemplate(ctx context.Context, id primitive.ObjectID) error {
	res, err := repo.templates.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return email.ErrTemplateNotFound
	}
	return nil
}

func (repo *emailRepository) CreateLog(ctx context.Context, lg email.EmailLog) (email.EmailLog, error) {
	lg.ID = primitive.NewObjectID()
	if _, err := repo.logs.InsertOne(ctx, lg); err != nil {
		return email.EmailLog{}, err
	}
	return lg, nil
}

func (repo *emailRepository) UpdateLog(ctx context.Context, lg email.EmailLog) (email.EmailLog, error) {
	set := bson.M{
		"status":     lg.Status,
		"attempts":   lg.Attempts,
		"last_error": lg.LastError,
	}
	if lg.SentAt != nil {
		set["sent_at"] = lg.SentAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated email.EmailLog
	err := repo.logs.FindOneAndUpdate(ctx, bson.M{"_id": lg.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return email.EmailLog{}, email.ErrLogNotFound
	}
	return updated, err
}

func (repo *emailRepository) FilterLogs(ctx context.Context, qf email.LogFilter) ([]email.EmailLog, error) {
	filter := bson.M{}
	if qf.Status != "" {
		filter["status"] = qf.Status
	}
	if qf.TemplateType != "" {
		filter["template_type"] = qf.TemplateType
	}
	if qf.ToAddress != "" {
		filter["to_address"] = qf.ToAddress
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.logs.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	logs := make([]email.EmailLog, 0)
	if err = cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (repo *emailRepository) DuePendingLogs(ctx context.Context, cutoff time.Time, maxAttempts int) ([]email.EmailLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := repo.logs.Find(ctx, bson.M{
		"status":     email.StatusPending,
		"created_at": bson.M{"$lte": cutoff},
		"attempts":   bson.M{"$lt": maxAttempts},
	}, opts)
	if err != nil {
		return nil, err
	}
	logs := make([]email.EmailLog, 0)
	if err = cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
