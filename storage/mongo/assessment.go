package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/assessment"
)

type assessmentRepository struct {
	coll *mongo.Collection
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *mongo.Database) *assessmentRepository {
	return &assessmentRepository{coll: db.Collection(assessmentsColl)}
}

func (repo *assessmentRepository) CreateAssessment(ctx context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	a.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, a); err != nil {
		if isDup(err) {
			return assessment.Assessment{}, assessment.ErrExists
		}
		return assessment.Assessment{}, err
	}
	return a, nil
}

func (repo *assessmentRepository) GetAssessmentByID(ctx context.Context, id primitive.ObjectID) (assessment.Assessment, error) {
	var a assessment.Assessment
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	return a, err
}

func (repo *assessmentRepository) GetAssessmentByApplicationID(ctx context.Context, appID primitive.ObjectID) (assessment.Assessment, error) {
	var a assessment.Assessment
	err := repo.coll.FindOne(ctx, bson.M{"application_id": appID}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	return a, err
}

func (repo *assessmentRepository) QueryAssessments(ctx context.Context, status string) ([]assessment.Assessment, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	assessments := make([]assessment.Assessment, 0)
	if err = cur.All(ctx, &assessments); err != nil {
		return nil, err
	}
	return assessments, nil
}

func (repo *assessmentRepository) UpdateAssessment(ctx context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	set := bson.M{
		"status":     a.Status,
		"updated_at": a.UpdatedAt,
	}
	if a.ReviewNotes != "" {
		set["review_notes"] = a.ReviewNotes
	}
	if a.Score != nil {
		set["score"] = a.Score
	}
	if a.ReviewedBy != nil {
		set["reviewed_by"] = a.ReviewedBy
		set["reviewed_at"] = a.ReviewedAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated assessment.Assessment
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": a.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	return updated, err
}

func (repo *assessmentRepository) DeleteAssessment(ctx context.Context, id primitive.ObjectID) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return assessment.ErrNotFound
	}
	return nil
}
