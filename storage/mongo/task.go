package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/task"
)

type taskRepository struct {
	coll        *mongo.Collection
	submissions *mongo.Collection
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *mongo.Database) *taskRepository {
	return &taskRepository{
		coll:        db.Collection(tasksColl),
		submissions: db.Collection(submissionsColl),
	}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, t); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (repo *taskRepository) GetTaskByID(ctx context.Context, id primitive.ObjectID) (task.Task, error) {
	var t task.Task
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return task.Task{}, task.ErrNotFound
	}
	return t, err
}

func (repo *taskRepository) FilterTasks(ctx context.Context, qf task.QueryFilter) ([]task.Task, error) {
	filter := bson.M{}
	if !qf.CohortID.IsZero() {
		filter["cohort_id"] = qf.CohortID
	}
	if qf.TrackID != "" {
		filter["track_id"] = qf.TrackID
	}
	if qf.PublishedOnly {
		filter["is_published"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	tasks := make([]task.Task, 0)
	if err = cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task, allowLate, isPublished *bool) (task.Task, error) {
	set := bson.M{"updated_at": t.UpdatedAt}
	if t.Title != "" {
		set["title"] = t.Title
	}
	if t.Description != "" {
		set["description"] = t.Description
	}
	if !t.DueDate.IsZero() {
		set["due_date"] = t.DueDate
	}
	if t.MaxScore != 0 {
		set["max_score"] = t.MaxScore
	}
	if allowLate != nil {
		set["allow_late_submission"] = *allowLate
	}
	if isPublished != nil {
		set["is_published"] = *isPublished
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated task.Task
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": t.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return task.Task{}, task.ErrNotFound
	}
	return updated, err
}

func (repo *taskRepository) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (repo *taskRepository) CreateSubmission(ctx context.Context, s task.Submission) (task.Submission, error) {
	s.ID = primitive.NewObjectID()
	if _, err := repo.submissions.InsertOne(ctx, s); err != nil {
		if isDup(err) {
			return task.Submission{}, task.ErrSubmissionExists
		}
		return task.Submission{}, err
	}
	return s, nil
}

func (repo *taskRepository) GetSubmissionByID(ctx context.Context, id primitive.ObjectID) (task.Submission, error) {
	var s task.Submission
	err := repo.submissions.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return task.Submission{}, task.ErrSubmissionNotFound
	}
	return s, err
}

func (repo *taskRepository) QuerySubmissionsByTask(ctx context.Context, taskID primitive.ObjectID) ([]task.Submission, error) {
	return repo.querySubmissions(ctx, bson.M{"task_id": taskID})
}

func (repo *taskRepository) QuerySubmissionsByStudent(ctx context.Context, studentID primitive.ObjectID) ([]task.Submission, error) {
	return repo.querySubmissions(ctx, bson.M{"student_id": studentID})
}

func (repo *taskRepository) querySubmissions(ctx context.Context, filter bson.M) ([]task.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := repo.submissions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	subs := make([]task.Submission, 0)
	if err = cur.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (repo *taskRepository) UpdateSubmission(ctx context.Context, s task.Submission) (task.Submission, error) {
	set := bson.M{
		"status":     s.Status,
		"updated_at": s.UpdatedAt,
	}
	if s.Score != nil {
		set["score"] = s.Score
	}
	if s.Feedback != "" {
		set["feedback"] = s.Feedback
	}
	if s.GradedBy != nil {
		set["graded_by"] = s.GradedBy
		set["graded_at"] = s.GradedAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated task.Submission
	err := repo.submissions.FindOneAndUpdate(ctx, bson.M{"_id": s.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return task.Submission{}, task.ErrSubmissionNotFound
	}
	return updated, err
}
