package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *DB) *taskRepository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t.ID = primitive.NewObjectID()
	repo.db.tasks[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) GetTaskByID(_ context.Context, id primitive.ObjectID) (task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.tasks[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) FilterTasks(_ context.Context, qf task.QueryFilter) ([]task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tasks := make([]task.Task, 0)
	for _, t := range repo.db.tasks {
		if !qf.CohortID.IsZero() && t.CohortID != qf.CohortID {
			continue
		}
		if qf.TrackID != "" && t.TrackID != qf.TrackID {
			continue
		}
		if qf.PublishedOnly && !t.IsPublished {
			continue
		}
		tasks = append(tasks, *t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task, allowLate, isPublished *bool) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.tasks[t.ID]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	if t.Title != "" {
		orig.Title = t.Title
	}
	if t.Description != "" {
		orig.Description = t.Description
	}
	if !t.DueDate.IsZero() {
		orig.DueDate = t.DueDate
	}
	if t.MaxScore != 0 {
		orig.MaxScore = t.MaxScore
	}
	if allowLate != nil {
		orig.AllowLateSubmission = *allowLate
	}
	if isPublished != nil {
		orig.IsPublished = *isPublished
	}
	orig.UpdatedAt = t.UpdatedAt
	return *orig, nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.tasks[id]; !ok {
		return task.ErrNotFound
	}
	delete(repo.db.tasks, id)
	return nil
}

func (repo *taskRepository) CreateSubmission(_ context.Context, s task.Submission) (task.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.TaskID == s.TaskID && existing.StudentID == s.StudentID {
			return task.Submission{}, task.ErrSubmissionExists
		}
	}
	s.ID = primitive.NewObjectID()
	repo.db.submissions[s.ID] = &s
	return s, nil
}

func (repo *taskRepository) GetSubmissionByID(_ context.Context, id primitive.ObjectID) (task.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		return *s, nil
	}
	return task.Submission{}, task.ErrSubmissionNotFound
}

func (repo *taskRepository) QuerySubmissionsByTask(_ context.Context, taskID primitive.ObjectID) ([]task.Submission, error) {
	return repo.querySubmissions(func(s *task.Submission) bool { return s.TaskID == taskID })
}

func (repo *taskRepository) QuerySubmissionsByStudent(_ context.Context, studentID primitive.ObjectID) ([]task.Submission, error) {
	return repo.querySubmissions(func(s *task.Submission) bool { return s.StudentID == studentID })
}

func (repo *taskRepository) querySubmissions(match func(*task.Submission) bool) ([]task.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]task.Submission, 0)
	for _, s := range repo.db.submissions {
		if match(s) {
			subs = append(subs, *s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *taskRepository) UpdateSubmission(_ context.Context, s task.Submission) (task.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.submissions[s.ID]
	if !ok {
		return task.Submission{}, task.ErrSubmissionNotFound
	}
	orig.Status = s.Status
	orig.UpdatedAt = s.UpdatedAt
	if s.Score != nil {
		orig.Score = s.Score
	}
	if s.Feedback != "" {
		orig.Feedback = s.Feedback
	}
	if s.GradedBy != nil {
		orig.GradedBy = s.GradedBy
		orig.GradedAt = s.GradedAt
	}
	return *orig, nil
}
