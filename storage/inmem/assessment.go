package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/assessment"
)

type assessmentRepository struct {
	db *DB
}

var _ assessment.Repository = (*assessmentRepository)(nil)

func NewAssessmentRepository(db *DB) *assessmentRepository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) CreateAssessment(_ context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.assessments {
		if existing.ApplicationID == a.ApplicationID {
			return assessment.Assessment{}, assessment.ErrExists
		}
	}
	a.ID = primitive.NewObjectID()
	repo.db.assessments[a.ID] = &a
	return a, nil
}

func (repo *assessmentRepository) GetAssessmentByID(_ context.Context, id primitive.ObjectID) (assessment.Assessment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.assessments[id]; ok {
		return *a, nil
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) GetAssessmentByApplicationID(_ context.Context, appID primitive.ObjectID) (assessment.Assessment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, a := range repo.db.assessments {
		if a.ApplicationID == appID {
			return *a, nil
		}
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) QueryAssessments(_ context.Context, status string) ([]assessment.Assessment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assessments := make([]assessment.Assessment, 0)
	for _, a := range repo.db.assessments {
		if status != "" && a.Status != status {
			continue
		}
		assessments = append(assessments, *a)
	}
	sort.Slice(assessments, func(i, j int) bool {
		return assessments[i].SubmittedAt.After(assessments[j].SubmittedAt)
	})
	return assessments, nil
}

func (repo *assessmentRepository) UpdateAssessment(_ context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.assessments[a.ID]
	if !ok {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	orig.Status = a.Status
	orig.UpdatedAt = a.UpdatedAt
	if a.ReviewNotes != "" {
		orig.ReviewNotes = a.ReviewNotes
	}
	if a.Score != nil {
		orig.Score = a.Score
	}
	if a.ReviewedBy != nil {
		orig.ReviewedBy = a.ReviewedBy
		orig.ReviewedAt = a.ReviewedAt
	}
	return *orig, nil
}

func (repo *assessmentRepository) DeleteAssessment(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.assessments[id]; !ok {
		return assessment.ErrNotFound
	}
	delete(repo.db.assessments, id)
	return nil
}
