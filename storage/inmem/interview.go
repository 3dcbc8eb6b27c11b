package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/interview"
)

type interviewRepository struct {
	db *DB
}

var _ interview.Repository = (*interviewRepository)(nil)

func NewInterviewRepository(db *DB) *interviewRepository {
	return &interviewRepository{db: db}
}

func (repo *interviewRepository) CreateSlot(_ context.Context, slot interview.InterviewSlot) (interview.InterviewSlot, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	slot.ID = primitive.NewObjectID()
	repo.db.interviewSlots[slot.ID] = &slot
	return slot, nil
}

func (repo *interviewRepository) GetSlotByID(_ context.Context, id primitive.ObjectID) (interview.InterviewSlot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if slot, ok := repo.db.interviewSlots[id]; ok {
		return *slot, nil
	}
	return interview.InterviewSlot{}, interview.ErrSlotNotFound
}

func (repo *interviewRepository) QuerySlots(_ context.Context, onlyAvailable bool) ([]interview.InterviewSlot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	slots := make([]interview.InterviewSlot, 0)
	for _, slot := range repo.db.interviewSlots {
		if onlyAvailable && (!slot.IsActive || !slot.HasRoom()) {
			continue
		}
		slots = append(slots, *slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

func (repo *interviewRepository) DeactivateSlot(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	slot, ok := repo.db.interviewSlots[id]
	if !ok {
		return interview.ErrSlotNotFound
	}
	slot.IsActive = false
	return nil
}

func (repo *interviewRepository) BookInterview(_ context.Context, iv interview.Interview) (interview.Interview, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.interviews {
		if existing.ApplicationID == iv.ApplicationID {
			return interview.Interview{}, interview.ErrExists
		}
	}
	slot, ok := repo.db.interviewSlots[iv.SlotID]
	if !ok {
		return interview.Interview{}, interview.ErrSlotNotFound
	}
	if !slot.IsActive || !slot.HasRoom() {
		return interview.Interview{}, interview.ErrSlotFull
	}

	slot.Booked++
	iv.ID = primitive.NewObjectID()
	repo.db.interviews[iv.ID] = &iv
	return iv, nil
}

func (repo *interviewRepository) GetInterviewByID(_ context.Context, id primitive.ObjectID) (interview.Interview, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if iv, ok := repo.db.interviews[id]; ok {
		return *iv, nil
	}
	return interview.Interview{}, interview.ErrNotFound
}

func (repo *interviewRepository) GetInterviewByApplicationID(_ context.Context, appID primitive.ObjectID) (interview.Interview, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, iv := range repo.db.interviews {
		if iv.ApplicationID == appID {
			return *iv, nil
		}
	}
	return interview.Interview{}, interview.ErrNotFound
}

func (repo *interviewRepository) QueryInterviews(_ context.Context, status string) ([]interview.Interview, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	interviews := make([]interview.Interview, 0)
	for _, iv := range repo.db.interviews {
		if status != "" && iv.Status != status {
			continue
		}
		interviews = append(interviews, *iv)
	}
	sort.Slice(interviews, func(i, j int) bool {
		return interviews[i].ScheduledAt.Before(interviews[j].ScheduledAt)
	})
	return interviews, nil
}

func (repo *interviewRepository) UpdateInterview(_ context.Context, iv interview.Interview, freeSlot bool) (interview.Interview, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.interviews[iv.ID]
	if !ok {
		return interview.Interview{}, interview.ErrNotFound
	}
	orig.Status = iv.Status
	orig.UpdatedAt = iv.UpdatedAt
	if iv.Notes != "" {
		orig.Notes = iv.Notes
	}
	if freeSlot {
		if slot, ok := repo.db.interviewSlots[orig.SlotID]; ok && slot.Booked > 0 {
			slot.Booked--
		}
	}
	return *orig, nil
}
