package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/darasahq/darasa/core/cohort"
)

func seedCohort(t *testing.T, repo *cohortRepository, number string, active bool, tracks ...cohort.CohortTrack) cohort.Cohort {
	t.Helper()
	now := time.Now().UTC()
	c, err := repo.CreateCohort(context.Background(), cohort.Cohort{
		Number:            number,
		Name:              "Cohort " + number,
		StartDate:         now.AddDate(0, 1, 0),
		EndDate:           now.AddDate(0, 7, 0),
		IsCurrentlyActive: active,
		Tracks:            tracks,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		t.Fatalf("CreateCohort() failed: %v", err)
	}
	return c
}

func Test_cohortRepository_SetActiveCohort(t *testing.T) {
	ctx := context.Background()
	repo := NewCohortRepository(NewDB())

	c1 := seedCohort(t, repo, "C7", true)
	c2 := seedCohort(t, repo, "C8", false)

	if _, err := repo.SetActiveCohort(ctx, c2.ID); err != nil {
		t.Fatalf("SetActiveCohort() failed: %v", err)
	}

	active, err := repo.GetActiveCohort(ctx)
	if err != nil {
		t.Fatalf("GetActiveCohort() failed: %v", err)
	}
	if active.ID != c2.ID {
		t.Errorf("active = %s; want %s", active.Number, c2.Number)
	}

	// the previous holder lost the flag
	prev, err := repo.GetCohortByID(ctx, c1.ID)
	if err != nil {
		t.Fatalf("GetCohortByID() failed: %v", err)
	}
	if prev.IsCurrentlyActive {
		t.Error("expected the previous active cohort to be deactivated")
	}
}

func Test_cohortRepository_duplicateNumber(t *testing.T) {
	repo := NewCohortRepository(NewDB())

	seedCohort(t, repo, "C7", false)
	_, err := repo.CreateCohort(context.Background(), cohort.Cohort{Number: "C7"})
	if err != cohort.ErrNumberExists {
		t.Errorf("CreateCohort() error = %v; want %v", err, cohort.ErrNumberExists)
	}
}

func Test_cohortRepository_IncrementTrackStudents(t *testing.T) {
	ctx := context.Background()
	repo := NewCohortRepository(NewDB())

	c := seedCohort(t, repo, "C7", true,
		cohort.CohortTrack{TrackID: "backend-development", Capacity: 2},
		cohort.CohortTrack{TrackID: "data-science"}, // unbounded
	)

	for i := 0; i < 2; i++ {
		if err := repo.IncrementTrackStudents(ctx, c.ID, "backend-development", 1); err != nil {
			t.Fatalf("increment %d failed: %v", i+1, err)
		}
	}

	// a full track rejects the next seat
	if err := repo.IncrementTrackStudents(ctx, c.ID, "backend-development", 1); err != cohort.ErrTrackFull {
		t.Errorf("increment on full track error = %v; want %v", err, cohort.ErrTrackFull)
	}

	// freeing a seat reopens it
	if err := repo.IncrementTrackStudents(ctx, c.ID, "backend-development", -1); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if err := repo.IncrementTrackStudents(ctx, c.ID, "backend-development", 1); err != nil {
		t.Errorf("increment after decrement error = %v; want nil", err)
	}

	// zero capacity means unbounded
	for i := 0; i < 5; i++ {
		if err := repo.IncrementTrackStudents(ctx, c.ID, "data-science", 1); err != nil {
			t.Fatalf("unbounded increment failed: %v", err)
		}
	}

	// unknown track
	if err := repo.IncrementTrackStudents(ctx, c.ID, "basket-weaving", 1); err != cohort.ErrNotFound {
		t.Errorf("unknown track error = %v; want %v", err, cohort.ErrNotFound)
	}

	got, err := repo.GetCohortByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCohortByID() failed: %v", err)
	}
	if ct, _ := got.Track("backend-development"); ct.CurrentStudents != 2 {
		t.Errorf("CurrentStudents = %d; want 2", ct.CurrentStudents)
	}
}
