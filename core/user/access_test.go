package user

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUser_HasTrackAccess(t *testing.T) {
	cohortA := primitive.NewObjectID()
	cohortB := primitive.NewObjectID()
	backend := "backend-development"
	data := "data-science"

	tests := []struct {
		name     string
		usr      User
		cohortID primitive.ObjectID
		trackID  string
		want     bool
	}{
		{
			name:     "admin always passes",
			usr:      User{Role: RoleAdmin, IsActive: true},
			cohortID: cohortA, trackID: backend, want: true,
		},
		{
			name:     "inactive admin never passes",
			usr:      User{Role: RoleAdmin},
			cohortID: cohortA, trackID: backend, want: false,
		},
		{
			name:     "student has no grants",
			usr:      User{Role: RoleStudent, IsActive: true},
			cohortID: cohortA, trackID: backend, want: false,
		},
		{
			name: "cohort-scoped grant matches",
			usr: User{Role: RoleMentor, IsActive: true, TrackAssignments: []TrackAssignment{
				{TrackID: backend, CohortID: &cohortA, IsActive: true},
			}},
			cohortID: cohortA, trackID: backend, want: true,
		},
		{
			name: "cohort-scoped grant does not leak across cohorts",
			usr: User{Role: RoleMentor, IsActive: true, TrackAssignments: []TrackAssignment{
				{TrackID: backend, CohortID: &cohortA, IsActive: true},
			}},
			cohortID: cohortB, trackID: backend, want: false,
		},
		{
			name: "nil cohort grant covers every cohort",
			usr: User{Role: RoleMentor, IsActive: true, TrackAssignments: []TrackAssignment{
				{TrackID: backend, IsActive: true},
			}},
			cohortID: cohortB, trackID: backend, want: true,
		},
		{
			name: "inactive assignment is ignored",
			usr: User{Role: RoleMentor, IsActive: true, TrackAssignments: []TrackAssignment{
				{TrackID: backend, IsActive: false},
			}},
			cohortID: cohortA, trackID: backend, want: false,
		},
		{
			name: "wrong track",
			usr: User{Role: RoleMentor, IsActive: true, TrackAssignments: []TrackAssignment{
				{TrackID: backend, IsActive: true},
			}},
			cohortID: cohortA, trackID: data, want: false,
		},
		{
			name:     "legacy flat list grants all cohorts",
			usr:      User{Role: RoleMentor, IsActive: true, AssignedTracks: []string{backend, data}},
			cohortID: cohortB, trackID: data, want: true,
		},
		{
			name: "structured assignments shadow the legacy list",
			usr: User{Role: RoleMentor, IsActive: true,
				AssignedTracks:   []string{data},
				TrackAssignments: []TrackAssignment{{TrackID: backend, IsActive: true}},
			},
			cohortID: cohortA, trackID: data, want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.usr.HasTrackAccess(tt.cohortID, tt.trackID); got != tt.want {
				t.Errorf("HasTrackAccess() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestUser_NormalizeAssignments(t *testing.T) {
	legacy := User{Role: RoleMentor, AssignedTracks: []string{"backend-development", "data-science"}}
	if !legacy.NormalizeAssignments() {
		t.Fatal("expected a legacy user to be migrated")
	}
	if len(legacy.TrackAssignments) != 2 || len(legacy.AssignedTracks) != 0 {
		t.Errorf("after migration: assignments = %v, legacy = %v", legacy.TrackAssignments, legacy.AssignedTracks)
	}
	for _, ta := range legacy.TrackAssignments {
		if !ta.IsActive || ta.CohortID != nil {
			t.Errorf("synthesized assignment = %+v; want active, all cohorts", ta)
		}
	}

	// idempotent
	if legacy.NormalizeAssignments() {
		t.Error("expected a second run to be a no-op")
	}

	empty := User{Role: RoleMentor}
	if empty.NormalizeAssignments() {
		t.Error("expected a user without legacy tracks to be untouched")
	}
}

func TestRolePriority(t *testing.T) {
	order := []string{RoleApplicant, RoleStudent, RoleMentor, RoleAdmin}
	for i := 1; i < len(order); i++ {
		if RolePriority(order[i-1]) >= RolePriority(order[i]) {
			t.Errorf("RolePriority(%q) should be below RolePriority(%q)", order[i-1], order[i])
		}
	}
}
