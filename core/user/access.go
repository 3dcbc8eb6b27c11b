package user

import "go.mongodb.org/mongo-driver/bson/primitive"

// trackPair is one (cohort, track) grant; a nil cohort covers all cohorts.
type trackPair struct {
	cohortID *primitive.ObjectID
	trackID  string
}

// activeTrackPairs derives the mentor's effective grants. Mentors carrying
// only the legacy flat AssignedTracks list get pairs synthesized with a nil
// cohort at read time; the synthesized pairs are never persisted.
func (u *User) activeTrackPairs() []trackPair {
	if !u.IsMentor() {
		return nil
	}

	if len(u.TrackAssignments) > 0 {
		pairs := make([]trackPair, 0, len(u.TrackAssignments))
		for _, ta := range u.TrackAssignments {
			if !ta.IsActive {
				continue
			}
			pairs = append(pairs, trackPair{cohortID: ta.CohortID, trackID: ta.TrackID})
		}
		return pairs
	}

	pairs := make([]trackPair, 0, len(u.AssignedTracks))
	for _, trackID := range u.AssignedTracks {
		pairs = append(pairs, trackPair{trackID: trackID})
	}
	return pairs
}

// HasTrackAccess reports whether the user may act on the given
// (cohort, track) pair. Admins always pass; inactive users never do.
// It never errors: absence of a matching grant simply yields false and the
// caller responds 403.
func (u *User) HasTrackAccess(cohortID primitive.ObjectID, trackID string) bool {
	if !u.IsActive {
		return false
	}
	if u.IsAdmin() {
		return true
	}

	for _, pair := range u.activeTrackPairs() {
		if pair.trackID != trackID {
			continue
		}
		if pair.cohortID == nil || *pair.cohortID == cohortID {
			return true
		}
	}
	return false
}

// NormalizeAssignments converts the legacy AssignedTracks shape into
// TrackAssignments for persistence; used by the one-off migration command.
// Users already on the new shape are left untouched.
func (u *User) NormalizeAssignments() bool {
	if len(u.TrackAssignments) > 0 || len(u.AssignedTracks) == 0 {
		return false
	}
	for _, trackID := range u.AssignedTracks {
		u.TrackAssignments = append(u.TrackAssignments, TrackAssignment{
			TrackID:  trackID,
			IsActive: true,
		})
	}
	u.AssignedTracks = nil
	return true
}
