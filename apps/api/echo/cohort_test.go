package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/track"
	"github.com/darasahq/darasa/core/user"
)

func Test_cohortApi_create(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	mentor := createUser(t, env.usrRepo, "Mentor", "mentor@test.cd", user.RoleMentor, "LePassword7", true)
	adminToken := getToken(t, admin)

	payload := []byte(`{
		"number": "C7",
		"name": "Cohort 7",
		"start_date": "2026-10-01T00:00:00Z",
		"end_date": "2027-03-31T00:00:00Z",
		"tracks": [{"track_id": "backend-development", "capacity": 25}]
	}`)

	tests := []httpTest{
		{name: "auth required", body: payload, wantCode: http.StatusUnauthorized},
		{name: "admin required", token: getToken(t, mentor), body: payload, wantCode: http.StatusForbidden},
		{name: "created", token: adminToken, body: payload, wantCode: http.StatusCreated},
		{name: "duplicate number", token: adminToken, body: payload, wantCode: http.StatusConflict},
		{
			name: "end before start", token: adminToken, wantCode: http.StatusBadRequest,
			body: []byte(`{
				"number": "C8", "name": "Cohort 8",
				"start_date": "2026-10-01T00:00:00Z", "end_date": "2026-09-01T00:00:00Z",
				"tracks": [{"track_id": "backend-development"}]
			}`),
		},
		{
			name: "no tracks", token: adminToken, wantCode: http.StatusBadRequest,
			body: []byte(`{
				"number": "C9", "name": "Cohort 9",
				"start_date": "2026-10-01T00:00:00Z", "end_date": "2027-03-31T00:00:00Z",
				"tracks": []
			}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/cohorts", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_cohortApi_activate(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	c1 := createCohort(t, env.cohortRepo, "C7", true, true, cohort.CohortTrack{TrackID: track.BackendDevelopment})
	c2 := createCohort(t, env.cohortRepo, "C8", false, false, cohort.CohortTrack{TrackID: track.BackendDevelopment})

	// the active cohort is public
	req, rec := newRequest(http.MethodGet, "/v1/cohorts/active")
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("active: code = %d; want %d", rec.Code, http.StatusOK)
	}
	var active cohort.Cohort
	if err := json.Unmarshal(rec.Body.Bytes(), &active); err != nil {
		t.Fatalf("unmarshalling Cohort failed: %v", err)
	}
	if active.ID != c1.ID {
		t.Errorf("active = %s; want %s", active.Number, c1.Number)
	}

	// switching is atomic: the old holder loses the flag
	req, rec = newAuthRequest(http.MethodPost, "/v1/cohorts/"+c2.ID.Hex()+"/activate", getToken(t, admin))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate: code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	req, rec = newRequest(http.MethodGet, "/v1/cohorts/active")
	env.server.ServeHTTP(rec, req)
	_ = json.Unmarshal(rec.Body.Bytes(), &active)
	if active.ID != c2.ID {
		t.Errorf("active after switch = %s; want %s", active.Number, c2.Number)
	}
}

func Test_cohortApi_noActive(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/cohorts/active")
	env.server.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})}
	checkCodeAndData(t, tt, rec)
}
