package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/email"
	"github.com/darasahq/darasa/core/track"
	"github.com/darasahq/darasa/core/user"
)

func Test_applicationApi_submit(t *testing.T) {
	env := setup(t)

	createCohort(t, env.cohortRepo, "C7", true /* open */, true /* active */, cohort.CohortTrack{
		TrackID:  track.BackendDevelopment,
		Capacity: 10,
	})
	createCohort(t, env.cohortRepo, "C8", false /* closed */, false, cohort.CohortTrack{
		TrackID:  track.BackendDevelopment,
		Capacity: 10,
	})

	payload := func(email, trackID, cohortNumber string) []byte {
		return []byte(fmt.Sprintf(
			`{"name": "App Licant", "email": %q, "track_id": %q, "cohort_number": %q, "cv_url": "https://example.com/cv.pdf"}`,
			email, trackID, cohortNumber,
		))
	}

	tests := []httpTest{
		{name: "active cohort intake", body: payload("app1@test.cd", track.BackendDevelopment, ""), wantCode: http.StatusCreated},
		{name: "duplicate application", body: payload("app1@test.cd", track.BackendDevelopment, ""), wantCode: http.StatusConflict},
		{name: "closed cohort", body: payload("app2@test.cd", track.BackendDevelopment, "C8"), wantCode: http.StatusBadRequest},
		{name: "track not offered", body: payload("app3@test.cd", track.DataScience, ""), wantCode: http.StatusBadRequest},
		{name: "invalid track", body: payload("app4@test.cd", "basket-weaving", ""), wantCode: http.StatusBadRequest},
		{name: "missing cv", body: []byte(`{"name": "X", "email": "x@test.cd", "track_id": "backend-development"}`), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/applications", tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// intake created the applicant account
	ctx := context.Background()
	applicant, err := env.usrRepo.GetUserByEmail(ctx, "app1@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if applicant.Role != user.RoleApplicant {
		t.Errorf("applicant role = %q; want %q", applicant.Role, user.RoleApplicant)
	}
	if !applicant.IsPasswordDefault {
		t.Error("expected the generated account to be flagged IsPasswordDefault")
	}

	// and queued an acknowledgement email
	logs, err := env.emailRepo.FilterLogs(ctx, email.LogFilter{TemplateType: email.TypeApplicationReceived})
	if err != nil {
		t.Fatalf("FilterLogs() failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d; want 1", len(logs))
	}
	if logs[0].Status != email.StatusPending {
		t.Errorf("log status = %q; want %q", logs[0].Status, email.StatusPending)
	}
}

func Test_applicationApi_review_transitions(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	applicant := createUser(t, env.usrRepo, "App Licant", "app@test.cd", user.RoleApplicant, "LePassword7", true)
	coh := createCohort(t, env.cohortRepo, "C7", true, true, cohort.CohortTrack{
		TrackID:  track.BackendDevelopment,
		Capacity: 10,
	})
	app := createApplication(t, env.appRepo, applicant.ID, coh.ID, track.BackendDevelopment, application.StatusPending)

	adminToken := getToken(t, admin)
	reviewPath := "/v1/applications/" + app.ID.Hex() + "/review"

	review := func(t *testing.T, body string, wantCode int) application.Application {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPut, reviewPath, adminToken, []byte(body))
		env.server.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("review(%s): code = %d; want %d; body = %s", body, rec.Code, wantCode, rec.Body.String())
		}
		var reviewed application.Application
		if wantCode == http.StatusOK {
			if err := json.Unmarshal(rec.Body.Bytes(), &reviewed); err != nil {
				t.Fatalf("unmarshalling Application failed: %v", err)
			}
		}
		return reviewed
	}

	// pending -> shortlisted is not a legal hop
	review(t, `{"status": "shortlisted"}`, http.StatusBadRequest)

	// pending -> under-review -> shortlisted -> accepted
	reviewed := review(t, `{"status": "under-review"}`, http.StatusOK)
	if reviewed.Status != application.StatusUnderReview {
		t.Errorf("status = %q; want %q", reviewed.Status, application.StatusUnderReview)
	}
	review(t, `{"status": "shortlisted"}`, http.StatusOK)
	reviewed = review(t, `{"status": "accepted"}`, http.StatusOK)
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != admin.ID {
		t.Error("expected ReviewedBy to be set to the reviewer")
	}

	// acceptance promoted the applicant and filled a seat
	ctx := context.Background()
	promoted, err := env.usrRepo.GetUserByID(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if promoted.Role != user.RoleStudent {
		t.Errorf("applicant role = %q; want %q", promoted.Role, user.RoleStudent)
	}
	coh, err = env.cohortRepo.GetCohortByID(ctx, coh.ID)
	if err != nil {
		t.Fatalf("GetCohortByID() failed: %v", err)
	}
	if ct, _ := coh.Track(track.BackendDevelopment); ct.CurrentStudents != 1 {
		t.Errorf("CurrentStudents = %d; want 1", ct.CurrentStudents)
	}

	// accepted is terminal
	review(t, `{"status": "rejected"}`, http.StatusBadRequest)
}

func Test_applicationApi_review_fullTrack(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	applicant := createUser(t, env.usrRepo, "App Licant", "app@test.cd", user.RoleApplicant, "LePassword7", true)
	coh := createCohort(t, env.cohortRepo, "C7", true, true, cohort.CohortTrack{
		TrackID:         track.BackendDevelopment,
		Capacity:        1,
		CurrentStudents: 1,
	})
	app := createApplication(t, env.appRepo, applicant.ID, coh.ID, track.BackendDevelopment, application.StatusShortlisted)

	req, rec := newAuthRequest(
		http.MethodPut, "/v1/applications/"+app.ID.Hex()+"/review",
		getToken(t, admin), []byte(`{"status": "accepted"}`),
	)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("code = %d; want %d; body = %s", rec.Code, http.StatusConflict, rec.Body.String())
	}

	// the application did not move
	got, err := env.appRepo.GetApplicationByID(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("GetApplicationByID() failed: %v", err)
	}
	if got.Status != application.StatusShortlisted {
		t.Errorf("status = %q; want %q", got.Status, application.StatusShortlisted)
	}
}

func Test_applicationApi_staffOnly(t *testing.T) {
	env := setup(t)

	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)

	tests := []httpTest{
		{name: "list requires auth", method: http.MethodGet, path: "/v1/applications", wantCode: http.StatusUnauthorized},
		{
			name: "list requires staff", method: http.MethodGet, path: "/v1/applications",
			token: getToken(t, student), wantCode: http.StatusForbidden,
		},
		{
			name: "delete requires admin", method: http.MethodDelete, path: "/v1/applications/ffffffffffffffffffffffff",
			token: getToken(t, student), wantCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
