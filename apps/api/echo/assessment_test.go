package echoapi

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/assessment"
	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/email"
	"github.com/darasahq/darasa/core/track"
	"github.com/darasahq/darasa/core/user"
	inmemdb "github.com/darasahq/darasa/storage/inmem"
)

func createAssessment(t *testing.T, db *inmemdb.DB, appID primitive.ObjectID, fileURL, linkURL string) assessment.Assessment {
	t.Helper()
	repo := inmemdb.NewAssessmentRepository(db)
	now := time.Now().UTC()
	a, err := repo.CreateAssessment(context.Background(), assessment.Assessment{
		ApplicationID: appID,
		FileURL:       fileURL,
		LinkURL:       linkURL,
		Status:        assessment.StatusSubmitted,
		SubmittedAt:   now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateAssessment() failed: %v", err)
	}
	return a
}

func Test_assessmentApi_review(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	applicant := createUser(t, env.usrRepo, "Jane Doe", "jane@test.cd", user.RoleApplicant, "LePassword7", true)

	coh := createCohort(t, env.cohortRepo, "C7", true, true, cohort.CohortTrack{TrackID: track.BackendDevelopment})
	app := createApplication(t, env.appRepo, applicant.ID, coh.ID, track.BackendDevelopment, application.StatusShortlisted)
	a := createAssessment(t, env.db, app.ID, "", "https://github.com/jane/solution")

	path := "/v1/assessments/" + a.ID.Hex() + "/review"
	body := []byte(`{"status": "reviewed", "score": 85, "review_notes": "solid work"}`)

	tests := []httpTest{
		{name: "auth required", body: body, wantCode: http.StatusUnauthorized},
		{name: "staff required", token: getToken(t, student), body: body, wantCode: http.StatusForbidden},
		{name: "reviewed", token: getToken(t, admin), body: body, wantCode: http.StatusOK},
		{name: "terminal status rejects a second review", token: getToken(t, admin), body: body, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, path, tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the applicant is notified with the derived submission type
	logs, err := env.emailSvc.FilterLogs(ctx, email.LogFilter{TemplateType: email.TypeAssessmentReviewed})
	if err != nil {
		t.Fatalf("FilterLogs() failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("queued reviewed emails = %d; want 1", len(logs))
	}
	lg := logs[0]
	if lg.ToAddress != applicant.Email {
		t.Errorf("ToAddress = %s; want %s", lg.ToAddress, applicant.Email)
	}
	if got := lg.Variables["submission_type"]; got != assessment.TypeLink {
		t.Errorf("submission_type = %q; want %q", got, assessment.TypeLink)
	}
	if !strings.Contains(lg.HTMLContent, "link submission") {
		t.Errorf("rendered content missing the submission type: %s", lg.HTMLContent)
	}
}

func Test_assessmentApi_review_fileSubmissionType(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	applicant := createUser(t, env.usrRepo, "John Doe", "john@test.cd", user.RoleApplicant, "LePassword7", true)

	coh := createCohort(t, env.cohortRepo, "C7", true, true, cohort.CohortTrack{TrackID: track.DataScience})
	app := createApplication(t, env.appRepo, applicant.ID, coh.ID, track.DataScience, application.StatusShortlisted)
	a := createAssessment(t, env.db, app.ID, "https://files.test.cd/solution.zip", "")

	req, rec := newAuthRequest(http.MethodPut, "/v1/assessments/"+a.ID.Hex()+"/review", getToken(t, admin),
		[]byte(`{"status": "reviewed", "score": 70}`))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("review: code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	logs, err := env.emailSvc.FilterLogs(ctx, email.LogFilter{TemplateType: email.TypeAssessmentReviewed})
	if err != nil {
		t.Fatalf("FilterLogs() failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("queued reviewed emails = %d; want 1", len(logs))
	}
	if got := logs[0].Variables["submission_type"]; got != assessment.TypeFile {
		t.Errorf("submission_type = %q; want %q", got, assessment.TypeFile)
	}
}
