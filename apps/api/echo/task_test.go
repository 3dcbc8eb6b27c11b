package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/task"
	"github.com/darasahq/darasa/core/track"
	"github.com/darasahq/darasa/core/user"
	inmemdb "github.com/darasahq/darasa/storage/inmem"
)

func createTask(
	t *testing.T, db *inmemdb.DB, cohortID primitive.ObjectID, trackID string,
	due time.Time, maxScore int, allowLate, published bool,
) task.Task {
	t.Helper()
	repo := inmemdb.NewTaskRepository(db)
	now := time.Now().UTC()
	tsk, err := repo.CreateTask(context.Background(), task.Task{
		CohortID:            cohortID,
		TrackID:             trackID,
		Title:               "Build a REST API",
		DueDate:             due,
		MaxScore:            maxScore,
		AllowLateSubmission: allowLate,
		IsPublished:         published,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return tsk
}

func Test_taskApi_submit(t *testing.T) {
	env := setup(t)

	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	coh := createCohort(t, env.cohortRepo, "C7", false, true, cohort.CohortTrack{TrackID: track.BackendDevelopment})

	future := time.Now().Add(72 * time.Hour).UTC()
	past := time.Now().Add(-72 * time.Hour).UTC()

	open := createTask(t, env.db, coh.ID, track.BackendDevelopment, future, 100, false, true)
	unpublished := createTask(t, env.db, coh.ID, track.BackendDevelopment, future, 100, false, false)
	overdue := createTask(t, env.db, coh.ID, track.BackendDevelopment, past, 100, false, true)
	lateOK := createTask(t, env.db, coh.ID, track.BackendDevelopment, past, 100, true, true)

	studentToken := getToken(t, student)
	payload := func(taskID string) []byte {
		return []byte(fmt.Sprintf(`{"task_id": %q, "content": "done, see repo", "link_url": "https://github.com/x/y"}`, taskID))
	}

	tests := []httpTest{
		{name: "auth required", body: payload(open.ID.Hex()), wantCode: http.StatusUnauthorized},
		{name: "on time", token: studentToken, body: payload(open.ID.Hex()), wantCode: http.StatusCreated},
		{name: "one submission per task", token: studentToken, body: payload(open.ID.Hex()), wantCode: http.StatusConflict},
		{name: "unpublished task is invisible", token: studentToken, body: payload(unpublished.ID.Hex()), wantCode: http.StatusBadRequest},
		{name: "past due date", token: studentToken, body: payload(overdue.ID.Hex()), wantCode: http.StatusBadRequest},
		{name: "late allowed", token: studentToken, body: payload(lateOK.ID.Hex()), wantCode: http.StatusCreated},
		{name: "empty submission", token: studentToken, body: []byte(fmt.Sprintf(`{"task_id": %q}`, open.ID.Hex())), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/submissions", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_taskApi_grade(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	coh := createCohort(t, env.cohortRepo, "C7", false, true, cohort.CohortTrack{TrackID: track.BackendDevelopment})
	tsk := createTask(t, env.db, coh.ID, track.BackendDevelopment, time.Now().Add(72*time.Hour).UTC(), 50, false, true)

	// student submits
	req, rec := newAuthRequest(
		http.MethodPost, "/v1/submissions", getToken(t, student),
		[]byte(fmt.Sprintf(`{"task_id": %q, "content": "work"}`, tsk.ID.Hex())),
	)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: code = %d; want %d; body = %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var sub task.Submission
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("unmarshalling Submission failed: %v", err)
	}

	adminToken := getToken(t, admin)
	gradePath := "/v1/submissions/" + sub.ID.Hex() + "/grade"

	// students cannot grade
	req, rec = newAuthRequest(http.MethodPut, gradePath, getToken(t, student), []byte(`{"score": 40}`))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student grade: code = %d; want %d", rec.Code, http.StatusForbidden)
	}

	// score beyond MaxScore is rejected
	req, rec = newAuthRequest(http.MethodPut, gradePath, adminToken, []byte(`{"score": 51}`))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("overshoot: code = %d; want %d", rec.Code, http.StatusBadRequest)
	}

	req, rec = newAuthRequest(http.MethodPut, gradePath, adminToken, []byte(`{"score": 42, "feedback": "solid"}`))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("grade: code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var graded task.Submission
	if err := json.Unmarshal(rec.Body.Bytes(), &graded); err != nil {
		t.Fatalf("unmarshalling Submission failed: %v", err)
	}
	if graded.Status != task.StatusGraded || graded.Score == nil || *graded.Score != 42 {
		t.Errorf("graded = %+v; want graded with score 42", graded)
	}

	// double-grading is rejected
	req, rec = newAuthRequest(http.MethodPut, gradePath, adminToken, []byte(`{"score": 45}`))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("regrade: code = %d; want %d", rec.Code, http.StatusBadRequest)
	}

	// return to student
	req, rec = newAuthRequest(http.MethodPost, "/v1/submissions/"+sub.ID.Hex()+"/return", adminToken)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("return: code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// the student sees their returned submission
	req, rec = newAuthRequest(http.MethodGet, "/v1/submissions/mine", getToken(t, student))
	env.server.ServeHTTP(rec, req)
	var mine []task.Submission
	if err := json.Unmarshal(rec.Body.Bytes(), &mine); err != nil {
		t.Fatalf("unmarshalling submissions failed: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != task.StatusReturned {
		t.Errorf("mine = %+v; want one returned submission", mine)
	}
}

func Test_taskApi_studentVisibility(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	coh := createCohort(t, env.cohortRepo, "C7", false, true, cohort.CohortTrack{TrackID: track.BackendDevelopment})

	future := time.Now().Add(72 * time.Hour).UTC()
	createTask(t, env.db, coh.ID, track.BackendDevelopment, future, 100, false, true)
	createTask(t, env.db, coh.ID, track.BackendDevelopment, future, 100, false, false)

	counts := map[string]int{
		getToken(t, student): 1, // published only
		getToken(t, admin):   2,
	}
	for token, want := range counts {
		req, rec := newAuthRequest(http.MethodGet, "/v1/tasks?cohort_id="+coh.ID.Hex(), token)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query tasks: code = %d; want %d", rec.Code, http.StatusOK)
		}
		var tasks []task.Task
		if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
			t.Fatalf("unmarshalling tasks failed: %v", err)
		}
		if len(tasks) != want {
			t.Errorf("len(tasks) = %d; want %d", len(tasks), want)
		}
	}
}
