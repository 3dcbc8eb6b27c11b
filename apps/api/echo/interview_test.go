package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/interview"
	"github.com/darasahq/darasa/core/track"
	"github.com/darasahq/darasa/core/user"
)

func Test_interviewApi_slots(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	adminToken := getToken(t, admin)

	start := time.Now().Add(48 * time.Hour).UTC()
	payload := []byte(fmt.Sprintf(
		`{"interviewer_id": %q, "start_time": %q, "end_time": %q, "capacity": 2}`,
		admin.ID.Hex(), start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339),
	))

	// staff only
	req, rec := newAuthRequest(http.MethodPost, "/v1/interviews/slots", getToken(t, student), payload)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student create slot: code = %d; want %d", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/interviews/slots", adminToken, payload)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create slot: code = %d; want %d; body = %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var slot interview.InterviewSlot
	if err := json.Unmarshal(rec.Body.Bytes(), &slot); err != nil {
		t.Fatalf("unmarshalling InterviewSlot failed: %v", err)
	}

	// a slot in the past is rejected
	past := []byte(fmt.Sprintf(
		`{"interviewer_id": %q, "start_time": "2020-01-01T09:00:00Z", "end_time": "2020-01-01T10:00:00Z"}`,
		admin.ID.Hex(),
	))
	req, rec = newAuthRequest(http.MethodPost, "/v1/interviews/slots", adminToken, past)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("past slot: code = %d; want %d", rec.Code, http.StatusBadRequest)
	}

	// available slots are browsable without a session
	req, rec = newRequest(http.MethodGet, "/v1/interviews/slots?available=true")
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query slots: code = %d; want %d", rec.Code, http.StatusOK)
	}
	var slots []interview.InterviewSlot
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("unmarshalling slots failed: %v", err)
	}
	if len(slots) != 1 || slots[0].ID != slot.ID {
		t.Errorf("slots = %v; want the created slot only", slots)
	}

	// deactivated slots drop out of the available listing
	req, rec = newAuthRequest(http.MethodDelete, "/v1/interviews/slots/"+slot.ID.Hex(), adminToken)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate slot: code = %d; want %d", rec.Code, http.StatusNoContent)
	}
	req, rec = newRequest(http.MethodGet, "/v1/interviews/slots?available=true")
	env.server.ServeHTTP(rec, req)
	_ = json.Unmarshal(rec.Body.Bytes(), &slots)
	if len(slots) != 0 {
		t.Errorf("slots = %v; want none", slots)
	}
}

func Test_interviewApi_schedule(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	app1Usr := createUser(t, env.usrRepo, "App One", "app1@test.cd", user.RoleApplicant, "LePassword7", true)
	app2Usr := createUser(t, env.usrRepo, "App Two", "app2@test.cd", user.RoleApplicant, "LePassword7", true)
	coh := createCohort(t, env.cohortRepo, "C7", true, true, cohort.CohortTrack{
		TrackID:  track.BackendDevelopment,
		Capacity: 10,
	})
	app1 := createApplication(t, env.appRepo, app1Usr.ID, coh.ID, track.BackendDevelopment, application.StatusShortlisted)
	app2 := createApplication(t, env.appRepo, app2Usr.ID, coh.ID, track.BackendDevelopment, application.StatusShortlisted)

	start := time.Now().Add(48 * time.Hour).UTC()
	slot, err := env.ivRepo.CreateSlot(context.Background(), interview.InterviewSlot{
		InterviewerID: admin.ID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		Capacity:      1,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}

	payload := func(appID string) []byte {
		return []byte(fmt.Sprintf(
			`{"application_id": %q, "slot_id": %q, "meeting_url": "https://meet.example.com/x"}`,
			appID, slot.ID.Hex(),
		))
	}

	tests := []httpTest{
		{name: "booking", body: payload(app1.ID.Hex()), wantCode: http.StatusCreated},
		{name: "one interview per application", body: payload(app1.ID.Hex()), wantCode: http.StatusConflict},
		{name: "slot full", body: payload(app2.ID.Hex()), wantCode: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/interviews", tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the booked seat is reflected on the slot
	slot, err = env.ivRepo.GetSlotByID(context.Background(), slot.ID)
	if err != nil {
		t.Fatalf("GetSlotByID() failed: %v", err)
	}
	if slot.Booked != 1 {
		t.Errorf("slot.Booked = %d; want 1", slot.Booked)
	}

	// cancelling frees the seat
	iv, err := env.ivRepo.GetInterviewByApplicationID(context.Background(), app1.ID)
	if err != nil {
		t.Fatalf("GetInterviewByApplicationID() failed: %v", err)
	}
	req, rec := newAuthRequest(
		http.MethodPut, "/v1/interviews/"+iv.ID.Hex(),
		getToken(t, admin), []byte(`{"status": "cancelled"}`),
	)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	slot, _ = env.ivRepo.GetSlotByID(context.Background(), slot.ID)
	if slot.Booked != 0 {
		t.Errorf("slot.Booked = %d after cancel; want 0", slot.Booked)
	}

	// cancelled is terminal
	req, rec = newAuthRequest(
		http.MethodPut, "/v1/interviews/"+iv.ID.Hex(),
		getToken(t, admin), []byte(`{"status": "completed"}`),
	)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("cancel->completed: code = %d; want %d", rec.Code, http.StatusBadRequest)
	}
}
