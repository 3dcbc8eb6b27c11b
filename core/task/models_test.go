package task

import (
	"testing"
	"time"
)

func TestTask_AcceptsSubmissionsAt(t *testing.T) {
	due := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name      string
		allowLate bool
		at        time.Time
		want      bool
	}{
		{name: "before due date", at: due.Add(-time.Hour), want: true},
		{name: "exactly at due date", at: due, want: true},
		{name: "after due date", at: due.Add(time.Minute), want: false},
		{name: "late allowed", allowLate: true, at: due.Add(24 * time.Hour), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tsk := Task{DueDate: due, AllowLateSubmission: tt.allowLate}
			if got := tsk.AcceptsSubmissionsAt(tt.at); got != tt.want {
				t.Errorf("AcceptsSubmissionsAt() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestNewSubmission_Validate(t *testing.T) {
	taskID := "65a000000000000000000001"

	tests := []struct {
		name    string
		ns      NewSubmission
		wantErr bool
	}{
		{name: "content only", ns: NewSubmission{TaskID: taskID, Content: "done"}},
		{name: "link only", ns: NewSubmission{TaskID: taskID, LinkURL: "https://github.com/x/y"}},
		{name: "file only", ns: NewSubmission{TaskID: taskID, FileURL: "https://files.test.cd/a.zip"}},
		{name: "empty submission", ns: NewSubmission{TaskID: taskID}, wantErr: true},
		{name: "whitespace content", ns: NewSubmission{TaskID: taskID, Content: "   "}, wantErr: true},
		{name: "relative link", ns: NewSubmission{TaskID: taskID, LinkURL: "/x/y"}, wantErr: true},
		{name: "bad task id", ns: NewSubmission{TaskID: "lol", Content: "done"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ns.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateTask_Validate(t *testing.T) {
	orig := Task{
		Title:    "Build a REST API",
		DueDate:  time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC),
		MaxScore: 100,
	}

	// unset fields fall back to the original
	ut := UpdateTask{}
	if err := ut.Validate(orig); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if ut.Title != orig.Title || !ut.DueDate.Equal(orig.DueDate) || ut.MaxScore != orig.MaxScore {
		t.Errorf("defaults not applied: %+v", ut)
	}

	// score bounds still apply to overrides
	ut = UpdateTask{MaxScore: 5000}
	if err := ut.Validate(orig); err == nil {
		t.Error("Validate() accepted an out-of-range max score")
	}
}
