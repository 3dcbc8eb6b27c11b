package application

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	_ "github.com/darasahq/darasa/core/track" // registers the trackid validator
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusUnderReview, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusShortlisted, false},
		{StatusPending, StatusAccepted, false},
		{StatusUnderReview, StatusShortlisted, true},
		{StatusUnderReview, StatusRejected, true},
		{StatusUnderReview, StatusAccepted, false},
		{StatusShortlisted, StatusAccepted, true},
		{StatusShortlisted, StatusRejected, true},
		{StatusShortlisted, StatusUnderReview, false},
		{StatusAccepted, StatusRejected, false},
		{StatusRejected, StatusPending, false},
		{"lol", StatusPending, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v; want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestReviewApplication_Validate(t *testing.T) {
	app := Application{Status: StatusPending}

	tests := []struct {
		name    string
		ra      ReviewApplication
		wantErr bool
	}{
		{name: "legal hop", ra: ReviewApplication{Status: StatusUnderReview}},
		{name: "status is case-insensitive", ra: ReviewApplication{Status: "Under-Review"}},
		{name: "illegal hop", ra: ReviewApplication{Status: StatusAccepted}, wantErr: true},
		{name: "unknown status", ra: ReviewApplication{Status: "lol"}, wantErr: true},
		{name: "missing status", ra: ReviewApplication{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ra.Validate(app); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// terminal statuses reject every move
	for _, status := range []string{StatusAccepted, StatusRejected} {
		terminal := Application{Status: status}
		if !terminal.IsTerminal() {
			t.Errorf("IsTerminal() = false for %q", status)
		}
		ra := ReviewApplication{Status: StatusUnderReview}
		if err := ra.Validate(terminal); err == nil {
			t.Errorf("Validate() accepted a move out of terminal status %q", status)
		}
	}
}

func TestNewApplication_Validate(t *testing.T) {
	valid := NewApplication{
		Name:    "App Licant",
		Email:   "App@Test.CD",
		TrackID: "backend-development",
		CVURL:   "https://example.com/cv.pdf",
	}

	tests := []struct {
		name    string
		mutate  func(na *NewApplication)
		wantErr bool
	}{
		{name: "valid", mutate: func(na *NewApplication) {}},
		{name: "missing name", mutate: func(na *NewApplication) { na.Name = " " }, wantErr: true},
		{name: "bad email", mutate: func(na *NewApplication) { na.Email = "nope" }, wantErr: true},
		{name: "unknown track", mutate: func(na *NewApplication) { na.TrackID = "basket-weaving" }, wantErr: true},
		{name: "missing cv", mutate: func(na *NewApplication) { na.CVURL = "" }, wantErr: true},
		{name: "relative cv url", mutate: func(na *NewApplication) { na.CVURL = "/cv.pdf" }, wantErr: true},
		{name: "short phone", mutate: func(na *NewApplication) { na.Phone = "123" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			na := valid
			tt.mutate(&na)
			if err := na.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// cleaning normalizes the email
	na := valid
	if err := na.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if na.Email != "app@test.cd" {
		t.Errorf("Email = %q; want lowercased", na.Email)
	}
}

func TestGeneratePassword(t *testing.T) {
	p1, p2 := GeneratePassword(), GeneratePassword()
	if len(p1) != 16 || len(p2) != 16 {
		t.Errorf("len = %d, %d; want 16", len(p1), len(p2))
	}
	if p1 == p2 {
		t.Error("expected distinct generated passwords")
	}
}

// sanity check that service conflict wrapping survives errors.Wrap
func TestConflictError_cause(t *testing.T) {
	err := core.NewConflictError(ErrExists.Error(), ErrExists)
	if !core.IsConflict(errors.Wrap(err, "reviewing")) {
		t.Fatal("expected a wrapped conflict to still be detected")
	}
}
