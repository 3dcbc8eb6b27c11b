package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/email"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
)

func Test_emailApi_templates(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	adminToken := getToken(t, admin)

	payload := []byte(`{
		"name": "Welcome v1",
		"template_type": "application-received",
		"subject": "Hi {{name}}",
		"html_content": "<p>Thanks {{name}}, we got your {{track}} application.</p>",
		"variables": ["name", "track"],
		"is_active": true
	}`)

	// admin only
	req, rec := newAuthRequest(http.MethodPost, "/v1/email-templates", getToken(t, student), payload)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student create: code = %d; want %d", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/email-templates", adminToken, payload)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code = %d; want %d; body = %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var first email.EmailTemplate
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("unmarshalling EmailTemplate failed: %v", err)
	}
	if !first.IsActive || first.CreatedBy != admin.ID {
		t.Errorf("first = %+v; want active, created by the admin", first)
	}

	// an unknown type is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/email-templates", adminToken, []byte(
		`{"name": "X", "template_type": "carrier-pigeon", "subject": "s", "html_content": "c"}`,
	))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type: code = %d; want %d", rec.Code, http.StatusBadRequest)
	}

	// activating a second template of the same type deactivates the first
	req, rec = newAuthRequest(http.MethodPost, "/v1/email-templates", adminToken, []byte(`{
		"name": "Welcome v2",
		"template_type": "application-received",
		"subject": "Hello {{name}}",
		"html_content": "<p>Application received.</p>",
		"is_active": true
	}`))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create v2: code = %d; want %d; body = %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var second email.EmailTemplate
	_ = json.Unmarshal(rec.Body.Bytes(), &second)

	ctx := context.Background()
	active, err := env.emailSvc.QueryTemplates(ctx, email.TypeApplicationReceived)
	if err != nil {
		t.Fatalf("QueryTemplates() failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("len(templates) = %d; want 2", len(active))
	}
	for _, tpl := range active {
		if tpl.ID == first.ID && tpl.IsActive {
			t.Error("expected the first template to be deactivated")
		}
		if tpl.ID == second.ID && !tpl.IsActive {
			t.Error("expected the second template to be active")
		}
	}

	// preview substitutes the sample variables
	req, rec = newAuthRequest(
		http.MethodPost, "/v1/email-templates/"+first.ID.Hex()+"/preview", adminToken,
		[]byte(`{"variables": {"name": "Jane", "track": "backend-development"}}`),
	)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var rendered email.Rendered
	if err := json.Unmarshal(rec.Body.Bytes(), &rendered); err != nil {
		t.Fatalf("unmarshalling Rendered failed: %v", err)
	}
	if rendered.Subject != "Hi Jane" {
		t.Errorf("rendered.Subject = %q; want %q", rendered.Subject, "Hi Jane")
	}

	// delete
	req, rec = newAuthRequest(http.MethodDelete, "/v1/email-templates/"+second.ID.Hex(), adminToken)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: code = %d; want %d", rec.Code, http.StatusNoContent)
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/email-templates/"+second.ID.Hex(), adminToken)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: code = %d; want %d", rec.Code, http.StatusNotFound)
	}
}

func Test_emailApi_sendDirect(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "queued", token: adminToken,
			body:     []byte(`{"to_name": "Jane", "to_address": "jane@test.cd", "subject": "Hello", "html_content": "<p>Hi</p>"}`),
			wantCode: http.StatusAccepted,
		},
		{
			name: "invalid address", token: adminToken,
			body:     []byte(`{"to_address": "not-an-email", "subject": "Hello", "html_content": "<p>Hi</p>"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "missing content", token: adminToken,
			body:     []byte(`{"to_address": "jane@test.cd", "subject": "Hello"}`),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/emails/send", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the queued row goes out on the next dispatcher sweep
	ctx := context.Background()
	if err := env.emailSvc.DispatchDue(ctx); err != nil {
		t.Fatalf("DispatchDue() failed: %v", err)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	if got := emailsvc.SentMessages[0].Subject; got != "Hello" {
		t.Errorf("sent subject = %q; want %q", got, "Hello")
	}

	logs, err := env.emailSvc.FilterLogs(ctx, email.LogFilter{Status: email.StatusSent})
	if err != nil {
		t.Fatalf("FilterLogs() failed: %v", err)
	}
	if len(logs) != 1 || logs[0].TemplateType != email.TypeDirect || logs[0].Attempts != 1 {
		t.Errorf("logs = %+v; want one sent direct log with one attempt", logs)
	}

	// log filtering by address
	logs, err = env.emailSvc.FilterLogs(ctx, email.LogFilter{ToAddress: "nobody@test.cd"})
	if err != nil {
		t.Fatalf("FilterLogs() failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("len(logs) = %d; want 0", len(logs))
	}
}

func Test_emailApi_logs(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	adminToken := getToken(t, admin)

	req, rec := newAuthRequest(
		http.MethodPost, "/v1/emails/send", adminToken,
		[]byte(`{"to_address": "jane@test.cd", "subject": "Hello", "html_content": "<p>Hi</p>"}`),
	)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("send: code = %d; want %d", rec.Code, http.StatusAccepted)
	}

	tests := []httpTest{
		{name: "auth required", path: "/v1/emails/logs", wantCode: http.StatusUnauthorized},
		{name: "admin required", path: "/v1/emails/logs", token: getToken(t, student), wantCode: http.StatusForbidden},
		{name: "all", path: "/v1/emails/logs", token: adminToken, wantCode: http.StatusOK},
		{name: "by status", path: "/v1/emails/logs?status=pending", token: adminToken, wantCode: http.StatusOK},
		{name: "no match", path: "/v1/emails/logs?status=sent", token: adminToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "by status" {
				var logs []email.EmailLog
				if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil {
					t.Fatalf("unmarshalling logs failed: %v", err)
				}
				if len(logs) != 1 || logs[0].Status != email.StatusPending {
					t.Errorf("logs = %+v; want one pending log", logs)
				}
			}
		})
	}
}
