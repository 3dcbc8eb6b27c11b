package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/user"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	createUser(t, env.usrRepo, "Jane Doe", "jane@test.cd", user.RoleStudent, "LePassword7", true)
	createUser(t, env.usrRepo, "Sleeper", "sleeper@test.cd", user.RoleStudent, "LePassword7", false)

	tests := []httpTest{
		{
			name: "valid credentials", body: []byte(`{"email": "jane@test.cd", "password": "LePassword7"}`),
			wantCode: http.StatusOK,
		},
		{
			name: "email is case-insensitive", body: []byte(`{"email": "JANE@test.cd", "password": "LePassword7"}`),
			wantCode: http.StatusOK,
		},
		{
			name: "wrong password", body: []byte(`{"email": "jane@test.cd", "password": "nope"}`),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown email", body: []byte(`{"email": "ghost@test.cd", "password": "LePassword7"}`),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: []byte(`{"email": "sleeper@test.cd", "password": "LePassword7"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a token in the response")
				}
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	mentor := createUser(t, env.usrRepo, "Mentor", "mentor@test.cd", user.RoleMentor, "LePassword7", true)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "mentor is not admin", path: "/v1/users", token: getToken(t, mentor),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "get all", path: "/v1/users", token: getToken(t, admin), wantCode: http.StatusOK},
		{name: "filter by role", path: "/v1/users?role=mentor", token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "get all" {
				var users []user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
					t.Fatalf("unmarshalling users failed: %v", err)
				}
				if len(users) != 3 {
					t.Errorf("len(users) = %d; want 3", len(users))
				}
			}
			if tt.name == "filter by role" {
				var users []user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
					t.Fatalf("unmarshalling users failed: %v", err)
				}
				if len(users) != 1 || users[0].ID != mentor.ID {
					t.Errorf("filter by role returned %v", users)
				}
			}
		})
	}
}

func Test_userApi_retrieve_permissions(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	other := createUser(t, env.usrRepo, "Other", "other@test.cd", user.RoleStudent, "LePassword7", true)

	tests := []httpTest{
		{name: "self", path: "/v1/users/" + student.ID.Hex(), token: getToken(t, student), wantCode: http.StatusOK},
		{
			name: "not self and not admin", path: "/v1/users/" + other.ID.Hex(), token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"}),
		},
		{name: "admin can get any", path: "/v1/users/" + other.ID.Hex(), token: getToken(t, admin), wantCode: http.StatusOK},
		{
			name: "unknown id", path: "/v1/users/ffffffffffffffffffffffff", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_update_permissions(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)

	tests := []httpTest{
		{
			name: "student cannot change own role", path: "/v1/users/" + student.ID.Hex(),
			token: getToken(t, student), body: []byte(`{"role": "admin"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "student can change own name", path: "/v1/users/" + student.ID.Hex(),
			token: getToken(t, student), body: []byte(`{"name": "Student Renamed"}`),
			wantCode: http.StatusOK,
		},
		{
			name: "admin can promote", path: "/v1/users/" + student.ID.Hex(),
			token: getToken(t, admin), body: []byte(`{"role": "mentor"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_destroy(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)
	adminToken := getToken(t, admin)

	// no suicide
	req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID.Hex(), adminToken)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("self-delete: code = %d; want %d", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodDelete, "/v1/users/"+student.ID.Hex(), adminToken)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: code = %d; want %d", rec.Code, http.StatusNoContent)
	}
}
