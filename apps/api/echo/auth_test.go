package echoapi

import (
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/user"
)

// A token produced by GenerateToken must make it through the server's JWT
// middleware with its claims intact; the role gates depend on it.
func Test_auth_tokenRoundTrip(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", user.RoleAdmin, "LePassword7", true)
	student := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)

	tests := []httpTest{
		{name: "signed token accepted", token: getToken(t, admin), wantCode: http.StatusOK},
		{name: "claims carry the role", token: getToken(t, student), wantCode: http.StatusForbidden},
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "garbage token", token: "not-a-jwt", wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_auth_tokenRefresh(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrRepo, "Student", "student@test.cd", user.RoleStudent, "LePassword7", true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: code = %d; want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}
