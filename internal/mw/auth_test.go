package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rationdesk/internal/model"
)

const secret = "test-secret"

func protected() http.Handler {
	return AuthMiddleware(secret)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Context().Value(UserCtxKey).(string) + " " + r.Context().Value(EmailCtxKey).(string)))
	})))
}

func TestAuthMiddleware(t *testing.T) {
	adminToken, err := IssueToken(&model.Admin{ID: "u-1", Email: "ops@ration.test", Role: model.RoleAdmin}, secret)
	require.NoError(t, err)
	userToken, err := IssueToken(&model.Admin{ID: "u-2", Email: "clerk@ration.test", Role: "user"}, secret)
	require.NoError(t, err)
	foreignToken, err := IssueToken(&model.Admin{ID: "u-1", Role: model.RoleAdmin}, "other-secret")
	require.NoError(t, err)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"role":    model.RoleAdmin,
		"exp":     jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"admin", "Bearer " + adminToken, http.StatusOK, "u-1 ops@ration.test"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"bad format", "Token " + adminToken, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + foreignToken, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"not an admin", "Bearer " + userToken, http.StatusForbidden, ""},
	}

	t.Run("websocket protocol token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sync/ws", nil)
		req.Header.Set("Sec-WebSocket-Protocol", WebSocketProtocol+", "+adminToken)
		rr := httptest.NewRecorder()
		protected().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("query token ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sync/ws?access_token="+adminToken, nil)
		rr := httptest.NewRecorder()
		protected().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			protected().ServeHTTP(rr, req)

			assert.Equal(t, tt.code, rr.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rr.Body.String())
			}
		})
	}
}
