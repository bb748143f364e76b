package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

func TestNew_EmptyHashDisablesAuth(t *testing.T) {
	b := New("", slog.Default())

	assert.Nil(t, b)
	assert.Nil(t, b.Middleware())

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	b.Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/save", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestBasic_Handler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	b := New(string(hash), slog.Default())

	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		wantStatus int
	}{
		{name: "no credentials", wantStatus: http.StatusUnauthorized},
		{name: "wrong password", user: "admin", pass: "nope", setAuth: true, wantStatus: http.StatusUnauthorized},
		{name: "right password", user: "admin", pass: "letmein", setAuth: true, wantStatus: http.StatusOK},
		{name: "any user name", user: "operator", pass: "letmein", setAuth: true, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
			req := httptest.NewRequest(http.MethodPost, "/save", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()

			// Act
			b.Handler(next).ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
			}
		})
	}
}
