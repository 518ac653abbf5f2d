package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := fmt.Sprintf(`
api:
  base_url: %s
  timeout: 2000
session:
  backend: file
  file_path: %s
logging:
  level: error
  output: %s
`, baseURL, filepath.Join(dir, "session.json"), filepath.Join(dir, "cli.log"))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/otp/send", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":"OTP sent"}`)
	})
	mux.HandleFunc("/auth/otp/verify", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"tok","refresh_token":"ref","is_onboarded":true}`)
	})
	mux.HandleFunc("/businesses/me/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"available_limit":500000,"credit_score":742,"risk_grade":"A","active_loans_total":0,
			"next_emi_amount":null,"next_emi_date":null,"recent_activity":[]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"no command", nil, 2, "Usage: borrower-cli"},
		{"unknown command", []string{"fly"}, 2, `unknown command "fly"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.code, run(tt.args, strings.NewReader(""), &stdout, &stderr))
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestRun_RequiresLogin(t *testing.T) {
	cfgPath := writeConfig(t, fakeBackend(t).URL)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfgPath, "dashboard"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Please log in first")
}

func TestRun_LoginThenDashboard(t *testing.T) {
	cfgPath := writeConfig(t, fakeBackend(t).URL)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfgPath, "login", "-phone", "9876543210"}, strings.NewReader("123456\n"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Signed in.")
	assert.Contains(t, stdout.String(), "Next: borrower-cli dashboard")

	stdout.Reset()
	code = run([]string{"-config", cfgPath, "dashboard"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "₹5,00,000")
	assert.Contains(t, stdout.String(), "742/900")

	stdout.Reset()
	code = run([]string{"-config", cfgPath, "logout"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	stderr.Reset()
	code = run([]string{"-config", cfgPath, "dashboard"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Please log in first")
}
