package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireCronSecret(t *testing.T) {
	const secret = "cron_secret_0123456789abcdef"
	h := RequireCronSecret(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid bearer", "Bearer " + secret, http.StatusOK},
		{"case-insensitive scheme", "bearer " + secret, http.StatusOK},
		{"wrong secret", "Bearer wrong_secret_0123456789ab", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"bare secret without scheme", secret, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cron/send-reminders", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
