package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/srthuanan/stockhold/internal/auth"
)

func TestHandleLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			method:         http.MethodPost,
			body:           `{"username":"alice","password":"s3cret"}`,
			expectedStatus: http.StatusOK,
			expectedSubstr: `"token":"tok-1"`,
		},
		{
			name:           "bad credentials",
			method:         http.MethodPost,
			body:           `{"username":"alice","password":"wrong"}`,
			serviceErr:     auth.ErrInvalidCredentials,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing fields",
			method:         http.MethodPost,
			body:           `{"username":"alice"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			method:         http.MethodPost,
			body:           `{"username":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "wrong method",
			method:         http.MethodGet,
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "store failure",
			method:         http.MethodPost,
			body:           `{"username":"alice","password":"s3cret"}`,
			serviceErr:     errors.New("db gone"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubAuthenticator{token: "tok-1", err: tt.serviceErr}
			req := httptest.NewRequest(tt.method, "/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleLogin(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

type stubAuthenticator struct {
	token string
	err   error
}

func (s *stubAuthenticator) Login(context.Context, string, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}
