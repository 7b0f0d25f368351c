package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/a11ybridge/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"Bearer    ":   "",
		"":             "",
	}
	for header, want := range cases {
		got, err := BearerToken(header)
		if want == "" {
			if !errors.Is(err, ErrMissingToken) {
				t.Fatalf("%q: expected ErrMissingToken, got %q %v", header, got, err)
			}
			continue
		}
		if err != nil || got != want {
			t.Fatalf("%q: got %q err=%v want %q", header, got, err, want)
		}
	}
}

func TestRequireMiddleware(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	calls := 0
	validator := FuncValidator(func(token string) error {
		calls++
		if token != "ok" {
			return ErrUnauthorized
		}
		return nil
	})
	r := gin.New()
	r.GET("/guarded", Require(validator), func(c *gin.Context) {
		c.String(http.StatusOK, "in")
	})

	cases := []struct {
		header string
		code   int
	}{
		{"Bearer ok", http.StatusOK},
		{"Bearer nope", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != tc.code {
			t.Fatalf("header %q: expected %d, got %d", tc.header, tc.code, rr.Code)
		}
		if tc.code == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") == "" {
			t.Fatalf("header %q: missing WWW-Authenticate", tc.header)
		}
	}
	if calls != 2 {
		t.Fatalf("validator should only see present tokens, got %d calls", calls)
	}
}
