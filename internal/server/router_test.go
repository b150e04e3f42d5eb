package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/feat/internal/shared"
	"golang.org/x/time/rate"
)

type routesHandler struct{}

func (routesHandler) Routes() []string { return []string{"GET /a", "GET /b"} }

func (routesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, r.URL.Path)
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("order = %s", got)
		}
	})

	t.Run("same path per method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "get") }))
		router.Handle(http.MethodPost, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "post") }))

		for _, method := range []string{http.MethodGet, http.MethodPost} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
			if rec.Body.String() != strings.ToLower(method) {
				t.Errorf("%s / = %q", method, rec.Body.String())
			}
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("root should not match subpaths, got %d", rec.Code)
		}
	})

	t.Run("handler routes", func(t *testing.T) {
		var router Router = NewBasicRouter()
		router.Handler(routesHandler{})

		for _, path := range []string{"/a", "/b"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != path {
				t.Errorf("GET %s = %q", path, rec.Body.String())
			}
		}
	})
}

func TestRecover(t *testing.T) {
	var logs bytes.Buffer
	handler := Recover(shared.NewLogger(&logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(logs.String(), "boom") {
		t.Errorf("panic not logged: %s", logs.String())
	}
}

func TestLogging(t *testing.T) {
	var logs bytes.Buffer
	handler := Logging(shared.NewLogger(&logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tea", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	for _, want := range []string{"/tea", "418"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log missing %q: %s", want, logs.String())
		}
	}
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("nil limiter passes through", func(t *testing.T) {
		handler := RateLimit(nil)(ok)
		for range 5 {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
		}
	})

	t.Run("rejects past burst", func(t *testing.T) {
		handler := RateLimit(rate.NewLimiter(rate.Every(1e12), 2))(ok)
		codes := make([]int, 3)
		for i := range codes {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			codes[i] = rec.Code
		}
		if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
			t.Errorf("codes = %v", codes)
		}
	})
}

func TestNewLimiter(t *testing.T) {
	if NewLimiter(shared.UploadConfig{}) != nil {
		t.Error("zero rate should disable limiting")
	}
	l := NewLimiter(shared.UploadConfig{RatePerSecond: 2, Burst: 0})
	if l == nil || l.Burst() != 1 {
		t.Errorf("expected burst clamped to 1, got %v", l)
	}
}

func TestStatusFor(t *testing.T) {
	tt := []struct {
		err  error
		want int
	}{
		{shared.ErrInvalidSession, http.StatusUnauthorized},
		{fmt.Errorf("%w: x", shared.ErrSessionNotFound), http.StatusUnauthorized},
		{shared.ErrWrongFileName, http.StatusBadRequest},
		{shared.ErrInvalidInput, http.StatusBadRequest},
		{shared.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{shared.ErrResultsNotFound, http.StatusNotFound},
		{shared.ErrToolRunning, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range tt {
		t.Run(tc.err.Error(), func(t *testing.T) {
			if got := statusFor(tc.err); got != tc.want {
				t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
