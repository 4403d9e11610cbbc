// internal/web/response_test.go
//
// Tests for the pipeline-result coercion table.
//
// Run: go test ./internal/web -v

package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yanizio/flint/internal/httperr"
)

func coerce(t *testing.T, rv any) (*Response, error) {
	t.Helper()
	app := newTestApp()
	rc := app.NewContext(httptest.NewRequest("GET", "/", nil))
	return app.makeResponse(rc, rv)
}

func TestMakeResponse_PassThrough(t *testing.T) {
	orig := NewResponse([]byte("x"), "text/plain")
	resp, err := coerce(t, orig)
	if err != nil {
		t.Fatalf("makeResponse: %v", err)
	}
	if resp != orig {
		t.Fatal("*Response must pass through unchanged")
	}
}

func TestMakeResponse_NilHeaderMaterialized(t *testing.T) {
	resp, err := coerce(t, &Response{Status: http.StatusOK, Body: []byte("x")})
	if err != nil {
		t.Fatalf("makeResponse: %v", err)
	}
	if resp.Header == nil {
		t.Fatal("pass-through left header map nil")
	}
	resp.Header.Set("X-Late", "ok") // must not panic

	resp, err = coerce(t, []any{&Response{Body: []byte("y")}, 201})
	if err != nil {
		t.Fatalf("makeResponse: %v", err)
	}
	if resp.Header == nil {
		t.Fatal("tuple body left header map nil")
	}
}

func TestMakeResponse_TupleStatusAndHeaders(t *testing.T) {
	resp, err := coerce(t, []any{"created", 201, map[string]string{"X-Kind": "demo"}})
	if err != nil {
		t.Fatalf("makeResponse: %v", err)
	}
	if resp.Status != 201 {
		t.Fatalf("status = %d, want 201", resp.Status)
	}
	if string(resp.Body) != "created" {
		t.Fatalf("body = %q, want created", resp.Body)
	}
	if resp.Header.Get("X-Kind") != "demo" {
		t.Fatal("tuple headers not applied")
	}
}

func TestMakeResponse_TupleHeaderOnly(t *testing.T) {
	h := make(http.Header)
	h.Set("X-From", "tuple")
	resp, err := coerce(t, []any{"body", h})
	if err != nil {
		t.Fatalf("makeResponse: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Status)
	}
	if resp.Header.Get("X-From") != "tuple" {
		t.Fatal("header part not applied")
	}
}

func TestMakeResponse_Bytes(t *testing.T) {
	resp, err := coerce(t, []byte{0x68, 0x69})
	if err != nil {
		t.Fatalf("makeResponse: %v", err)
	}
	if string(resp.Body) != "hi" {
		t.Fatalf("body = %q", resp.Body)
	}
}

func TestMakeResponse_FaultRendering(t *testing.T) {
	resp, err := coerce(t, httperr.New(418, "short and stout"))
	if err != nil {
		t.Fatalf("makeResponse: %v", err)
	}
	if resp.Status != 418 {
		t.Fatalf("status = %d, want 418", resp.Status)
	}
	if want := "short and stout"; !strings.Contains(string(resp.Body), want) {
		t.Fatalf("body = %q, want message %q", resp.Body, want)
	}
}

func TestMakeResponse_BufferedHandler(t *testing.T) {
	raw := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Raw", "yes")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("buffered"))
	})

	resp, err := coerce(t, raw)
	if err != nil {
		t.Fatalf("makeResponse: %v", err)
	}
	if resp.Status != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.Status)
	}
	if string(resp.Body) != "buffered" || resp.Header.Get("X-Raw") != "yes" {
		t.Fatalf("buffered response lost data: %+v", resp)
	}
}

func TestMakeResponse_Mismatches(t *testing.T) {
	for _, rv := range []any{nil, 42, struct{}{}, []any{}, []any{12}} {
		if _, err := coerce(t, rv); !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("coerce(%#v): err = %v, want ErrTypeMismatch", rv, err)
		}
	}
}
