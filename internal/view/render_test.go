// internal/view/render_test.go
//
// Unit-tests for the view engine: parse caching, ambient helpers, and
// the define/no-define execution rule.
//
// Run: go test ./internal/view -v

package view

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yanizio/flint/internal/routing"
	"github.com/yanizio/flint/internal/session"
	"github.com/yanizio/flint/internal/web"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRender_Basic(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "hello.html", "Hello, {{ .Name }}!")

	e := New(dir)
	out, err := e.Render("hello.html", map[string]any{"Name": "World"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "Hello, World!" {
		t.Fatalf("out = %q", out)
	}

	// Second render hits the LRU; mutate the file to prove it.
	writeTemplate(t, dir, "hello.html", "CHANGED")
	out, err = e.Render("hello.html", map[string]any{"Name": "World"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "Hello, World!" {
		t.Fatal("cached template set was re-parsed")
	}
}

func TestRender_DefineRoot(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "login.html",
		`{{ define "login" }}sign in{{ end }}`)

	e := New(dir)
	out, err := e.Render("login.html", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "sign in" {
		t.Fatalf("out = %q", out)
	}
}

func TestRender_AmbientHelpers(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html",
		`{{ range flashes }}[{{ . }}]{{ end }}{{ urlfor "user_show" "name" "armin" }}`)

	app := web.New("test", routing.New())
	app.Sessions = session.NewCookieStore([]byte("secret"), "")
	app.Get("/user/{name}", "user_show", func(*web.RequestContext, map[string]string) (any, error) {
		return "", nil
	})

	_, teardown := app.TestContext(http.MethodGet, "/")
	defer teardown()
	if err := web.Flash("saved"); err != nil {
		t.Fatalf("Flash: %v", err)
	}

	e := New(dir)
	out, err := e.Render("page.html", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "[saved]") {
		t.Fatalf("out = %q, want flash", out)
	}
	if !strings.Contains(out, "/user/armin") {
		t.Fatalf("out = %q, want built URL", out)
	}
}
