// internal/proxy/proxy_test.go
//
// Unit-tests for Proxy resolution and its degradation paths.
//
// Run: go test ./internal/proxy -v

package proxy

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/yanizio/flint/internal/local"
)

func TestProxy_GetUnbound(t *testing.T) {
	store := local.NewStore()
	p := ForName[string](store, "request")

	if _, err := p.Get(); !errors.Is(err, ErrUnbound) {
		t.Fatalf("Get on unbound: err = %v, want ErrUnbound", err)
	}
}

func TestProxy_BoundDegradesToFalse(t *testing.T) {
	store := local.NewStore()
	p := ForName[string](store, "request")

	if p.Bound() {
		t.Fatal("Bound on unbound proxy should be false, not an error")
	}
	if !strings.Contains(p.String(), "unbound") {
		t.Fatalf("String on unbound proxy = %q, want placeholder", p.String())
	}
}

func TestProxy_ResolvesFreshlyPerOperation(t *testing.T) {
	store := local.NewStore()
	p := ForName[string](store, "request")

	store.Set("request", "R1")
	if got, _ := p.Get(); got != "R1" {
		t.Fatalf("Get = %q, want R1", got)
	}

	// Rebind between uses; the proxy must pick up the new target.
	store.Set("request", "R2")
	if got, _ := p.Get(); got != "R2" {
		t.Fatalf("Get after rebind = %q, want R2", got)
	}

	// Tear down; the same proxy must go unbound again.
	store.Release()
	if _, err := p.Get(); !errors.Is(err, ErrUnbound) {
		t.Fatalf("Get after release: err = %v, want ErrUnbound", err)
	}
}

func TestProxy_MustGetPanicsWhenUnbound(t *testing.T) {
	p := New("request", func() (string, bool) { return "", false })

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("MustGet on unbound proxy should panic")
		}
		if err, ok := r.(error); !ok || !errors.Is(err, ErrUnbound) {
			t.Fatalf("panic value = %v, want ErrUnbound", r)
		}
	}()
	_ = p.MustGet()
}

func TestProxy_ResolverForm(t *testing.T) {
	stack := local.NewStack()
	p := New("top", func() (int, bool) {
		v, ok := stack.Top().(int)
		return v, ok
	})

	stack.Push(42)
	defer stack.Pop()

	if got := p.MustGet(); got != 42 {
		t.Fatalf("MustGet = %d, want 42", got)
	}
}

// TestProxy_IsolationAcrossGoroutines binds distinct targets in two
// goroutines and checks one proxy instance resolves per caller.
func TestProxy_IsolationAcrossGoroutines(t *testing.T) {
	store := local.NewStore()
	p := ForName[string](store, "request")

	var wg sync.WaitGroup
	for _, want := range []string{"R1", "R2"} {
		wg.Add(1)
		go func(want string) {
			defer wg.Done()
			store.Set("request", want)
			defer store.Release()
			for i := 0; i < 100; i++ {
				got, err := p.Get()
				if err != nil || got != want {
					t.Errorf("Get = %q, %v, want %q", got, err, want)
					return
				}
			}
		}(want)
	}
	wg.Wait()
}
