package lookup_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/scopecheck/internal/lookup"
	"github.com/JaimeStill/scopecheck/pkg/routes"
)

type mockSystem struct {
	recentFn   func(ctx context.Context) ([]int, error)
	discoverFn func(ctx context.Context, ids []int) ([]lookup.Experiment, error)
}

func (m *mockSystem) Handler(maxBodySize int64) *lookup.Handler {
	return lookup.NewHandler(m, discardLogger(), maxBodySize)
}

func (m *mockSystem) RecentExperiments(ctx context.Context) ([]int, error) {
	return m.recentFn(ctx)
}

func (m *mockSystem) Chips(context.Context, int) ([]string, error) { return nil, nil }

func (m *mockSystem) Libraries(context.Context, []string) (map[string]string, error) {
	return nil, nil
}

func (m *mockSystem) Discover(ctx context.Context, ids []int) ([]lookup.Experiment, error) {
	return m.discoverFn(ctx, ids)
}

func serve(t *testing.T, sys *mockSystem, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(1024).Routes())

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRecent(t *testing.T) {
	sys := &mockSystem{recentFn: func(context.Context) ([]int, error) { return nil, nil }}

	rec := serve(t, sys, "GET", "/lookup/experiments", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("got %d %s, want 200 []", rec.Code, rec.Body.String())
	}

	sys.recentFn = func(context.Context) ([]int, error) {
		return nil, fmt.Errorf("%w: timeout", lookup.ErrUnavailable)
	}
	if rec := serve(t, sys, "GET", "/lookup/experiments", ""); rec.Code != http.StatusBadGateway {
		t.Errorf("upstream failure status = %d, want 502", rec.Code)
	}
}

func TestHandlerChips(t *testing.T) {
	var gotIDs []int
	sys := &mockSystem{discoverFn: func(_ context.Context, ids []int) ([]lookup.Experiment, error) {
		gotIDs = ids
		return []lookup.Experiment{{ID: ids[0], Chips: []lookup.Chip{{Name: "C1", Library: "LIB-A"}}}}, nil
	}}

	rec := serve(t, sys, "GET", "/lookup/experiments/3001234/chips", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var exp lookup.Experiment
	if err := json.NewDecoder(rec.Body).Decode(&exp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if exp.ID != 3001234 || len(exp.Chips) != 1 || gotIDs[0] != 3001234 {
		t.Errorf("experiment = %+v", exp)
	}

	if rec := serve(t, sys, "GET", "/lookup/experiments/abc/chips", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestHandlerDiscover(t *testing.T) {
	sys := &mockSystem{discoverFn: func(_ context.Context, ids []int) ([]lookup.Experiment, error) {
		out := make([]lookup.Experiment, len(ids))
		for i, id := range ids {
			out[i] = lookup.Experiment{ID: id, Chips: []lookup.Chip{}}
		}
		return out, nil
	}}

	rec := serve(t, sys, "POST", "/lookup/discover", `{"experiment_ids":[3001234,3009999]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var exps []lookup.Experiment
	json.NewDecoder(rec.Body).Decode(&exps)
	if len(exps) != 2 || exps[1].ID != 3009999 {
		t.Errorf("experiments = %+v", exps)
	}

	if rec := serve(t, sys, "POST", "/lookup/discover", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestHandlerDiscoverLimits(t *testing.T) {
	called := false
	sys := &mockSystem{discoverFn: func(context.Context, []int) ([]lookup.Experiment, error) {
		called = true
		return nil, nil
	}}

	ids := make([]string, lookup.MaxDiscoverIDs+1)
	for i := range ids {
		ids[i] = fmt.Sprint(3001000 + i)
	}
	body := `{"experiment_ids":[` + strings.Join(ids, ",") + `]}`

	if rec := serve(t, sys, "POST", "/lookup/discover", body); rec.Code != http.StatusBadRequest {
		t.Errorf("too many ids status = %d, want 400", rec.Code)
	}

	padded := `{"experiment_ids":[3001234],"pad":"` + strings.Repeat("x", 2048) + `"}`
	if rec := serve(t, sys, "POST", "/lookup/discover", padded); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status = %d, want 413", rec.Code)
	}

	if called {
		t.Error("discover reached the system past a limit")
	}
}
