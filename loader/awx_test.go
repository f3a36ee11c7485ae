package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kmkamyk/Ansible-Facts-Explorer/facts"
)

func TestAWXLoaderPaginates(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/api/v2/hosts/" && r.URL.Query().Get("page") == "":
			next := "/api/v2/hosts/?page=2&page_size=1"
			json.NewEncoder(w).Encode(map[string]any{
				"count": 2,
				"next":  next,
				"results": []map[string]any{
					{"id": 1, "name": "web1", "ansible_facts_modified": "2026-08-01T00:00:00Z"},
				},
			})
		case r.URL.Path == "/api/v2/hosts/" && r.URL.Query().Get("page") == "2":
			json.NewEncoder(w).Encode(map[string]any{
				"count": 2,
				"next":  nil,
				"results": []map[string]any{
					{"id": 2, "name": "web2"},
				},
			})
		case r.URL.Path == "/api/v2/hosts/1/ansible_facts/":
			fmt.Fprint(w, `{"ansible_distribution":"Ubuntu","ansible_processor_vcpus":8}`)
		case r.URL.Path == "/api/v2/hosts/2/ansible_facts/":
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewAWXLoader(srv.URL, "tok123", WithAWXPageSize(1))
	hosts, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer tok123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if len(hosts) != 2 {
		t.Fatalf("got %d hosts, want 2 across pages", len(hosts))
	}
	if hosts[0].Host != "web1" || hosts[1].Host != "web2" {
		t.Errorf("host order: %q, %q", hosts[0].Host, hosts[1].Host)
	}
	if hosts[0].Facts[facts.ModifiedFactKey] != "2026-08-01T00:00:00Z" {
		t.Errorf("modified not injected: %v", hosts[0].Facts[facts.ModifiedFactKey])
	}
	if hosts[0].Facts["ansible_distribution"] != "Ubuntu" {
		t.Errorf("facts = %v", hosts[0].Facts)
	}
	// A host with no stored facts still loads (the row builder will
	// synthesize its sentinel).
	if _, ok := hosts[1].Facts[facts.ModifiedFactKey]; ok {
		t.Error("web2 has no modified timestamp, none should be injected")
	}
}

func TestAWXLoaderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	l := NewAWXLoader(srv.URL, "tok")
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}

func TestAWXLoaderContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewAWXLoader(srv.URL, "tok")
	if _, err := l.Load(ctx); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
