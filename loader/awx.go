package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kmkamyk/Ansible-Facts-Explorer/facts"
)

// maxBodyBytes caps a single AWX response body. Fact payloads for a host
// run to a few hundred KB; anything past this is a misbehaving endpoint.
const maxBodyBytes = 16 << 20

// AWXLoader fetches hosts and their stored ansible_facts from an AWX/Tower
// REST API, following pagination.
type AWXLoader struct {
	baseURL  string
	token    string
	pageSize int
	client   *http.Client
	logger   *slog.Logger
}

// AWXOption configures an AWXLoader.
type AWXOption func(*AWXLoader)

// WithAWXPageSize sets the page size for host listing. Default: 200.
func WithAWXPageSize(n int) AWXOption {
	return func(l *AWXLoader) { l.pageSize = n }
}

// WithAWXTimeout sets the per-request HTTP timeout. Default: 30s.
func WithAWXTimeout(d time.Duration) AWXOption {
	return func(l *AWXLoader) { l.client.Timeout = d }
}

// WithAWXLogger sets the loader's logger.
func WithAWXLogger(logger *slog.Logger) AWXOption {
	return func(l *AWXLoader) { l.logger = logger }
}

// NewAWXLoader creates a loader for the AWX API at baseURL, authenticating
// with a bearer token.
func NewAWXLoader(baseURL, token string, opts ...AWXOption) *AWXLoader {
	l := &AWXLoader{
		baseURL:  baseURL,
		token:    token,
		pageSize: 200,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Name implements Loader.
func (l *AWXLoader) Name() string { return "awx" }

// awxHost mirrors one element of the AWX host list response.
type awxHost struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Modified string `json:"ansible_facts_modified"`
}

// awxHostPage mirrors the paginated envelope of /api/v2/hosts/.
type awxHostPage struct {
	Count   int       `json:"count"`
	Next    *string   `json:"next"`
	Results []awxHost `json:"results"`
}

// Load lists every host page by page, then fetches each host's stored
// facts. The host's ansible_facts_modified timestamp is injected under
// facts.ModifiedFactKey so it rides along as row metadata.
func (l *AWXLoader) Load(ctx context.Context) ([]facts.HostFacts, error) {
	hosts, err := l.listHosts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]facts.HostFacts, 0, len(hosts))
	for _, h := range hosts {
		hostFacts, err := l.hostFacts(ctx, h.ID)
		if err != nil {
			return nil, fmt.Errorf("facts for host %q: %w", h.Name, err)
		}
		if hostFacts == nil {
			hostFacts = map[string]any{}
		}
		if h.Modified != "" {
			hostFacts[facts.ModifiedFactKey] = h.Modified
		}
		out = append(out, facts.HostFacts{Host: h.Name, Facts: hostFacts})
	}

	l.logger.Info("awx snapshot loaded", "hosts", len(out))
	return out, nil
}

func (l *AWXLoader) listHosts(ctx context.Context) ([]awxHost, error) {
	var hosts []awxHost
	next := fmt.Sprintf("/api/v2/hosts/?page_size=%d", l.pageSize)

	for next != "" {
		var page awxHostPage
		if err := l.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("list hosts: %w", err)
		}
		hosts = append(hosts, page.Results...)
		if page.Next == nil {
			break
		}
		next = *page.Next
	}
	return hosts, nil
}

func (l *AWXLoader) hostFacts(ctx context.Context, hostID int) (map[string]any, error) {
	var out map[string]any
	if err := l.getJSON(ctx, fmt.Sprintf("/api/v2/hosts/%d/ansible_facts/", hostID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *AWXLoader) getJSON(ctx context.Context, path string, dst any) error {
	// AWX returns "next" either as a path or a full URL; resolve both.
	u, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse %q: %w", path, err)
	}
	target := path
	if !u.IsAbs() {
		target = l.baseURL + path
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.token)
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("call awx %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("awx %s: status %d", path, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
