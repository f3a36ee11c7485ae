package loader

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/kmkamyk/Ansible-Facts-Explorer/facts"
)

//go:embed demo_facts.json
var demoFacts []byte

// DemoLoader serves the embedded static fixture, so the explorer works with
// no upstream at all.
type DemoLoader struct{}

// Name implements Loader.
func (DemoLoader) Name() string { return "demo" }

// demoEntry keeps the fixture file ordered; a bare JSON object would lose
// host order on decode.
type demoEntry struct {
	Host  string         `json:"host"`
	Facts map[string]any `json:"facts"`
}

// Load decodes the fixture. ctx is accepted for interface symmetry; there
// is nothing to cancel.
func (DemoLoader) Load(ctx context.Context) ([]facts.HostFacts, error) {
	var entries []demoEntry
	if err := json.Unmarshal(demoFacts, &entries); err != nil {
		return nil, fmt.Errorf("demo fixture: %w", err)
	}
	out := make([]facts.HostFacts, 0, len(entries))
	for _, e := range entries {
		if e.Facts == nil {
			e.Facts = map[string]any{}
		}
		out = append(out, facts.HostFacts{Host: e.Host, Facts: e.Facts})
	}
	return out, nil
}
