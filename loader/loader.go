// Package loader supplies snapshots to the engine from one of three
// sources: a live AWX/Tower API, a relational fact cache, or an embedded
// demo fixture. The engine is agnostic to which loader produced a snapshot;
// it only requires the hostname → nested-facts shape, with the host's
// last-modified timestamp stored under facts.ModifiedFactKey.
package loader

import (
	"context"

	"github.com/kmkamyk/Ansible-Facts-Explorer/facts"
)

// Loader fetches one snapshot's worth of host facts. Load is the only
// operation in the system that performs I/O or can block; it honors ctx
// cancellation.
type Loader interface {
	// Name identifies the source ("awx", "db", "demo") in logs and events.
	Name() string

	// Load fetches every host's facts. Hosts are returned in source order;
	// the row model preserves it.
	Load(ctx context.Context) ([]facts.HostFacts, error)
}
