// Package persistence defines the durable-store port the entity store
// saves through. The domain engine treats Load/Save as opaque hooks with
// no acknowledgement contract; adapters decide where bytes actually go.
package persistence

import "context"

// Port is implemented per backend. Load returns (nil, nil) for a
// collection that has never been saved.
type Port interface {
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, collection string, data []byte) error
	Ping(ctx context.Context) error
	Close()
}
