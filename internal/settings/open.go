package settings

import (
	"context"
	"fmt"
)

// Open returns the Store for backend ("json" or "sqlite") at path.
func Open(ctx context.Context, backend, path string) (Store, error) {
	switch backend {
	case "", "json":
		return OpenJSON(path)
	case "sqlite":
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown settings backend %q", backend)
	}
}
