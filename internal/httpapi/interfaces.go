package httpapi

import (
	"context"

	"github.com/okalkan/defter/internal/service/ledger"
	"github.com/okalkan/defter/internal/service/registry"
)

// Store unions the read and write dependencies of both services. The memory
// and postgres stores each satisfy it.
type Store interface {
	ledger.Repo
	ledger.Writer
	registry.Repo
	registry.Writer
}

// ReadyChecker is optionally implemented by stores that can verify their
// backing connection.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
