package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/papercomputeco/tales/pkg/vector"
	"github.com/papercomputeco/tales/pkg/vector/chroma"
	"github.com/papercomputeco/tales/pkg/vector/inmemory"
	"github.com/papercomputeco/tales/pkg/vector/qdrant"
	"github.com/papercomputeco/tales/pkg/vector/sqlitevec"
)

// Supported vector store providers.
const (
	ProviderMemory = "memory"
	ProviderSQLite = "sqlite"
	ProviderChroma = "chroma"
	ProviderQdrant = "qdrant"
)

// Providers lists every provider NewVectorDriver understands.
var Providers = []string{ProviderMemory, ProviderSQLite, ProviderChroma, ProviderQdrant}

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is a file path for sqlite, a URL for chroma and host:port for
	// qdrant. The memory provider ignores it.
	Target string

	Collection string
	Dimensions uint
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderMemory:
		return inmemory.NewDriver(o.Logger), nil
	case ProviderSQLite:
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderChroma:
		return chroma.NewDriver(chroma.Config{
			URL:            o.Target,
			CollectionName: o.Collection,
		}, o.Logger)
	case ProviderQdrant:
		host, port, err := splitHostPort(o.Target)
		if err != nil {
			return nil, err
		}
		return qdrant.NewDriver(ctx, qdrant.Config{
			Host:           host,
			Port:           port,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

func splitHostPort(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// bare host, default port
		return target, 0, nil //nolint:nilerr
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}
