package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
)

const (
	// DefaultMappedThreshold classifies a framework pair as MAPPED when at
	// least this share of the smaller framework's controls carries an edge
	// to the other framework.
	DefaultMappedThreshold = 0.80
	// DefaultPartialThreshold classifies a framework pair as PARTIAL.
	DefaultPartialThreshold = 0.30

	// MinCompareFrameworks and MaxCompareFrameworks bound a multi-framework
	// comparison. Counts outside the range are rejected as validation errors.
	MinCompareFrameworks = 2
	MaxCompareFrameworks = 5

	// DefaultMaxChains caps how many evidence-carrying chains the
	// visualization projector folds into a graph.
	DefaultMaxChains = 50
)

const (
	// DefaultCacheTTL is how long a cache entry is served as fresh.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheStaleTTL is how long after creation a stale entry may
	// still be served while a background refresh runs. Past this the read
	// blocks on a synchronous recompute.
	DefaultCacheStaleTTL = 30 * time.Minute
)
