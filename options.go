package sexp

// ParserOptions configures Stage 2's event driver. Zero fields select
// their defaults, so the zero value is equivalent to DefaultParserOptions.
type ParserOptions struct {
	// MaxDepth is the maximum nesting depth before ErrDepthExceeded.
	// Zero selects the default (64).
	MaxDepth int

	// BatchSize is the number of structural indices processed per batch
	// before the partial-buffering window slides. Zero selects the
	// default (~8000, see SPEC_FULL.md §4.D).
	BatchSize int
}

// DefaultParserOptions returns the options used when none are supplied.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		MaxDepth:  maxStackDepth,
		BatchSize: defaultBatchSize,
	}
}

func (o ParserOptions) withDefaults() ParserOptions {
	if o.MaxDepth <= 0 {
		o.MaxDepth = maxStackDepth
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	return o
}

// ParallelOptions configures the parallel driver (component F).
type ParallelOptions struct {
	// Threads is the worker pool size. Zero selects the default (3).
	Threads int

	// ChunkSize is the target chunk size in bytes before searching for a
	// safe split boundary. Zero selects the default (1 MiB).
	ChunkSize int

	// ChunkLookahead is the capacity of the channel that carries finished
	// chunks from the workers to the in-order writer. It does not bound
	// how many finished chunks wait ahead of the next-to-emit index: the
	// writer holds those without a limit. Zero selects the default
	// (10 * Threads).
	ChunkLookahead int
}

const (
	defaultThreads   = 3
	defaultChunkSize = 1024 * 1024
	defaultBatchSize = 8000

	// maxStackDepth is the hard limit on parse stack depth (SPEC_FULL.md §6).
	maxStackDepth = 64
)

// DefaultParallelOptions returns the options used when none are supplied.
func DefaultParallelOptions() ParallelOptions {
	return ParallelOptions{
		Threads:        defaultThreads,
		ChunkSize:      defaultChunkSize,
		ChunkLookahead: defaultThreads * 10,
	}
}

func (o ParallelOptions) withDefaults() ParallelOptions {
	if o.Threads <= 0 {
		o.Threads = defaultThreads
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	if o.ChunkLookahead <= 0 {
		o.ChunkLookahead = 10 * o.Threads
	}
	return o
}
