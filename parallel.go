package sexp

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// readBufSize is how much is read from the source reader per iteration
// while hunting for a chunk boundary.
const readBufSize = 64 * 1024

type workUnit struct {
	index  int
	buffer []byte
}

type workResult struct {
	index  int
	output []byte
}

// ParseParallel splits r into chunks at safe newline boundaries
// (SPEC_FULL.md §4.F), parses each chunk concurrently with its own
// Visitor produced by newVisitor, and writes the chunks' outputs to w in
// input order. Each chunk is parsed as Segment(n), n being its position
// in the input, and that segment appears in any ParseError the chunk
// produces. Visitors are not told their segment: newVisitor receives only
// the output buffer.
//
// Grounded on original_source's parser_parallel.rs State/WritingJoiner:
// the hand-rolled crossbeam Injector/Worker/ArrayQueue plumbing there
// becomes Go channels, and golang.org/x/sync/errgroup takes over
// crossbeam_utils::thread::scope's worker lifetime and first-error-wins
// semantics.
func ParseParallel[C any](r io.Reader, w io.Writer, newVisitor func(dst *bytes.Buffer) Visitor[C, error], popts ParallelOptions, copts ParserOptions) error {
	popts = popts.withDefaults()
	copts = copts.withDefaults()

	work := make(chan workUnit)
	results := make(chan workResult, popts.ChunkLookahead)

	workerGroup, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < popts.Threads; i++ {
		workerGroup.Go(func() error {
			return parallelWorker(ctx, work, results, newVisitor, copts)
		})
	}

	splitDone := make(chan error, 1)
	go func() {
		defer close(work)
		splitDone <- splitIntoChunks(ctx, r, popts.ChunkSize, work)
	}()

	joinDone := make(chan error, 1)
	go func() {
		joinDone <- joinResults(results, w)
	}()

	workerErr := workerGroup.Wait()
	close(results)
	splitErr := <-splitDone
	joinErr := <-joinDone

	switch {
	case workerErr != nil:
		return workerErr
	case splitErr != nil:
		return splitErr
	default:
		return joinErr
	}
}

func parallelWorker[C any](ctx context.Context, work <-chan workUnit, results chan<- workResult, newVisitor func(*bytes.Buffer) Visitor[C, error], opts ParserOptions) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case wu, ok := <-work:
			if !ok {
				return nil
			}
			var buf bytes.Buffer
			visitor := newVisitor(&buf)
			parser := newSegmentParser[C, error](visitor, opts, Segment(wu.index))
			visitorErr, parseErr := parser.ParseBytes(wu.buffer)
			if parseErr != nil {
				return parseErr
			}
			if visitorErr != nil {
				return visitorErr
			}
			select {
			case results <- workResult{index: wu.index, output: buf.Bytes()}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// splitIntoChunks reads r and sends one workUnit per chunk on work,
// closing over ctx to unwind promptly if a worker has already failed.
func splitIntoChunks(ctx context.Context, r io.Reader, chunkSize int, work chan<- workUnit) error {
	br := bufio.NewReaderSize(r, readBufSize)
	readBuf := make([]byte, readBufSize)
	var pending []byte
	index := 0

	for {
		if splitAt := findSplitPoint(pending, chunkSize); splitAt >= 0 {
			chunk := pending[:splitAt]
			if err := sendWork(ctx, work, workUnit{index: index, buffer: chunk}); err != nil {
				return err
			}
			pending = append([]byte(nil), pending[splitAt:]...)
			index++
			continue
		}

		n, err := br.Read(readBuf)
		if n > 0 {
			pending = append(pending, readBuf[:n]...)
		}
		if err == io.EOF {
			if len(pending) > 0 {
				if sendErr := sendWork(ctx, work, workUnit{index: index, buffer: pending}); sendErr != nil {
					return sendErr
				}
			}
			return nil
		}
		if err != nil {
			return ioError(err)
		}
	}
}

// findSplitPoint looks for the first newline at or after chunkSize whose
// following byte is not a space (the heuristic assumes nested forms are
// indented with a leading space on continuation lines). Returns -1 if no
// such boundary can yet be determined from the buffered data.
func findSplitPoint(pending []byte, chunkSize int) int {
	if len(pending) <= chunkSize {
		return -1
	}
	for i := chunkSize; i < len(pending); i++ {
		if pending[i] != '\n' {
			continue
		}
		if i+1 >= len(pending) {
			return -1
		}
		if pending[i+1] != ' ' {
			return i + 1
		}
	}
	return -1
}

func sendWork(ctx context.Context, work chan<- workUnit, wu workUnit) error {
	select {
	case work <- wu:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// joinResults reassembles chunk outputs in input order (SPEC_FULL.md
// §4.F's ordering guarantee) and writes each to w as soon as it and all
// earlier chunks have arrived. Results that arrive early are held in a
// map with no size limit.
func joinResults(results <-chan workResult, w io.Writer) error {
	pending := map[int][]byte{}
	next := 0
	var err error

	for res := range results {
		if err != nil {
			continue
		}
		pending[res.index] = res.output
		for {
			out, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if _, werr := w.Write(out); werr != nil {
				err = werr
				break
			}
			next++
		}
	}
	return err
}
