// This file implements a generic, batched loader that slices prepared rows
// into fixed-size batches and invokes a provided bulk-insert function (CopyFn)
// per batch.
//
// Backends implement CopyFn with their most efficient primitive (Postgres
// COPY here). Logging: every successful flush emits a concise progress line
// with running totals and instantaneous rows/sec since the previous flush.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows and return the number of rows reported as inserted. The
// function should be safe for repeated calls and cancel promptly when ctx is
// done.
type CopyFn func(ctx context.Context, rows [][]any) (int64, error)

// LoadBatches groups rows into batches of size batchSize and calls copyFn for
// each non-empty batch. It returns the total number of rows reported by
// copyFn and the first error encountered. Returns (total, ctx.Err()) when
// canceled between batches.
func LoadBatches(ctx context.Context, rows [][]any, batchSize int, copyFn CopyFn) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	for off := 0; off < len(rows); off += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		end := off + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[off:end]

		n, err := copyFn(ctx, batch)
		total += n
		if err != nil {
			log.Printf("loader: COPY failed after=%d total=%d err=%v", n, total, err)
			return total, err
		}

		// Progress log per successful batch.
		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		insertedSinceLast := total - lastTotal
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(insertedSinceLast) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s since_last=%s",
			batches,
			rps,
			n,
			total,
			now.Sub(start).Truncate(time.Millisecond),
			sinceLast.Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total
	}
	return total, nil
}
