package embed

import (
	"context"
	"fmt"
)

// Progress reports embedding progress across a batched run.
type Progress struct {
	BatchIndex      int
	TotalBatches    int
	ProcessedChunks int
	TotalChunks     int
}

// ProgressFunc receives Progress updates; nil disables reporting.
type ProgressFunc func(Progress)

// Batched wraps a Provider to embed large text sets in fixed-size batches,
// reporting progress and isolating one batch's terminal failure from the
// rest: a failed batch's texts come back as a BatchError in the returned
// error, but already-succeeded batches are not lost by the caller (it
// receives the partial [][]float32 alongside the error).
type Batched struct {
	Provider  Provider
	BatchSize int
}

// BatchError marks a single embedding batch that failed after the
// underlying Provider's own retries were exhausted.
type BatchError struct {
	BatchIndex int
	Start, End int
	Err        error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (items %d-%d): %v", e.BatchIndex, e.Start, e.End, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// EmbedWithProgress embeds texts in batches of b.BatchSize, invoking report
// after each batch. It runs every batch even after one fails, returning
// vectors for every text it could embed (nil slices where a batch failed)
// alongside the first BatchError encountered.
func (b *Batched) EmbedWithProgress(ctx context.Context, texts []string, report ProgressFunc) ([][]float32, error) {
	total := len(texts)
	if total == 0 {
		return nil, nil
	}
	size := b.BatchSize
	if size <= 0 {
		size = total
	}
	numBatches := (total + size - 1) / size
	results := make([][]float32, total)

	var firstErr error
	processed := 0
	for i := 0; i < numBatches; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		start := i * size
		end := start + size
		if end > total {
			end = total
		}
		vectors, err := b.Provider.Embed(ctx, texts[start:end])
		if err != nil {
			if firstErr == nil {
				firstErr = &BatchError{BatchIndex: i + 1, Start: start, End: end, Err: err}
			}
		} else {
			for j, v := range vectors {
				results[start+j] = v
			}
		}
		processed += end - start
		if report != nil {
			report(Progress{
				BatchIndex:      i + 1,
				TotalBatches:    numBatches,
				ProcessedChunks: processed,
				TotalChunks:     total,
			})
		}
	}
	return results, firstErr
}
