package codec

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Decoder decodes a blob and parses the resulting JSON into v. Payloads
// without a version marker are parsed as plain JSON, matching the generator's
// unencoded output mode.
type Decoder interface {
	DecodeAndParse(ctx context.Context, blob string, v any) error
}

// InlineDecoder decodes synchronously on the calling goroutine.
type InlineDecoder struct{}

func (InlineDecoder) DecodeAndParse(_ context.Context, blob string, v any) error {
	return decodeAndParse(blob, v)
}

func decodeAndParse(blob string, v any) error {
	if IsEncoded(blob) {
		plain, err := Decode(blob)
		if err != nil {
			return err
		}
		return json.Unmarshal(plain, v)
	}
	if looksLikeJSON(blob) {
		// No marker: the generator's unencoded output mode
		return json.Unmarshal([]byte(blob), v)
	}
	// Marker-shaped but unknown: surface the decode failure
	_, err := Decode(blob)
	return err
}

func looksLikeJSON(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', '[', '"':
			return true
		default:
			return false
		}
	}
	return false
}

// DefaultPoolThreshold is the payload size below which dispatching to the
// pool costs more than it saves.
const DefaultPoolThreshold = 1 << 10

type poolJob struct {
	blob string
	v    any
	done chan error
}

// PoolDecoder dispatches large payloads to a bounded worker pool and decodes
// small ones inline. When the pool is saturated or a dispatch fails, the call
// transparently falls back to the inline path; callers never observe the
// pool's existence.
type PoolDecoder struct {
	jobs      chan poolJob
	threshold int
	logger    *slog.Logger
}

// NewPoolDecoder starts workers goroutines servicing decode jobs.
// Threshold <= 0 selects DefaultPoolThreshold.
func NewPoolDecoder(workers, threshold int, logger *slog.Logger) *PoolDecoder {
	if workers <= 0 {
		workers = 2
	}
	if threshold <= 0 {
		threshold = DefaultPoolThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &PoolDecoder{
		jobs:      make(chan poolJob, workers),
		threshold: threshold,
		logger:    logger,
	}
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

func (d *PoolDecoder) worker() {
	for job := range d.jobs {
		job.done <- decodeAndParse(job.blob, job.v)
	}
}

// DecodeAndParse decodes blob into v, off the calling goroutine when the
// payload is large enough and a worker is free.
func (d *PoolDecoder) DecodeAndParse(ctx context.Context, blob string, v any) error {
	if len(blob) < d.threshold {
		return decodeAndParse(blob, v)
	}

	job := poolJob{blob: blob, v: v, done: make(chan error, 1)}
	select {
	case d.jobs <- job:
	default:
		d.logger.Debug("decode pool saturated, decoding inline", "size", len(blob))
		return decodeAndParse(blob, v)
	}

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker pool. In-flight jobs finish.
func (d *PoolDecoder) Close() {
	close(d.jobs)
}
