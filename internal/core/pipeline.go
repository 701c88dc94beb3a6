package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jlfwebstudio/tabela-node-backend/internal/logging"
	"github.com/jlfwebstudio/tabela-node-backend/internal/schema"
)

// ContextCheckInterval is how often, in rows, canonicalization checks for
// context cancellation.
var ContextCheckInterval = 100

// PreviewLength is how much decoded text is logged at debug level.
const PreviewLength = 500

// EmptyPolicy decides what a file without data rows turns into.
type EmptyPolicy string

const (
	// EmptyPolicyReject reports an empty file as an error.
	EmptyPolicyReject EmptyPolicy = "reject"
	// EmptyPolicyAllow returns an empty result.
	EmptyPolicyAllow EmptyPolicy = "allow"
)

// ParseEmptyPolicy validates a policy name. Empty selects EmptyPolicyReject.
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	switch EmptyPolicy(s) {
	case "", EmptyPolicyReject:
		return EmptyPolicyReject, nil
	case EmptyPolicyAllow:
		return EmptyPolicyAllow, nil
	default:
		return "", fmt.Errorf("unknown empty policy %q (want reject or allow)", s)
	}
}

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	Encodings   []Encoding  // Candidates in order; default DefaultEncodings
	Delimiter   rune        // Forced separator; 0 detects it
	EmptyPolicy EmptyPolicy // Default EmptyPolicyReject
}

// Result is the outcome of one conversion.
type Result struct {
	ID        string
	Encoding  string
	Delimiter rune
	Headers   []string
	Mapping   *Mapping
	Rows      []Row
	Lines     []int // Source line of each row
	Empty     bool
	Duration  time.Duration
}

// Pipeline turns an uploaded CSV buffer into canonical rows.
// It holds no per-conversion state and is safe for concurrent use.
type Pipeline struct {
	schema *schema.Schema
	opts   Options
}

// NewPipeline creates a Pipeline for s.
func NewPipeline(s *schema.Schema, opts Options) *Pipeline {
	if len(opts.Encodings) == 0 {
		opts.Encodings = DefaultEncodings
	}
	opts.Encodings = append([]Encoding(nil), opts.Encodings...)
	if opts.EmptyPolicy == "" {
		opts.EmptyPolicy = EmptyPolicyReject
	}
	return &Pipeline{schema: s, opts: opts}
}

// Schema returns the schema rows are canonicalized against.
func (p *Pipeline) Schema() *schema.Schema { return p.schema }

// EmptyPolicy reports the configured empty-file policy.
func (p *Pipeline) EmptyPolicy() EmptyPolicy { return p.opts.EmptyPolicy }

// attempt is the first candidate decoding that produced a header.
type attempt struct {
	encoding Encoding
	table    *Table
}

// Convert decodes data, parses it and reconciles every row onto the schema.
//
// Encoding candidates are tried in order. A candidate is skipped when its
// decoder rejects the bytes, when the text does not parse, or when it parses
// to zero data rows. The first candidate with rows wins.
//
// A nil buffer fails with ErrMissingInput. When no candidate yields rows the
// error is ErrEmptyResult if some candidate produced a header and
// ErrDecodeExhausted otherwise; with EmptyPolicyAllow both become an empty
// Result instead. Any other failure, including a panic, is ErrProcessing;
// text that does not split into records also matches ErrInvalidCSV, and no
// further encoding is tried since every candidate shares the same quoting.
func (p *Pipeline) Convert(ctx context.Context, data []byte) (res *Result, err error) {
	start := time.Now()
	id := uuid.New().String()
	logger := logging.WithFields(ctx, "conversion_id", id)
	if name := FileNameFromContext(ctx); name != "" {
		logger = logger.With("file", name)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in conversion", "panic", r)
			res, err = nil, processingError("convert", r)
		}
	}()

	if data == nil {
		return nil, newError(KindMissingInput, "convert", nil)
	}

	var (
		lastErr     error
		firstHeader *attempt
		accepted    *attempt
	)

	for _, enc := range p.opts.Encodings {
		if err := ctx.Err(); err != nil {
			return nil, newError(KindProcessing, "convert", err)
		}

		text, err := Decode(enc, data)
		if err != nil {
			logger.Warn("encoding rejected", "encoding", enc.Name, "error", err)
			lastErr = err
			continue
		}

		if logger.Enabled(ctx, slog.LevelDebug) {
			logger.Debug("decoded content", "encoding", enc.Name, "preview", preview(text, PreviewLength))
		}

		table, err := Parse(text, ParseOptions{Delimiter: p.opts.Delimiter})
		if err != nil {
			logger.Warn("parse failed", "encoding", enc.Name, "error", err)
			return nil, newError(KindProcessing, "convert", err)
		}

		if table.Headers != nil && firstHeader == nil {
			firstHeader = &attempt{encoding: enc, table: table}
		}
		if len(table.Rows) == 0 {
			logger.Warn("no data rows", "encoding", enc.Name, "has_header", table.Headers != nil)
			continue
		}

		accepted = &attempt{encoding: enc, table: table}
		break
	}

	if accepted == nil {
		return p.empty(id, firstHeader, lastErr, start, logger)
	}

	table := accepted.table
	mapping := Reconcile(table.Headers, p.schema)
	logger.Info("headers reconciled",
		"encoding", accepted.encoding.Name,
		"delimiter", string(table.Delimiter),
		"headers", table.Headers,
		"unmatched", mapping.Unmatched(),
	)

	rows := make([]Row, 0, len(table.Rows))
	lines := make([]int, 0, len(table.Rows))
	for i, raw := range table.Rows {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, newError(KindProcessing, "convert", err)
			}
		}
		rows = append(rows, Canonicalize(raw, mapping, p.schema))
		lines = append(lines, raw.Line)
	}

	res = &Result{
		ID:        id,
		Encoding:  accepted.encoding.Name,
		Delimiter: table.Delimiter,
		Headers:   table.Headers,
		Mapping:   mapping,
		Rows:      rows,
		Lines:     lines,
		Duration:  time.Since(start),
	}
	logger.Info("conversion complete", "rows", len(rows), "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

// empty resolves a conversion in which no candidate produced data rows.
func (p *Pipeline) empty(id string, header *attempt, cause error, start time.Time, logger *slog.Logger) (*Result, error) {
	kind := KindDecodeExhausted
	if header != nil {
		kind = KindEmptyResult
	}

	if p.opts.EmptyPolicy != EmptyPolicyAllow {
		logger.Warn("conversion produced no rows", "kind", kind.String())
		e := newError(kind, "convert", cause)
		if header == nil && cause != nil && errors.Is(cause, ErrInvalidEncoding) {
			e.Details = "no supported encoding could read the file"
		}
		return nil, e
	}

	res := &Result{
		ID:       id,
		Rows:     []Row{},
		Lines:    []int{},
		Empty:    true,
		Duration: time.Since(start),
	}
	if header != nil {
		res.Encoding = header.encoding.Name
		res.Delimiter = header.table.Delimiter
		res.Headers = header.table.Headers
		res.Mapping = Reconcile(header.table.Headers, p.schema)
	}
	logger.Info("conversion complete", "rows", 0, "empty", true)
	return res, nil
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
