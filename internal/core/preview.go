package core

import (
	"context"
	"time"

	"github.com/jlfwebstudio/tabela-node-backend/internal/schema"
)

// PreviewSummary contains the summary counts for an upload preview.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	MatchedColumns  int `json:"matchedColumns"`
	MissingColumns  int `json:"missingColumns"`
	IgnoredHeaders  int `json:"ignoredHeaders"`
	DuplicateInFile int `json:"duplicateInFile"`
}

// RowPreview is one converted row with the line it came from.
type RowPreview struct {
	LineNumber int `json:"lineNumber"`
	Row        Row `json:"row"`
}

// DuplicatePreview lists lines that share a ticket number.
type DuplicatePreview struct {
	Chamado     string `json:"chamado"`
	LineNumbers []int  `json:"lineNumbers"`
}

// PreviewResponse describes how a file would be converted, so a user can
// check the column mapping before loading the full table.
type PreviewResponse struct {
	ID               string             `json:"id"`
	Encoding         string             `json:"encoding"`
	Delimiter        string             `json:"delimiter"`
	Headers          []string           `json:"headers"`
	Bindings         []Binding          `json:"bindings"`
	MissingColumns   []string           `json:"missingColumns"`
	IgnoredHeaders   []string           `json:"ignoredHeaders"`
	Summary          PreviewSummary     `json:"summary"`
	RowSamples       []RowPreview       `json:"rowSamples"`
	DuplicateSamples []DuplicatePreview `json:"duplicateSamples"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
}

// Sample limits
const (
	maxRowSamples       = 10
	maxDuplicateSamples = 10
)

// Preview converts data and summarizes the outcome instead of returning
// every row. Failures are the same as Convert's.
func (p *Pipeline) Preview(ctx context.Context, data []byte) (*PreviewResponse, error) {
	start := time.Now()

	res, err := p.Convert(ctx, data)
	if err != nil {
		return nil, err
	}

	resp := &PreviewResponse{
		ID:               res.ID,
		Encoding:         res.Encoding,
		Headers:          nonNil(res.Headers),
		Bindings:         []Binding{},
		MissingColumns:   p.schema.Names(),
		IgnoredHeaders:   nonNil(res.Headers),
		RowSamples:       []RowPreview{},
		DuplicateSamples: []DuplicatePreview{},
	}
	if res.Delimiter != 0 {
		resp.Delimiter = string(res.Delimiter)
	}
	if res.Mapping != nil {
		resp.Bindings = nonNil(res.Mapping.Bindings())
		resp.MissingColumns = nonNil(res.Mapping.Unmatched())
		resp.IgnoredHeaders = ignoredHeaders(res.Headers, resp.Bindings)
	}

	for i, row := range res.Rows {
		if i >= maxRowSamples {
			break
		}
		resp.RowSamples = append(resp.RowSamples, RowPreview{LineNumber: res.Lines[i], Row: row})
	}

	dupes := duplicates(res)
	for _, d := range dupes {
		resp.Summary.DuplicateInFile += len(d.LineNumbers)
		if len(resp.DuplicateSamples) < maxDuplicateSamples {
			resp.DuplicateSamples = append(resp.DuplicateSamples, d)
		}
	}

	resp.Summary.TotalRows = len(res.Rows)
	resp.Summary.MatchedColumns = len(resp.Bindings)
	resp.Summary.MissingColumns = len(resp.MissingColumns)
	resp.Summary.IgnoredHeaders = len(resp.IgnoredHeaders)
	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	return resp, nil
}

// ignoredHeaders returns headers no column was bound to, in file order.
func ignoredHeaders(headers []string, bindings []Binding) []string {
	used := make(map[int]bool, len(bindings))
	for _, b := range bindings {
		used[b.Index] = true
	}
	out := []string{}
	for i, h := range headers {
		if !used[i] {
			out = append(out, h)
		}
	}
	return out
}

// duplicates groups rows by ticket number, in order of first appearance.
// Rows with an empty ticket number are not compared.
func duplicates(res *Result) []DuplicatePreview {
	lines := make(map[string][]int)
	var order []string
	for i, row := range res.Rows {
		key := row.Get(schema.Chamado)
		if key == "" {
			continue
		}
		if _, seen := lines[key]; !seen {
			order = append(order, key)
		}
		lines[key] = append(lines[key], res.Lines[i])
	}

	var out []DuplicatePreview
	for _, key := range order {
		if len(lines[key]) > 1 {
			out = append(out, DuplicatePreview{Chamado: key, LineNumbers: lines[key]})
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
