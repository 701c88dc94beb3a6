package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/jlfwebstudio/tabela-node-backend/internal/core"
	"github.com/jlfwebstudio/tabela-node-backend/internal/logging"
)

// conversionIDHeader carries Result.ID so clients can quote it to support.
const conversionIDHeader = "X-Conversion-ID"

// multipartOverhead is room for boundaries and part headers on top of the
// file itself.
const multipartOverhead = 1 << 20

// maxMemory is how much of a multipart form is kept in memory before parts
// spill to temporary files.
const maxMemory = 32 << 20

// handleUpload converts one uploaded CSV file and responds with the
// canonical rows as a JSON array.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	data, filename, err := s.readUpload(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	ctx := core.ContextWithFileName(r.Context(), filename)

	var result *core.Result
	err = s.limiter.Run(ctx, func(ctx context.Context) error {
		var convErr error
		result, convErr = s.pipeline.Convert(ctx, data)
		return convErr
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	logging.WithFields(r.Context(), "conversion_id", result.ID).Info("upload converted",
		"file", filename,
		"bytes", len(data),
		"rows", len(result.Rows),
		"encoding", result.Encoding,
		"empty", result.Empty,
	)

	w.Header().Set(conversionIDHeader, result.ID)
	writeJSON(w, r, http.StatusOK, result.Rows)
}

// handlePreview converts an upload and responds with the column mapping,
// counts and a sample of rows rather than the whole table.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	data, filename, err := s.readUpload(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	ctx := core.ContextWithFileName(r.Context(), filename)

	var preview *core.PreviewResponse
	err = s.limiter.Run(ctx, func(ctx context.Context) error {
		var convErr error
		preview, convErr = s.pipeline.Preview(ctx, data)
		return convErr
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set(conversionIDHeader, preview.ID)
	writeJSON(w, r, http.StatusOK, preview)
}

// readUpload returns the bytes and name of the uploaded file, looking in each
// configured form field in turn.
func (s *Server) readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, "", fmt.Errorf("%w: %v", errFileTooLarge, err)
		}
		// Not a multipart body, or a malformed one: there is no file to read.
		return nil, "", &core.Error{Kind: core.KindMissingInput, Op: "upload", Err: err}
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := s.formFile(r)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	if header.Size > s.cfg.Upload.MaxFileSize {
		return nil, "", fmt.Errorf("%w: %d bytes exceeds %d", errFileTooLarge, header.Size, s.cfg.Upload.MaxFileSize)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, header.Filename, nil
}

// formFile returns the first configured field that carries a file.
func (s *Server) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range s.cfg.Upload.UploadFields() {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read form field %q: %w", field, err)
		}
		return file, header, nil
	}
	return nil, nil, &core.Error{Kind: core.KindMissingInput, Op: "upload"}
}

// healthResponse reports readiness and conversion capacity.
type healthResponse struct {
	Status      string             `json:"status"`
	Conversions core.LimiterStatus `json:"conversions"`
	Columns     int                `json:"columns"`
	EmptyPolicy core.EmptyPolicy   `json:"empty_policy"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:      "ok",
		Conversions: s.limiter.Status(),
		Columns:     s.pipeline.Schema().Len(),
		EmptyPolicy: s.pipeline.EmptyPolicy(),
	})
}

// handleColumns lists the canonical columns in the order rows are emitted.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]string{
		"columns": s.pipeline.Schema().Names(),
	})
}
