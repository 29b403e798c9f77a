package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/KaramelBytes/edaloom/internal/dataset"
	"github.com/KaramelBytes/edaloom/internal/pipeline"
)

// multipart overhead allowed on top of the file size limit
const formSlack = 1 << 20

type pageData struct {
	MaxBytes int64
	Error    string
	Outcome  *pipeline.Outcome
}

type sheetsResponse struct {
	FileName string   `json:"file_name"`
	Sheets   []string `json:"sheets"`
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, pageData{})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) analyzePage(w http.ResponseWriter, r *http.Request) {
	out, err := s.analyze(w, r)
	if err != nil {
		apiErr := errorFor(err)
		s.renderPage(w, r, apiErr.StatusCode, pageData{Error: apiErr.Message})
		return
	}
	s.renderPage(w, r, http.StatusOK, pageData{Outcome: out})
}

func (s *Server) apiAnalyze(w http.ResponseWriter, r *http.Request) {
	out, err := s.analyze(w, r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, out)
}

func (s *Server) apiSheets(w http.ResponseWriter, r *http.Request) {
	f, _, err := s.readUpload(w, r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	names, err := dataset.SheetNames(f, s.cfg.MaxBytes)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	render.JSON(w, r, sheetsResponse{FileName: f.Name, Sheets: names})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) (*pipeline.Outcome, error) {
	f, sheet, err := s.readUpload(w, r)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(r.Context(), f, pipeline.Options{
		Sheet:       sheet,
		ColumnTypes: s.cfg.ColumnTypes,
		MaxBytes:    s.cfg.MaxBytes,
		PreviewRows: s.cfg.PreviewRows,
		SkipAI:      s.cfg.SkipAI,
	}, s.rec)
}

// readUpload reads the "file" part of a multipart form plus the optional "sheet"
// and "kind" fields. Oversized bodies are rejected before they are read in full.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (dataset.UploadedFile, string, error) {
	limit := s.cfg.MaxBytes + formSlack
	if r.ContentLength > limit {
		return dataset.UploadedFile{}, "", fmt.Errorf("%w: request body of %d bytes exceeds the %d MiB limit", dataset.ErrFileTooLarge, r.ContentLength, s.cfg.MaxBytes>>20)
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if tooLarge(err) {
			return dataset.UploadedFile{}, "", fmt.Errorf("%w: %v", dataset.ErrFileTooLarge, err)
		}
		return dataset.UploadedFile{}, "", badRequest(fmt.Errorf("invalid multipart form: %w", err))
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return dataset.UploadedFile{}, "", badRequest(fmt.Errorf("missing file field: %w", err))
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		if tooLarge(err) {
			return dataset.UploadedFile{}, "", fmt.Errorf("%w: %v", dataset.ErrFileTooLarge, err)
		}
		return dataset.UploadedFile{}, "", badRequest(fmt.Errorf("read upload: %w", err))
	}
	declared := r.FormValue("kind")
	if declared == "" {
		if k, ok := dataset.KindFromContentType(header.Header.Get("Content-Type")); ok {
			declared = k.String()
		}
	}
	kind, err := dataset.ResolveKind(declared, header.Filename, buf.Bytes())
	if err != nil {
		return dataset.UploadedFile{}, "", fmt.Errorf("%w: %s", err, header.Filename)
	}
	return dataset.UploadedFile{
		Name:    header.Filename,
		Kind:    kind,
		Content: buf.Bytes(),
		Size:    header.Size,
	}, strings.TrimSpace(r.FormValue("sheet")), nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := errorFor(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		slog.WarnContext(r.Context(), "request rejected", "code", apiErr.ErrorCode, "error", err)
	}
	_ = render.Render(w, r, apiErr)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.MaxBytes = s.cfg.MaxBytes
	var buf bytes.Buffer
	if err := s.page.ExecuteTemplate(&buf, "page.html", data); err != nil {
		slog.ErrorContext(r.Context(), "render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
