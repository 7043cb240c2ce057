// Package server exposes conversion over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	html2pdf "github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// Upload limits.
const (
	DefaultMaxUpload = 32 << 20 // whole request body
	multipartMemory  = 8 << 20  // parts above this spill to disk
	shutdownTimeout  = 10 * time.Second
)

// Converter is the part of html2pdf.Converter the server needs.
type Converter interface {
	Convert(ctx context.Context, req html2pdf.Request) (*html2pdf.Result, error)
}

// Server handles conversion requests. Uploads are written to a private
// temporary directory per request and removed when the response is sent.
type Server struct {
	conv      Converter
	logger    *log.Logger
	maxUpload int64
	slots     chan struct{}
}

// New creates a Server running at most workers conversions at once.
func New(conv Converter, logger *log.Logger, workers int) *Server {
	if workers < 1 {
		workers = 1
	}
	return &Server{
		conv:      conv,
		logger:    logger,
		maxUpload: DefaultMaxUpload,
		slots:     make(chan struct{}, workers),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/convert", s.handleConvert)
	return r
}

// logRequests logs one line per request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// handleConvert expects a multipart body with one "document" part and any
// number of "stylesheet" parts. Query parameters engine, media, wait and
// base map to the matching request fields.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("reading upload: %w", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	docs := r.MultipartForm.File["document"]
	if len(docs) != 1 {
		writeError(w, http.StatusBadRequest, errors.New(`expected exactly one "document" part`))
		return
	}

	q := r.URL.Query()
	base := q.Get("base")
	if base != "" && !fileutil.IsURL(base) {
		writeError(w, http.StatusBadRequest, errors.New("base must be an http or https URL"))
		return
	}

	dir, err := os.MkdirTemp("", "html2pdf-serve-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	input, err := saveUpload(docs[0], dir, documentName(docs[0].Filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var sheets []string
	for i, fh := range r.MultipartForm.File["stylesheet"] {
		p, err := saveUpload(fh, dir, fmt.Sprintf("stylesheet-%d.css", i))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		sheets = append(sheets, p)
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, r.Context().Err())
		return
	}

	res, err := s.conv.Convert(r.Context(), html2pdf.Request{
		Input:       input,
		Output:      filepath.Join(dir, "out", "document.pdf"),
		BaseURL:     base,
		Stylesheets: sheets,
		Engine:      html2pdf.Engine(q.Get("engine")),
		MediaType:   html2pdf.MediaType(q.Get("media")),
		Wait:        html2pdf.WaitCondition(q.Get("wait")),
	})
	if err != nil {
		s.logger.Warn("conversion failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, statusFor(err), err)
		return
	}

	f, err := os.Open(res.Output)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer func() { _ = f.Close() }()

	stem := strings.TrimSuffix(docs[0].Filename, filepath.Ext(docs[0].Filename))
	if stem == "" {
		stem = "document"
	}
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(stem)+".pdf"))
	h.Set("X-Engine", string(res.Engine))
	if res.Pages > 0 {
		h.Set("X-Pages", strconv.Itoa(res.Pages))
	}
	for _, warning := range res.Warnings {
		h.Add("X-Warning", warning)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Debug("writing response", "err", err)
	}
}

// documentName keeps the upload's extension when it is one the converter
// understands, so Markdown uploads are rendered as Markdown.
func documentName(uploaded string) string {
	switch ext := strings.ToLower(filepath.Ext(uploaded)); ext {
	case ".html", ".htm", ".xhtml", ".md", ".markdown":
		return "document" + ext
	default:
		return "document.html"
	}
}

// saveUpload copies one multipart file into dir under name.
func saveUpload(fh *multipart.FileHeader, dir, name string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst := filepath.Join(dir, name)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileutil.FilePermissions) // #nosec G304 -- fixed name inside a private temp dir
	if err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	return dst, nil
}

// statusFor maps conversion errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, html2pdf.ErrUnknownEngine),
		errors.Is(err, html2pdf.ErrInvalidMediaType),
		errors.Is(err, html2pdf.ErrInvalidWaitCondition),
		errors.Is(err, html2pdf.ErrInvalidInput),
		errors.Is(err, html2pdf.ErrPreprocess):
		return http.StatusBadRequest
	case errors.Is(err, html2pdf.ErrEngineNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errCh
}
