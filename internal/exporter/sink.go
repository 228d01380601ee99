package exporter

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Content types of produced downloads
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Download is a finished document ready to hand to the user.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
	// Rows counts the lines or sheet rows written, header included.
	Rows int
}

// Sink delivers a download. Implementations must release every resource they
// acquire before returning, including on error.
type Sink interface {
	Deliver(ctx context.Context, d Download) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, d Download) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, d Download) error {
	return f(ctx, d)
}

// HTTPSink streams the download as an attachment response.
type HTTPSink struct {
	w http.ResponseWriter
}

// NewHTTPSink wraps a response writer.
func NewHTTPSink(w http.ResponseWriter) *HTTPSink {
	return &HTTPSink{w: w}
}

// Deliver writes headers and body.
func (s *HTTPSink) Deliver(ctx context.Context, d Download) error {
	h := s.w.Header()
	h.Set("Content-Type", d.ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(d.Body)))
	h.Set("Cache-Control", "no-store")
	s.w.WriteHeader(http.StatusOK)

	if _, err := s.w.Write(d.Body); err != nil {
		return fmt.Errorf("write response body: %w", err)
	}
	return nil
}

// MultiSink delivers to each sink in order and stops at the first failure.
// Put sinks that cannot be undone, such as an HTTP response, last.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, d Download) error {
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Deliver(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// FileSink writes downloads into a directory.
type FileSink struct {
	Dir string
}

// NewFileSink creates a sink rooted at dir. The directory is created on first delivery.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Path returns where a download with the given name is written.
func (s *FileSink) Path(filename string) string {
	return filepath.Join(s.Dir, filename)
}

// Deliver writes the body to a temp file in Dir and renames it into place.
func (s *FileSink) Deliver(ctx context.Context, d Download) error {
	if err := validateFilename(d.Filename); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+d.Filename+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(d.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(d.Filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

func validateFilename(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid filename %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("filename %q must not contain path separators", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("filename contains NUL byte")
	}
	return nil
}

// MemorySink keeps delivered downloads in memory, newest last.
type MemorySink struct {
	mu        sync.Mutex
	downloads []Download
	limit     int
}

// NewMemorySink keeps at most limit downloads; limit <= 0 keeps all.
func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{limit: limit}
}

// Deliver stores a copy of the download.
func (s *MemorySink) Deliver(ctx context.Context, d Download) error {
	d.Body = append([]byte(nil), d.Body...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append(s.downloads, d)
	if s.limit > 0 && len(s.downloads) > s.limit {
		s.downloads = append([]Download(nil), s.downloads[len(s.downloads)-s.limit:]...)
	}
	return nil
}

// Downloads returns the stored downloads.
func (s *MemorySink) Downloads() []Download {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Download(nil), s.downloads...)
}

// Last returns the most recent download.
func (s *MemorySink) Last() (Download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.downloads) == 0 {
		return Download{}, false
	}
	return s.downloads[len(s.downloads)-1], true
}
