package media

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
)

const defaultChunkSize = 256 << 10

// ErrMediaMissing reports that the backing file is absent even though the
// catalog knows the video. It signals drift between catalog and storage,
// not a client mistake.
var ErrMediaMissing = errors.New("media: backing file missing")

// Source describes the stored media object to serve. Size and ContentType
// come from the catalog record, not from the filesystem, so a truncated
// file on disk is detected rather than silently served short.
type Source struct {
	Path        string
	Size        int64
	ContentType string
}

// Streamer serves stored media with HTTP partial-content semantics. Each
// request opens its own file handle and copies through a bounded buffer,
// so memory use is independent of file size and concurrent viewers do not
// interfere with each other.
type Streamer struct {
	chunkSize int
}

func NewStreamer() *Streamer {
	return &Streamer{chunkSize: defaultChunkSize}
}

// Serve writes the response for one streaming request: 200 with the full
// body when no Range header is present, 206 with the requested window
// otherwise, 416 when the range is unsatisfiable. It returns the number
// of body bytes written and a classification error for logging and
// metrics; when an error is returned the response has already been
// written (or the connection is beyond repair), so callers must not write
// again.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, src Source) (int64, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "not found", http.StatusNotFound)
			return 0, fmt.Errorf("%w: %s", ErrMediaMissing, src.Path)
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return 0, fmt.Errorf("open media %s: %w", src.Path, err)
	}
	defer func() { _ = f.Close() }()

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		return s.serveFull(w, r, f, src)
	}

	br, err := ParseRange(rangeHeader, src.Size)
	if err != nil {
		w.Header().Set("Content-Range", FormatUnsatisfiableRange(src.Size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return 0, err
	}
	return s.serveRange(w, r, f, src, br)
}

func (s *Streamer) serveFull(w http.ResponseWriter, r *http.Request, f *os.File, src Source) (int64, error) {
	h := w.Header()
	h.Set("Content-Type", src.ContentType)
	h.Set("Content-Length", strconv.FormatInt(src.Size, 10))
	h.Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return 0, nil
	}
	return s.copyWindow(w, r, f, src.Size)
}

func (s *Streamer) serveRange(w http.ResponseWriter, r *http.Request, f *os.File, src Source, br ByteRange) (int64, error) {
	h := w.Header()
	h.Set("Content-Type", src.ContentType)
	h.Set("Content-Range", FormatContentRange(br, src.Size))
	h.Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	h.Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusPartialContent)

	if r.Method == http.MethodHead {
		return 0, nil
	}
	if _, err := f.Seek(br.Start, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek media to %d: %w", br.Start, err)
	}
	return s.copyWindow(w, r, f, br.Length())
}

// copyWindow forwards exactly length bytes in bounded chunks. A write
// failure usually means the client went away (seek, tab closed); the read
// loop stops immediately and the caller treats it as routine.
func (s *Streamer) copyWindow(w http.ResponseWriter, r *http.Request, f *os.File, length int64) (int64, error) {
	buf := make([]byte, s.chunkSize)
	written, err := io.CopyBuffer(w, io.LimitReader(f, length), buf)
	if err != nil {
		if r.Context().Err() != nil {
			// Client cancelled mid-stream. Routine for seeking players.
			return written, nil
		}
		return written, fmt.Errorf("stream copy after %d bytes: %w", written, err)
	}
	if written < length {
		return written, fmt.Errorf("media shorter than catalog size: wrote %d of %d", written, length)
	}
	return written, nil
}
