package media

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeTestMedia(t *testing.T, size int) (Source, []byte) {
	t.Helper()
	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "lesson.mp4")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write test media: %v", err)
	}
	return Source{Path: path, Size: int64(size), ContentType: "video/mp4"}, content
}

func serve(t *testing.T, src Source, method, rangeHeader string) (*httptest.ResponseRecorder, int64, error) {
	t.Helper()
	req := httptest.NewRequest(method, "/stream/token", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rr := httptest.NewRecorder()
	n, err := NewStreamer().Serve(rr, req, src)
	return rr, n, err
}

func TestServeFullBody(t *testing.T) {
	src, content := writeTestMedia(t, 4096)

	rr, n, err := serve(t, src, http.MethodGet, "")
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if n != 4096 {
		t.Fatalf("expected 4096 bytes written, got %d", n)
	}
	if got := rr.Header().Get("Content-Length"); got != "4096" {
		t.Fatalf("unexpected Content-Length: %s", got)
	}
	if got := rr.Header().Get("Content-Type"); got != "video/mp4" {
		t.Fatalf("unexpected Content-Type: %s", got)
	}
	if got := rr.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Fatalf("unexpected Accept-Ranges: %s", got)
	}
	if !bytes.Equal(rr.Body.Bytes(), content) {
		t.Fatal("body does not match file content")
	}
}

func TestServeFirstHundredBytes(t *testing.T) {
	src, content := writeTestMedia(t, 4096)

	rr, n, err := serve(t, src, http.MethodGet, "bytes=0-99")
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if rr.Code != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", rr.Code)
	}
	if n != 100 {
		t.Fatalf("expected 100 bytes written, got %d", n)
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes 0-99/4096" {
		t.Fatalf("unexpected Content-Range: %s", got)
	}
	if got := rr.Header().Get("Content-Length"); got != "100" {
		t.Fatalf("unexpected Content-Length: %s", got)
	}
	if !bytes.Equal(rr.Body.Bytes(), content[:100]) {
		t.Fatal("body does not match requested window")
	}
}

func TestServeMiddleWindow(t *testing.T) {
	src, content := writeTestMedia(t, 4096)

	rr, _, err := serve(t, src, http.MethodGet, "bytes=1000-2047")
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if rr.Code != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes 1000-2047/4096" {
		t.Fatalf("unexpected Content-Range: %s", got)
	}
	if !bytes.Equal(rr.Body.Bytes(), content[1000:2048]) {
		t.Fatal("body does not match requested window")
	}
}

func TestServeOpenEndedRange(t *testing.T) {
	src, content := writeTestMedia(t, 4096)

	rr, _, err := serve(t, src, http.MethodGet, "bytes=4000-")
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes 4000-4095/4096" {
		t.Fatalf("unexpected Content-Range: %s", got)
	}
	if !bytes.Equal(rr.Body.Bytes(), content[4000:]) {
		t.Fatal("body does not match tail window")
	}
}

func TestServeUnsatisfiableRanges(t *testing.T) {
	src, _ := writeTestMedia(t, 4096)

	for _, header := range []string{"bytes=4096-", "bytes=500-100", "bytes=-500", "bytes=0-99,200-299", "bytes=junk"} {
		rr, n, err := serve(t, src, http.MethodGet, header)
		if rr.Code != http.StatusRequestedRangeNotSatisfiable {
			t.Fatalf("Range %q: expected 416, got %d", header, rr.Code)
		}
		if n != 0 {
			t.Fatalf("Range %q: expected no media bytes, wrote %d", header, n)
		}
		if err == nil {
			t.Fatalf("Range %q: expected classification error", header)
		}
		if got := rr.Header().Get("Content-Range"); got != "bytes */4096" {
			t.Fatalf("Range %q: unexpected Content-Range %q", header, got)
		}
	}
}

func TestServeHeadWritesHeadersOnly(t *testing.T) {
	src, _ := writeTestMedia(t, 4096)

	rr, n, err := serve(t, src, http.MethodHead, "bytes=0-99")
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if rr.Code != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", rr.Code)
	}
	if n != 0 || rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, wrote %d bytes", n)
	}
	if got := rr.Header().Get("Content-Length"); got != "100" {
		t.Fatalf("unexpected Content-Length: %s", got)
	}
}

func TestServeMissingFile(t *testing.T) {
	src := Source{Path: filepath.Join(t.TempDir(), "gone.mp4"), Size: 100, ContentType: "video/mp4"}

	rr, _, err := serve(t, src, http.MethodGet, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if !errors.Is(err, ErrMediaMissing) {
		t.Fatalf("expected ErrMediaMissing, got %v", err)
	}
}

func TestServeTruncatedFileReported(t *testing.T) {
	src, _ := writeTestMedia(t, 1024)
	src.Size = 2048 // catalog thinks the file is bigger than it is

	_, n, err := serve(t, src, http.MethodGet, "")
	if err == nil {
		t.Fatal("expected error for truncated media")
	}
	if n != 1024 {
		t.Fatalf("expected 1024 bytes before failure, got %d", n)
	}
}

func TestConcurrentRangeReadsDoNotInterfere(t *testing.T) {
	src, content := writeTestMedia(t, 1<<20)

	windows := []string{
		"bytes=0-65535",
		"bytes=65536-131071",
		"bytes=131072-262143",
		"bytes=262144-",
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(windows))
	for _, win := range windows {
		wg.Add(1)
		go func(header string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/stream/token", nil)
			req.Header.Set("Range", header)
			rr := httptest.NewRecorder()
			if _, err := NewStreamer().Serve(rr, req, src); err != nil {
				errs <- err
				return
			}
			br, err := ParseRange(header, src.Size)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(rr.Body.Bytes(), content[br.Start:br.End+1]) {
				errs <- errors.New("window " + header + " returned wrong bytes")
			}
		}(win)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
