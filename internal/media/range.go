package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrRangeInvalid = errors.New("media: invalid range")
	ErrRangeMulti   = errors.New("media: multi-range not supported")
)

// ByteRange represents a byte window [Start, End] (inclusive).
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes in the window.
func (r ByteRange) Length() int64 { return r.End - r.Start + 1 }

// ParseRange parses a "Range" header against a resource of the given size.
// Only the single form "bytes=<start>-[<end>]" is accepted, which is what
// browser video elements send. Multi-range is strictly rejected, as are
// suffix ranges ("bytes=-500"): the start offset is required. A start at
// or past EOF or start > end is unsatisfiable; an end past EOF is clamped
// to size-1.
func ParseRange(header string, size int64) (ByteRange, error) {
	if header == "" || size <= 0 {
		return ByteRange{}, ErrRangeInvalid
	}

	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return ByteRange{}, ErrRangeInvalid
	}

	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		return ByteRange{}, ErrRangeMulti
	}

	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return ByteRange{}, ErrRangeInvalid
	}

	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])
	if startStr == "" {
		return ByteRange{}, ErrRangeInvalid
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return ByteRange{}, ErrRangeInvalid
	}
	if start >= size {
		return ByteRange{}, ErrRangeInvalid
	}

	r := ByteRange{Start: start, End: size - 1}
	if endStr != "" {
		end, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < 0 {
			return ByteRange{}, ErrRangeInvalid
		}
		if end < start {
			return ByteRange{}, ErrRangeInvalid
		}
		if end < size {
			r.End = end
		}
	}
	return r, nil
}

// FormatContentRange formats the Content-Range header for a 206 response.
func FormatContentRange(r ByteRange, size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// FormatUnsatisfiableRange formats the Content-Range header for a 416
// response.
func FormatUnsatisfiableRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}
