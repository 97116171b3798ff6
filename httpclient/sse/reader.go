// Package sse reads Server-Sent Events from an HTTP response body.
package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// DefaultMaxLineSize bounds a single line of the stream.
const DefaultMaxLineSize = 1 << 20

// Event is a single dispatched server-sent event.
type Event struct {
	// Event is the event type. Empty for unnamed events, which browsers
	// deliver to onmessage.
	Event string
	// Data is the payload; multiple data lines are joined with "\n".
	Data string
	// ID is the last event ID seen on the stream.
	ID string
	// Retry is the reconnection delay in milliseconds, 0 if not sent.
	Retry int
}

// Reader reads server-sent events from a stream.
type Reader interface {
	// Next returns the next event. Returns io.EOF when the stream ends.
	Next() (*Event, error)
	// Close releases the underlying stream.
	Close() error
}

// Option configures a Reader.
type Option func(*reader)

// WithMaxLineSize overrides DefaultMaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(r *reader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// WithCommentHandler is called for every comment line (keep-alives).
func WithCommentHandler(fn func(text string)) Option {
	return func(r *reader) { r.onComment = fn }
}

type reader struct {
	scanner   *bufio.Scanner
	body      io.ReadCloser
	maxLine   int
	lastID    string
	onComment func(string)
}

// NewReader creates an event reader over body.
func NewReader(body io.ReadCloser, opts ...Option) Reader {
	r := &reader{body: body, maxLine: DefaultMaxLineSize}
	for _, opt := range opts {
		opt(r)
	}
	r.scanner = bufio.NewScanner(body)
	r.scanner.Buffer(make([]byte, 0, 4096), r.maxLine)
	return r
}

// Next returns the next event. Events with no data lines are not
// dispatched, matching browser behavior.
func (r *reader) Next() (*Event, error) {
	var (
		event   Event
		data    []string
		hasData bool
	)

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if line == "" {
			if hasData {
				event.Data = strings.Join(data, "\n")
				event.ID = r.lastID
				return &event, nil
			}
			event = Event{}
			continue
		}

		if strings.HasPrefix(line, ":") {
			if r.onComment != nil {
				r.onComment(strings.TrimSpace(line[1:]))
			}
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			event.Event = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				event.Retry = ms
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	// A frame cut off by EOF without its blank line is discarded.
	return nil, io.EOF
}

// Close releases the underlying stream.
func (r *reader) Close() error {
	return r.body.Close()
}

// parseLine splits "field: value"; a single space after the colon is
// dropped. A line without a colon is a field with an empty value.
func parseLine(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = strings.TrimPrefix(line[idx+1:], " ")
	return field, value
}
