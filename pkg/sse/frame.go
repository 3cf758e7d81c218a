package sse

import (
	"strconv"
	"strings"
)

// frameBuilder accumulates the fields of the event currently being
// assembled. It is reset after every blank line.
type frameBuilder struct {
	data    []string
	typ     string
	id      string
	retry   *uint64
	hasData bool

	// droppedRetry records the last malformed retry value for logging.
	droppedRetry string
}

// accept processes one complete line. It returns the finished event and true
// when the line is a blank terminator closing a frame that carried data.
func (f *frameBuilder) accept(line string) (Event, bool) {
	if line == "" {
		if !f.hasData {
			// Keep-alive blank line or a frame without data.
			f.reset()
			return Event{}, false
		}
		ev := f.emit()
		f.reset()
		return ev, true
	}

	field, value, ok := strings.Cut(line, ":")
	if !ok || field == "" {
		// Lines without a colon and ":" comments carry no field we use.
		return Event{}, false
	}
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "data":
		f.data = append(f.data, strings.TrimSuffix(value, "\n"))
		f.hasData = true
	case "event":
		f.typ = value
	case "id":
		f.id = value
	case "retry":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			f.droppedRetry = value
			return Event{}, false
		}
		f.retry = &n
	default:
		// Unknown fields are ignored.
	}

	return Event{}, false
}

// emit converts the accumulated fields into an Event.
func (f *frameBuilder) emit() Event {
	return Event{
		Data:  strings.Join(f.data, "\n"),
		Type:  f.typ,
		ID:    f.id,
		Retry: f.retry,
	}
}

// open reports whether any field has been accumulated since the last
// terminator.
func (f *frameBuilder) open() bool {
	return f.hasData || f.typ != "" || f.id != "" || f.retry != nil
}

func (f *frameBuilder) reset() {
	f.data = nil
	f.typ = ""
	f.id = ""
	f.retry = nil
	f.hasData = false
}
