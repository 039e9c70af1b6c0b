package types

import (
	"errors"
	"fmt"
)

// Layer names the protocol layer a record belongs to
type Layer uint8

const (
	LayerPhysical Layer = iota
	LayerLink
	LayerTransport
	LayerSession
	LayerApplication
	LayerForwarded
)

// String returns string representation of Layer
func (l Layer) String() string {
	switch l {
	case LayerPhysical:
		return "physical"
	case LayerLink:
		return "link"
	case LayerTransport:
		return "transport"
	case LayerSession:
		return "session"
	case LayerApplication:
		return "application"
	case LayerForwarded:
		return "forwarded"
	default:
		return "unknown"
	}
}

// MarshalText renders the layer name in JSON output
func (l Layer) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// RecordKind classifies a record
type RecordKind uint8

const (
	RecordField    RecordKind = iota // A decoded element
	RecordEvent                      // A protocol message or state transition
	RecordAdvisory                   // Non-fatal problem, decoding continued
	RecordError                      // Fatal problem, decoding of the frame or message stopped
)

// String returns string representation of RecordKind
func (k RecordKind) String() string {
	switch k {
	case RecordField:
		return "field"
	case RecordEvent:
		return "event"
	case RecordAdvisory:
		return "advisory"
	case RecordError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind name in JSON output
func (k RecordKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Source buffers that record offsets refer to
const (
	SourceFrame     = "frame"
	SourceLink      = "link-reassembled"
	SourceTransport = "transport-reassembled"
	SourceSAC       = "sac-decrypted"
	SourceForwarded = "forwarded-payload"
)

// Record is one element of the decoded output stream. Offset and Length are
// relative to the buffer named by Source.
type Record struct {
	Frame   uint64      `json:"frame"`
	Layer   Layer       `json:"layer"`
	Kind    RecordKind  `json:"kind"`
	Name    string      `json:"name"`
	Value   interface{} `json:"value,omitempty"`
	Source  string      `json:"source"`
	Offset  int         `json:"offset"`
	Length  int         `json:"length"`
	Message string      `json:"message,omitempty"`
	Err     error       `json:"-"`
}

// String returns a string representation of the record
func (r Record) String() string {
	s := fmt.Sprintf("#%d %s %s %s", r.Frame, r.Layer, r.Kind, r.Name)
	if r.Value != nil {
		s += fmt.Sprintf("=%v", r.Value)
	}
	if r.Message != "" {
		s += " (" + r.Message + ")"
	}
	return s
}

// Recorder collects the records produced while decoding one frame. Views
// returned by At and From share the same underlying record list.
type Recorder struct {
	frame   uint64
	layer   Layer
	source  string
	records *[]Record
}

// NewRecorder creates an empty recorder for a frame
func NewRecorder(frame uint64) *Recorder {
	return &Recorder{
		frame:   frame,
		source:  SourceFrame,
		records: &[]Record{},
	}
}

// At returns a view that tags records with layer
func (r *Recorder) At(layer Layer) *Recorder {
	v := *r
	v.layer = layer
	return &v
}

// From returns a view whose offsets refer to the named source buffer
func (r *Recorder) From(source string) *Recorder {
	v := *r
	v.source = source
	return &v
}

// Frame returns the frame sequence number
func (r *Recorder) Frame() uint64 {
	return r.frame
}

// Layer returns the layer of this view
func (r *Recorder) Layer() Layer {
	return r.layer
}

func (r *Recorder) add(kind RecordKind, name string, off, length int, value interface{}, err error, msg string) {
	*r.records = append(*r.records, Record{
		Frame:   r.frame,
		Layer:   r.layer,
		Kind:    kind,
		Name:    name,
		Value:   value,
		Source:  r.source,
		Offset:  off,
		Length:  length,
		Message: msg,
		Err:     err,
	})
}

// Field records a decoded element
func (r *Recorder) Field(name string, off, length int, value interface{}) {
	r.add(RecordField, name, off, length, value, nil, "")
}

// Event records a protocol message or state transition
func (r *Recorder) Event(name string, off, length int, value interface{}) {
	r.add(RecordEvent, name, off, length, value, nil, "")
}

// Advise records a non-fatal problem
func (r *Recorder) Advise(err error, off, length int, format string, args ...interface{}) {
	r.add(RecordAdvisory, errName(err), off, length, nil, err, fmt.Sprintf(format, args...))
}

// Fail records a fatal problem and returns it wrapped with the message
func (r *Recorder) Fail(err error, off, length int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	r.add(RecordError, errName(err), off, length, nil, err, msg)
	return fmt.Errorf("%w. %s", err, msg)
}

// Records returns every record collected so far
func (r *Recorder) Records() []Record {
	return *r.records
}

// Len returns the number of records
func (r *Recorder) Len() int {
	return len(*r.records)
}

// Count returns the number of records of the given kind
func (r *Recorder) Count(kind RecordKind) int {
	n := 0
	for _, rec := range *r.records {
		if rec.Kind == kind {
			n++
		}
	}
	return n
}

// Has reports whether any advisory or error record matches target
func (r *Recorder) Has(target error) bool {
	for _, rec := range *r.records {
		if rec.Err != nil && errors.Is(rec.Err, target) {
			return true
		}
	}
	return false
}

// Find returns the first record with the given kind and name
func (r *Recorder) Find(kind RecordKind, name string) (Record, bool) {
	for _, rec := range *r.records {
		if rec.Kind == kind && rec.Name == name {
			return rec, true
		}
	}
	return Record{}, false
}

func errName(err error) string {
	if err == nil {
		return "error"
	}
	return err.Error()
}
