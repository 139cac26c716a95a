// Package replay persists committed tick payloads as zstd-compressed JSONL
// and reads them back with strict schema-version checking.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/hamlet-sim/hamlet-sim/sim"
)

// SchemaVersion is bumped whenever the record layout changes. Readers refuse
// mismatched logs rather than guessing.
const SchemaVersion = 1

// RunLogName is the log file created inside each run directory.
const RunLogName = "run.jsonl.zst"

// ErrSchemaMismatch is returned when a log's schema version differs from the
// reader's.
var ErrSchemaMismatch = errors.New("replay schema version mismatch")

const (
	recordHeader = "header"
	recordTick   = "tick"
)

// tickState is the serialized portion of a payload.
type tickState struct {
	Tick    int64                       `json:"tick"`
	State   *sim.CanonicalState         `json:"state"`
	Beliefs map[string]*sim.BeliefState `json:"beliefs"`
	Events  []sim.EventEnvelope         `json:"events"`
}

type record struct {
	Type          string         `json:"type"`
	SchemaVersion int            `json:"schema_version"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Payload       *tickState     `json:"payload,omitempty"`
}

// Writer appends header and tick records to a compressed run log. It
// implements sim.Sink; write errors are remembered and surfaced on Close so
// a slow or broken disk never interrupts the scheduler mid-tick.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	err error
}

// CreateRunDir makes a timestamped run directory under baseDir and opens a
// Writer for it.
func CreateRunDir(baseDir string) (*Writer, string, error) {
	runDir := filepath.Join(baseDir, time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create run dir: %w", err)
	}
	w, err := NewWriter(filepath.Join(runDir, RunLogName))
	if err != nil {
		return nil, "", err
	}
	return w, runDir, nil
}

// NewWriter opens a log file for appending records.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create replay log: %w", err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open zstd encoder: %w", err)
	}
	return &Writer{f: f, enc: enc, w: bufio.NewWriter(enc)}, nil
}

// WriteHeader records run metadata as the first log line.
func (w *Writer) WriteHeader(metadata map[string]any) error {
	return w.append(record{Type: recordHeader, SchemaVersion: SchemaVersion, Metadata: metadata})
}

// WriteTick appends one committed payload.
func (w *Writer) WriteTick(p *sim.TickPayload) error {
	events, err := sim.EncodeEvents(p.Events)
	if err != nil {
		return err
	}
	return w.append(record{
		Type:          recordTick,
		SchemaVersion: SchemaVersion,
		Payload: &tickState{
			Tick:    p.Tick,
			State:   p.State,
			Beliefs: p.Beliefs,
			Events:  events,
		},
	})
}

// OnTick implements sim.Sink. Errors are deferred to Close.
func (w *Writer) OnTick(p *sim.TickPayload) {
	w.mu.Lock()
	already := w.err
	w.mu.Unlock()
	if already != nil {
		return
	}
	if err := w.WriteTick(p); err != nil {
		w.mu.Lock()
		w.err = err
		w.mu.Unlock()
	}
}

func (w *Writer) append(rec record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal replay record: %w", err)
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes and closes the log, returning any deferred write error.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil && w.err == nil {
		w.err = err
	}
	if err := w.enc.Close(); err != nil && w.err == nil {
		w.err = err
	}
	if err := w.f.Close(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}

// Tick is one decoded tick record.
type Tick struct {
	Tick    int64
	State   *sim.CanonicalState
	Beliefs map[string]*sim.BeliefState
	Events  []sim.Event
}

// Reader iterates a run log.
type Reader struct {
	f       *os.File
	dec     *zstd.Decoder
	scanner *bufio.Scanner
	header  map[string]any
}

// Open opens a log and consumes its header, enforcing the schema version.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay log: %w", err)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open zstd decoder: %w", err)
	}
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 1<<20), 64<<20)
	r := &Reader{f: f, dec: dec, scanner: scanner}

	first, err := r.nextRecord()
	if err != nil {
		r.Close()
		return nil, err
	}
	if first.Type != recordHeader {
		r.Close()
		return nil, fmt.Errorf("replay log does not start with a header record")
	}
	r.header = first.Metadata
	return r, nil
}

// Header returns the run metadata.
func (r *Reader) Header() map[string]any { return r.header }

// Next returns the next tick record, or io.EOF when the log ends.
func (r *Reader) Next() (*Tick, error) {
	rec, err := r.nextRecord()
	if err != nil {
		return nil, err
	}
	if rec.Type != recordTick || rec.Payload == nil {
		return nil, fmt.Errorf("unexpected %q record in replay log", rec.Type)
	}
	events := make([]sim.Event, 0, len(rec.Payload.Events))
	for _, env := range rec.Payload.Events {
		ev, err := sim.DecodeEvent(env)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return &Tick{
		Tick:    rec.Payload.Tick,
		State:   rec.Payload.State,
		Beliefs: rec.Payload.Beliefs,
		Events:  events,
	}, nil
}

func (r *Reader) nextRecord() (*record, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	var rec record
	if err := json.Unmarshal(r.scanner.Bytes(), &rec); err != nil {
		return nil, fmt.Errorf("decode replay record: %w", err)
	}
	if rec.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: log has v%d, reader expects v%d", ErrSchemaMismatch, rec.SchemaVersion, SchemaVersion)
	}
	return &rec, nil
}

// Close releases the underlying file and decoder.
func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}
