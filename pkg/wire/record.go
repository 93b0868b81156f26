package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"dronesim/pkg/sim"
)

// Sample is one drone's state at one tick.
type Sample struct {
	ID       string       `msgpack:"id"`
	Index    int          `msgpack:"i"`
	Phase    string       `msgpack:"ph"`
	Stage    string       `msgpack:"st"`
	Snapshot sim.Snapshot `msgpack:"s"`
	Controls sim.Controls `msgpack:"c"`
}

// Record is one entry of a recording.
type Record struct {
	Tick    uint64   `msgpack:"tick"`
	Elapsed float64  `msgpack:"t"`
	Samples []Sample `msgpack:"d"`
}

// Recorder appends records to a msgpack stream.
type Recorder struct {
	w   *bufio.Writer
	c   io.Closer
	enc *msgpack.Encoder
	n   int
}

// NewRecorder writes to w.
func NewRecorder(w io.Writer) *Recorder {
	bw := bufio.NewWriter(w)
	r := &Recorder{w: bw, enc: msgpack.NewEncoder(bw)}
	if c, ok := w.(io.Closer); ok {
		r.c = c
	}
	return r
}

// CreateRecorder creates or truncates the file at path.
func CreateRecorder(path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create recording directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}
	return NewRecorder(f), nil
}

// Write appends one record.
func (r *Recorder) Write(rec *Record) error {
	if err := r.enc.Encode(rec); err != nil {
		return fmt.Errorf("record tick %d: %w", rec.Tick, err)
	}
	r.n++
	return nil
}

// Count is the number of records written.
func (r *Recorder) Count() int { return r.n }

// Close flushes and closes the underlying writer.
func (r *Recorder) Close() error {
	err := r.w.Flush()
	if r.c != nil {
		if cerr := r.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Reader decodes a recording record by record.
type Reader struct {
	dec *msgpack.Decoder
}

// NewReader reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: msgpack.NewDecoder(bufio.NewReader(r))}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next() (*Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

// DroneSummary aggregates one drone over a recording.
type DroneSummary struct {
	ID        string
	Index     int
	Samples   int
	MaxHeight float64
	Distance  float64 // planar path length
	LastPhase string
	LastStage string
	Last      sim.Snapshot
}

// Summary aggregates a recording.
type Summary struct {
	Records int
	Elapsed float64
	Drones  []DroneSummary
}

// Summarize reads a whole recording.
func Summarize(r io.Reader) (*Summary, error) {
	rd := NewReader(r)
	byID := make(map[string]*DroneSummary)
	sum := &Summary{}
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		sum.Records++
		sum.Elapsed = rec.Elapsed
		for _, s := range rec.Samples {
			d, ok := byID[s.ID]
			if !ok {
				d = &DroneSummary{ID: s.ID, Index: s.Index, MaxHeight: s.Snapshot.Y, Last: s.Snapshot}
				byID[s.ID] = d
			}
			d.Samples++
			d.Distance += distance(d.Last, s.Snapshot)
			if s.Snapshot.Y > d.MaxHeight {
				d.MaxHeight = s.Snapshot.Y
			}
			d.LastPhase = s.Phase
			d.LastStage = s.Stage
			d.Last = s.Snapshot
		}
	}
	for _, d := range byID {
		sum.Drones = append(sum.Drones, *d)
	}
	sort.Slice(sum.Drones, func(i, j int) bool { return sum.Drones[i].Index < sum.Drones[j].Index })
	return sum, nil
}

func distance(a, b sim.Snapshot) float64 {
	return math.Hypot(b.X-a.X, b.Z-a.Z)
}
