package readio

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	json "github.com/goccy/go-json"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/read"
)

// WriterNodeName is the node name Writer reports in its errors.
const WriterNodeName = "writer"

// Writer is a terminal node body that encodes every read it receives as one
// JSON line. Writes are serialized, so any number of workers may share it.
type Writer struct {
	withSignal bool

	mu  sync.Mutex
	buf *bufio.Writer
	enc *json.Encoder
	dst io.Writer

	written atomic.Int64
	duplex  atomic.Int64
}

// NewWriter writes to w. Raw signal, moves and stereo blocks are left out
// unless withSignal is set.
func NewWriter(w io.Writer, withSignal bool) *Writer {
	buf := bufio.NewWriterSize(w, 1<<20)
	return &Writer{withSignal: withSignal, buf: buf, enc: json.NewEncoder(buf), dst: w}
}

// Create opens path for writing, or standard output for "-".
func Create(path string, withSignal bool) (*Writer, error) {
	if path == "-" || path == "" {
		return NewWriter(os.Stdout, withSignal), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.InvalidConfig("output", "cannot create "+path).WithCause(err)
	}
	return NewWriter(f, withSignal), nil
}

// Process implements pipeline.Worker.
func (w *Writer) Process(_ context.Context, msg pipeline.Message, _ pipeline.Emitter) error {
	r, ok := msg.(*read.Read)
	if !ok {
		return errors.UnexpectedMessage(WriterNodeName, msg)
	}

	w.mu.Lock()
	err := w.enc.Encode(fromRead(r, w.withSignal))
	w.mu.Unlock()
	if err != nil {
		return errors.Internal(err).WithDetail("read_id", r.ID)
	}

	w.written.Add(1)
	if r.IsDuplex {
		w.duplex.Add(1)
	}
	return nil
}

// Drain implements pipeline.Drainer by flushing buffered output.
func (w *Writer) Drain(_ context.Context, _ pipeline.Emitter) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// Close flushes and closes the destination when it is a file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if f, ok := w.dst.(*os.File); ok && f != os.Stdout {
		return f.Close()
	}
	return nil
}

// Reset implements pipeline.Resetter.
func (w *Writer) Reset() {
	w.written.Store(0)
	w.duplex.Store(0)
}

// Counters implements pipeline.CounterReporter.
func (w *Writer) Counters() map[string]int64 {
	return map[string]int64{
		"written": w.written.Load(),
		"duplex":  w.duplex.Load(),
	}
}
