package readio

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/read"
)

// Reader streams reads from JSON Lines input.
type Reader struct {
	dec    *json.Decoder
	closer io.Closer
	source string
	count  int
}

var _ pipeline.Iterator[*read.Read] = (*Reader)(nil)

// NewReader decodes reads from r. source names r in errors.
func NewReader(r io.Reader, source string) *Reader {
	rd := &Reader{dec: json.NewDecoder(bufio.NewReaderSize(r, 1<<20)), source: source}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd
}

// Open opens a JSON Lines file, or standard input for "-".
func Open(path string) (*Reader, error) {
	if path == "-" || path == "" {
		return NewReader(io.NopCloser(os.Stdin), "stdin"), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NotFound("reads file", path).WithCause(err)
	}
	return NewReader(f, path), nil
}

// Next implements pipeline.Iterator.
func (r *Reader) Next(ctx context.Context) (*read.Read, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var rec record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return nil, false, nil
		}
		return nil, false, errors.InvalidInput(r.source, "record "+strconv.Itoa(r.count+1)+" is not valid JSON").WithCause(err)
	}
	r.count++
	if rec.ID == "" {
		return nil, false, errors.InvalidInput(r.source, "record "+strconv.Itoa(r.count)+" has no id")
	}
	return rec.toRead(), true, nil
}

// Count returns the number of reads decoded so far.
func (r *Reader) Count() int { return r.count }

// Close implements pipeline.Iterator.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
