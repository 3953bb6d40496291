package readio

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/read"
	"github.com/kbukum/readflow/testutil"
)

const input = `{"id":"A","sequence":"ACGT","qualities":"++++","raw_signal":[1.5,2,3],"moves":[1,0,1],"split_count":2,"subread_id":0}
{"id":"B","sequence":"GG","tag":"t1"}

{"id":"C","is_duplex":true,"subread_id":3}
`

func readAll(t *testing.T, r *Reader) []*read.Read {
	t.Helper()
	var out []*read.Read
	for {
		rd, ok, err := r.Next(context.Background())
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, rd)
	}
}

func TestReaderDecodesRecords(t *testing.T) {
	r := NewReader(strings.NewReader(input), "test")
	reads := readAll(t, r)
	if len(reads) != 3 || r.Count() != 3 {
		t.Fatalf("expected 3 reads, got %d", len(reads))
	}

	a := reads[0]
	if a.ID != "A" || a.Sequence != "ACGT" || a.SplitCount != 2 {
		t.Errorf("unexpected read %+v", a)
	}
	if len(a.Moves) != 3 || a.Moves[0] != 1 || a.Moves[1] != 0 {
		t.Errorf("moves not decoded: %v", a.Moves)
	}
	if len(a.RawSignal) != 3 || a.RawSignal[0] != 1.5 {
		t.Errorf("signal not decoded: %v", a.RawSignal)
	}
	if reads[1].Tag != "t1" || !reads[2].IsDuplex || reads[2].SubreadID != 3 {
		t.Errorf("unexpected reads %+v %+v", reads[1], reads[2])
	}
}

func TestReaderErrors(t *testing.T) {
	r := NewReader(strings.NewReader(`{"id":"A"}`+"\n"+`{"id":`), "bad.jsonl")
	if _, ok, err := r.Next(context.Background()); !ok || err != nil {
		t.Fatalf("first record should decode: %v", err)
	}
	if _, _, err := r.Next(context.Background()); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}

	r = NewReader(strings.NewReader(`{"sequence":"ACGT"}`), "noid.jsonl")
	if _, _, err := r.Next(context.Background()); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for a missing id, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewReader(strings.NewReader(input), "x").Next(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if _, err := Open("/nonexistent/reads.jsonl"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	src := &read.Read{ID: "A;B", IsDuplex: true, Moves: []uint8{1, 0, 1}, RawSignal: []float32{4}, Stereo: read.NewFeatures(2, 1)}

	if err := w.Process(context.Background(), src, nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Drain(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"moves":[1,0,1]`) {
		t.Errorf("moves should be numeric, got %s", buf.String())
	}

	back := readAll(t, NewReader(&buf, "roundtrip"))
	if len(back) != 1 || back[0].ID != "A;B" || !back[0].IsDuplex || back[0].Stereo.Rows != 2 {
		t.Errorf("unexpected round trip %+v", back)
	}
	if c := w.Counters(); c["written"] != 1 || c["duplex"] != 1 {
		t.Errorf("unexpected counters %v", c)
	}
}

func TestWriterOmitsSignalByDefault(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)
	_ = w.Process(context.Background(), &read.Read{ID: "A", Moves: []uint8{1}, RawSignal: []float32{1}}, nil)
	_ = w.Close()

	out := buf.String()
	if strings.Contains(out, "raw_signal") || strings.Contains(out, "moves") {
		t.Errorf("signal should be omitted, got %s", out)
	}
	if !strings.Contains(out, `"id":"A"`) {
		t.Errorf("missing id in %s", out)
	}
}

func TestWriterRejectsNonReads(t *testing.T) {
	w := NewWriter(&bytes.Buffer{}, false)
	if err := w.Process(context.Background(), 42, nil); !errors.HasCode(err, errors.ErrCodeUnexpectedMessage) {
		t.Errorf("expected UNEXPECTED_MESSAGE, got %v", err)
	}
}

func TestIngestPreparesReads(t *testing.T) {
	pairs, err := read.NewPairTable(map[string]string{"A": "B", "D": "E"})
	if err != nil {
		t.Fatal(err)
	}
	ingest := NewIngest(pairs, true)
	h := testutil.NewHarness(t, IngestNodeName, ingest, 2)

	h.Push(
		&read.Read{ID: "A"},
		&read.Read{ID: "B"},
		&read.Read{ID: "C", Tag: "family"},
		&read.Read{ID: "D", NumDuplexCandidatePairs: 2},
	)
	if err := h.Stop(); err != nil {
		t.Fatal(err)
	}

	a, b, c, d := h.Out.ByID("A"), h.Out.ByID("B"), h.Out.ByID("C"), h.Out.ByID("D")
	if a.Tag != "A" || !a.IsDuplexParent || a.NumDuplexCandidatePairs != 1 {
		t.Errorf("unexpected template %+v", a)
	}
	if !b.IsDuplexParent || b.NumDuplexCandidatePairs != 0 {
		t.Errorf("complement should be a parent candidate expecting no duplex read: %+v", b)
	}
	if c.Tag != "family" || c.IsDuplexParent {
		t.Errorf("unexpected C %+v", c)
	}
	if d.NumDuplexCandidatePairs != 2 {
		t.Errorf("explicit candidate count overwritten: %+v", d)
	}
	if cnt := ingest.Counters(); cnt["ingested"] != 4 || cnt["candidates"] != 3 {
		t.Errorf("unexpected counters %v", cnt)
	}
}

func TestIngestExplicitCandidates(t *testing.T) {
	pairs, _ := read.NewPairTable(map[string]string{"A": "B"})
	h := testutil.NewHarness(t, IngestNodeName, NewIngest(pairs, false), 1)
	h.Push(&read.Read{ID: "A"})
	_ = h.Stop()

	if a := h.Out.ByID("A"); !a.IsDuplexParent || a.NumDuplexCandidatePairs != 0 {
		t.Errorf("count should not be derived: %+v", a)
	}
}

func TestPairedOnly(t *testing.T) {
	pairs, _ := read.NewPairTable(map[string]string{"A": "C"})
	it := PairedOnly(NewReader(strings.NewReader(input), "test"), pairs)

	var ids []string
	for {
		r, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		ids = append(ids, r.ID)
	}
	if len(ids) != 2 || ids[0] != "A" || ids[1] != "C" {
		t.Errorf("expected [A C], got %v", ids)
	}
}
