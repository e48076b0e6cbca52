package store

import (
	"strings"
	"testing"
	"time"

	"github.com/chazu/prism/runtime"
	"github.com/chazu/prism/visitor"
)

// ---------------------------------------------------------------------------
// Record codec tests
// ---------------------------------------------------------------------------

func sampleRecord(t *testing.T) visitor.Record {
	t.Helper()

	reg := runtime.NewRegistry()
	w := visitor.NewWalker(reg, &runtime.Lock{}, nil)
	tup := reg.NewTuple(reg.NewInt(1), reg.NewString("a"))
	rec := w.RecordWalk(runtime.ObjectEntity(tup))
	if len(rec) == 0 {
		t.Fatal("sample walk produced no events")
	}
	return rec
}

func TestRecordCodecRoundTrip(t *testing.T) {
	rec := sampleRecord(t)

	data, err := EncodeRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	blobs, err := DecodeRecord(data)
	if err != nil {
		t.Fatal(err)
	}

	if len(blobs) != len(rec) {
		t.Fatalf("decoded %d events, want %d", len(blobs), len(rec))
	}
	for i, b := range blobs {
		if b.String() != rec[i].String() {
			t.Errorf("event %d: decoded %q, live %q", i, b.String(), rec[i].String())
		}
	}
}

func TestRecordCodecCanonical(t *testing.T) {
	rec := sampleRecord(t)

	d1, err := EncodeRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := EncodeRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	if string(d1) != string(d2) {
		t.Error("identical records must serialize to identical bytes")
	}
}

func TestRecordCodecEmpty(t *testing.T) {
	data, err := EncodeRecord(nil)
	if err != nil {
		t.Fatal(err)
	}
	blobs, err := DecodeRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(blobs) != 0 {
		t.Errorf("empty record decoded to %d events", len(blobs))
	}
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	if _, err := DecodeRecord([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Error("garbage blob must not decode")
	}
}

func TestEventBlobString(t *testing.T) {
	var d visitor.Digest
	d[0] = 0xab

	tests := []struct {
		blob EventBlob
		want string
	}{
		{EventBlob{Kind: uint8(visitor.EventHash), Hash: d[:]}, "Hash(" + visitor.DigestHex(d)[:16] + ")"},
		{EventBlob{Kind: uint8(visitor.EventName), Name: "json|loads"}, "Name(json|loads)"},
		{EventBlob{Kind: uint8(visitor.EventRef), Label: "class acme.C"}, "Ref(class acme.C)"},
		{EventBlob{Kind: uint8(visitor.EventNamedRef), Name: "x", Label: "int 3"}, "NamedRef(x=int 3)"},
		{EventBlob{Kind: uint8(visitor.EventErr), Err: "dict getitem empty"}, "Err(dict getitem empty)"},
	}
	for _, tt := range tests {
		if got := tt.blob.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Index tests
// ---------------------------------------------------------------------------

func mkRow(b byte, session string) *Row {
	var d visitor.Digest
	d[0] = b
	return &Row{
		Digest:    d,
		Label:     "row " + string('a'+rune(b)),
		SessionID: session,
		CreatedAt: time.Now(),
	}
}

func TestIndexPutGet(t *testing.T) {
	ix := NewIndex()
	row := mkRow(1, "s1")
	ix.Put(row)

	got, err := ix.Get(row.Digest)
	if err != nil {
		t.Fatal(err)
	}
	if got != row {
		t.Error("Get returned a different row")
	}
	if !ix.Has(row.Digest) {
		t.Error("Has must see the stored digest")
	}
}

func TestIndexGetMissing(t *testing.T) {
	ix := NewIndex()
	var d visitor.Digest
	if _, err := ix.Get(d); err != ErrNotFound {
		t.Errorf("Get on empty index: err = %v, want ErrNotFound", err)
	}
	if ix.Has(d) {
		t.Error("Has must be false on an empty index")
	}
}

func TestIndexPutReplaces(t *testing.T) {
	ix := NewIndex()
	old := mkRow(1, "s1")
	ix.Put(old)
	upd := mkRow(1, "s2")
	ix.Put(upd)

	got, err := ix.Get(old.Digest)
	if err != nil {
		t.Fatal(err)
	}
	if got != upd {
		t.Error("Put with same digest must replace")
	}
	if len(ix.List()) != 1 {
		t.Error("replacement must not grow the index")
	}
}

func TestIndexListOrdered(t *testing.T) {
	ix := NewIndex()
	for _, b := range []byte{7, 2, 5, 1} {
		ix.Put(mkRow(b, "s1"))
	}

	rows := ix.List()
	if len(rows) != 4 {
		t.Fatalf("List returned %d rows, want 4", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		a := visitor.DigestHex(rows[i-1].Digest)
		b := visitor.DigestHex(rows[i].Digest)
		if strings.Compare(a, b) >= 0 {
			t.Errorf("rows out of order: %s before %s", a, b)
		}
	}
}

func TestNewSessionID(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == "" || b == "" {
		t.Fatal("session ids must be non-empty")
	}
	if a == b {
		t.Error("session ids must be unique per mint")
	}
}

func TestIndexDeleteSession(t *testing.T) {
	ix := NewIndex()
	s1 := NewSessionID()
	s2 := NewSessionID()
	ix.Put(mkRow(1, s1))
	ix.Put(mkRow(2, s1))
	ix.Put(mkRow(3, s2))

	if n := ix.DeleteSession(s1); n != 2 {
		t.Errorf("DeleteSession removed %d rows, want 2", n)
	}
	if len(ix.List()) != 1 {
		t.Error("rows from other sessions must survive")
	}
	if n := ix.DeleteSession(NewSessionID()); n != 0 {
		t.Errorf("DeleteSession on unknown id removed %d rows", n)
	}
}
