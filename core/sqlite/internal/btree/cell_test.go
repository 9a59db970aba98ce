package btree

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/dbtest"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/reader"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
)

func TestParseTableLeafCell(t *testing.T) {
	data := dbtest.TableLeafCell(1, dbtest.Record(record.Text("hello"), record.Integer(42)))
	data = append(data, 0xde, 0xad) // bytes of a neighbouring cell

	cell, err := ParseTableLeafCell(data, 4096, nil)
	if err != nil {
		t.Fatalf("ParseTableLeafCell() error = %v", err)
	}
	if cell.RowID != 1 {
		t.Errorf("RowID = %d, want 1", cell.RowID)
	}
	want := []record.Value{record.Text("hello"), record.Integer(42)}
	if len(cell.Values) != len(want) {
		t.Fatalf("Values = %v, want %v", cell.Values, want)
	}
	for i := range want {
		if !cell.Values[i].Equal(want[i]) {
			t.Errorf("Values[%d] = %v, want %v", i, cell.Values[i], want[i])
		}
	}
	if cell.OverflowPage != 0 {
		t.Errorf("OverflowPage = %d, want 0", cell.OverflowPage)
	}
}

func TestParseTableInteriorCell(t *testing.T) {
	cell, err := ParseTableInteriorCell(dbtest.TableInteriorCell(77, 1<<40))
	if err != nil {
		t.Fatalf("ParseTableInteriorCell() error = %v", err)
	}
	if cell.LeftChild != 77 || cell.RowID != 1<<40 {
		t.Errorf("cell = %+v", cell)
	}
}

func TestParseIndexLeafCell(t *testing.T) {
	payload := dbtest.Record(record.Text("pear"), record.Integer(3), record.Integer(19))
	cell, err := ParseIndexLeafCell(dbtest.IndexLeafCell(payload), 4096, nil)
	if err != nil {
		t.Fatalf("ParseIndexLeafCell() error = %v", err)
	}
	if cell.RowID != 19 {
		t.Errorf("RowID = %d, want 19", cell.RowID)
	}
	if len(cell.Values) != 2 {
		t.Fatalf("Values = %v, want row id column removed", cell.Values)
	}
	if key := cell.Key(1); len(key) != 1 || key[0].Text != "pear" {
		t.Errorf("Key(1) = %v, want [pear]", key)
	}
	if key := cell.Key(2); len(key) != 2 || key[1].Int != 3 {
		t.Errorf("Key(2) = %v, want [pear 3]", key)
	}
	if key := cell.Key(5); len(key) != 2 {
		t.Errorf("Key(5) = %v, want both key columns", key)
	}
}

func TestParseIndexInteriorCell(t *testing.T) {
	payload := dbtest.Record(record.Text("m"), record.Integer(500))
	cell, err := ParseIndexInteriorCell(dbtest.IndexInteriorCell(12, payload), 4096, nil)
	if err != nil {
		t.Fatalf("ParseIndexInteriorCell() error = %v", err)
	}
	if cell.LeftChild != 12 || cell.RowID != 500 {
		t.Errorf("cell = %+v, want left 12 row id 500", cell)
	}
	if key := cell.Key(1); len(key) != 1 || key[0].Text != "m" {
		t.Errorf("Key(1) = %v", key)
	}
}

func TestParseIndexCell_RowIDErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"text row id", dbtest.Record(record.Text("k"), record.Text("one"))},
		{"null row id", dbtest.Record(record.Text("k"), record.Null())},
		{"no columns", dbtest.Record()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseIndexLeafCell(dbtest.IndexLeafCell(tt.payload), 4096, nil); !errors.Is(err, errors.ErrMalformedRecord) {
				t.Errorf("ParseIndexLeafCell() error = %v, want ErrMalformedRecord", err)
			}
			if _, err := ParseIndexInteriorCell(dbtest.IndexInteriorCell(2, tt.payload), 4096, nil); !errors.Is(err, errors.ErrMalformedRecord) {
				t.Errorf("ParseIndexInteriorCell() error = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestParseIndexCell_NegativeRowID(t *testing.T) {
	payload := dbtest.Record(record.Text("k"), record.Integer(-4))
	table, err := ParseTableLeafCell(dbtest.TableLeafCell(uint64(1<<64-4), payload), 4096, nil)
	if err != nil {
		t.Fatalf("ParseTableLeafCell() error = %v", err)
	}

	leaf, err := ParseIndexLeafCell(dbtest.IndexLeafCell(payload), 4096, nil)
	if err != nil {
		t.Fatalf("ParseIndexLeafCell() error = %v", err)
	}
	if leaf.RowID != table.RowID {
		t.Errorf("index leaf RowID = %d, want %d", leaf.RowID, table.RowID)
	}
	interior, err := ParseIndexInteriorCell(dbtest.IndexInteriorCell(2, payload), 4096, nil)
	if err != nil {
		t.Fatalf("ParseIndexInteriorCell() error = %v", err)
	}
	if interior.RowID != table.RowID {
		t.Errorf("index interior RowID = %d, want %d", interior.RowID, table.RowID)
	}
}

func TestParseCell_Truncated(t *testing.T) {
	full := dbtest.TableLeafCell(9, dbtest.Record(record.Text("truncate me")))
	tests := []struct {
		name  string
		parse func() error
	}{
		{"empty leaf", func() error { _, err := ParseTableLeafCell(nil, 4096, nil); return err }},
		{"leaf missing row id", func() error { _, err := ParseTableLeafCell(full[:1], 4096, nil); return err }},
		{"leaf short payload", func() error { _, err := ParseTableLeafCell(full[:len(full)-3], 4096, nil); return err }},
		{"interior short child", func() error { _, err := ParseTableInteriorCell([]byte{0, 0, 1}); return err }},
		{"interior missing row id", func() error { _, err := ParseTableInteriorCell([]byte{0, 0, 0, 1}); return err }},
		{"index leaf empty", func() error { _, err := ParseIndexLeafCell(nil, 4096, nil); return err }},
		{"index interior short", func() error { _, err := ParseIndexInteriorCell([]byte{0, 0, 0, 1}, 4096, nil); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parse(); !errors.Is(err, errors.ErrTruncated) {
				t.Errorf("error = %v, want ErrTruncated", err)
			}
		})
	}
}

func TestLocalPayload(t *testing.T) {
	tests := []struct {
		name   string
		typ    PageType
		size   uint64
		usable int
		want   int
	}{
		{"table fits", PageTypeLeafTable, 4061, 4096, 4061},
		{"table spills to K", PageTypeLeafTable, 5000, 4096, 908},
		{"table spills to K near max", PageTypeLeafTable, 8000, 4096, 3908},
		{"table spills to M", PageTypeLeafTable, 8200, 4096, 489},
		{"index fits", PageTypeLeafIndex, 1002, 4096, 1002},
		{"index spills to M", PageTypeLeafIndex, 2000, 4096, 489},
		{"index spills to K", PageTypeInteriorIndex, 4600, 4096, 508},
		{"small page table", PageTypeLeafTable, 477, 512, 477},
		{"small page index", PageTypeLeafIndex, 102, 512, 102},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocalPayload(tt.typ, tt.size, tt.usable); got != tt.want {
				t.Errorf("LocalPayload(%v, %d, %d) = %d, want %d", tt.typ, tt.size, tt.usable, got, tt.want)
			}
		})
	}
}

func TestParseTableLeafCell_Overflow(t *testing.T) {
	f := dbtest.NewFile(512)
	blob := bytes.Repeat([]byte("0123456789"), 150)
	payload := dbtest.Record(record.Integer(1), record.Blob(blob))
	local := LocalPayload(PageTypeLeafTable, uint64(len(payload)), f.UsableSize())
	first := f.Overflow(payload[local:])

	cell, err := ParseTableLeafCell(dbtest.SpilledTableLeafCell(5, payload, local, first), f.UsableSize(), f)
	if err != nil {
		t.Fatalf("ParseTableLeafCell() error = %v", err)
	}
	if cell.OverflowPage != first || cell.PayloadSize != uint64(len(payload)) {
		t.Errorf("OverflowPage = %d PayloadSize = %d", cell.OverflowPage, cell.PayloadSize)
	}
	if !bytes.Equal(cell.Values[1].Blob, blob) {
		t.Errorf("blob reassembled to %d bytes, want %d", len(cell.Values[1].Blob), len(blob))
	}

	if _, err := ParseTableLeafCell(dbtest.SpilledTableLeafCell(5, payload, local, first), f.UsableSize(), nil); !errors.Is(err, errors.ErrTruncated) {
		t.Errorf("nil source error = %v, want ErrTruncated", err)
	}
	if _, err := ParseTableLeafCell(dbtest.SpilledTableLeafCell(5, payload, local, 0), f.UsableSize(), f); !errors.Is(err, errors.ErrTruncated) {
		t.Errorf("empty chain error = %v, want ErrTruncated", err)
	}
}

func TestParseTableLeafCell_OversizedPayload(t *testing.T) {
	f := dbtest.NewFile(512)
	f.Alloc()
	size := uint64(1) << 50
	local := LocalPayload(PageTypeLeafTable, size, f.UsableSize())

	data := reader.AppendVarint(nil, size)
	data = reader.AppendVarint(data, 1)
	data = append(data, make([]byte, local)...)
	data = binary.BigEndian.AppendUint32(data, 2)

	_, err := ParseTableLeafCell(data, f.UsableSize(), f)
	if !errors.Is(err, errors.ErrCorruptTree) {
		t.Fatalf("ParseTableLeafCell() error = %v, want ErrCorruptTree", err)
	}
	var de *errors.DecodeError
	if !errors.As(err, &de) || de.Field != "payload size" {
		t.Errorf("error = %v, want a payload size decode error", err)
	}
}

func TestParseTableLeafCell_OverflowCycle(t *testing.T) {
	tests := []struct {
		name  string
		pages map[uint32]uint32 // page -> next
	}{
		{"self loop", map[uint32]uint32{2: 2}},
		{"two page loop", map[uint32]uint32{2: 3, 3: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := dbtest.NewFile(512)
			for i := 0; i < 60; i++ {
				f.Alloc()
			}
			for n, next := range tt.pages {
				raw := make([]byte, f.PageSize)
				binary.BigEndian.PutUint32(raw, next)
				f.SetRaw(n, raw)
			}
			payload := dbtest.Record(record.Integer(1), record.Blob(make([]byte, 25500)))
			local := LocalPayload(PageTypeLeafTable, uint64(len(payload)), f.UsableSize())

			_, err := ParseTableLeafCell(dbtest.SpilledTableLeafCell(5, payload, local, 2), f.UsableSize(), f)
			if !errors.Is(err, errors.ErrCorruptTree) {
				t.Fatalf("ParseTableLeafCell() error = %v, want ErrCorruptTree", err)
			}
			if !strings.Contains(err.Error(), "repeats") {
				t.Errorf("error = %v, want a repeated page", err)
			}
		})
	}
}

func TestParseIndexLeafCell_Overflow(t *testing.T) {
	f := dbtest.NewFile(512)
	key := strings.Repeat("k", 700)
	payload := dbtest.Record(record.Text(key), record.Integer(9))
	local := LocalPayload(PageTypeLeafIndex, uint64(len(payload)), f.UsableSize())
	if local != MinLocal(f.UsableSize()) {
		t.Fatalf("local = %d, want the minimum local share %d", local, MinLocal(f.UsableSize()))
	}
	first := f.Overflow(payload[local:])

	cell, err := ParseIndexLeafCell(dbtest.SpilledIndexLeafCell(payload, local, first), f.UsableSize(), f)
	if err != nil {
		t.Fatalf("ParseIndexLeafCell() error = %v", err)
	}
	if cell.RowID != 9 || cell.Values[0].Text != key {
		t.Errorf("cell row id %d, key of %d bytes", cell.RowID, len(cell.Values[0].Text))
	}
}

func BenchmarkParseTableLeafCell(b *testing.B) {
	data := dbtest.TableLeafCell(12345, dbtest.Record(
		record.Integer(12345), record.Text("benchmark row"), record.Float(2.5), record.Null(),
	))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseTableLeafCell(data, 4096, nil); err != nil {
			b.Fatal(err)
		}
	}
}
