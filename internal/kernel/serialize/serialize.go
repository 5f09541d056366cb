// Package serialize implements the deterministic, versioned whole-image
// encoder called for by SPEC_FULL.md's design notes, replacing the
// teacher's language-native object serialization with an explicit
// binary layout: table name order, column order, column metadata (type
// + named constraints), and row bodies column-major. It is the
// Snapshotter the transaction manager persists through, and the codec
// the engine loads and saves database files with.
package serialize

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/onyxdb/engine/internal/filestore"
	"github.com/onyxdb/engine/internal/kernel/constraint"
	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/ddl"
	"github.com/onyxdb/engine/internal/kernel/errs"
	"github.com/onyxdb/engine/internal/kernel/table"
	"github.com/onyxdb/engine/internal/kernel/types"
)

const (
	magic   = "ONXD"
	version = 1
)

// Codec is the on-disk format version 1 encoder/decoder. It implements
// txn.Snapshotter.
type Codec struct {
	disk *filestore.Disk
}

// NewCodec builds a Codec rooted at a filestore.Disk; paths passed to
// Save/Load are relative to that disk's root.
func NewCodec(disk *filestore.Disk) *Codec {
	return &Codec{disk: disk}
}

// Save writes a deterministic encoding of db to path.
func (c *Codec) Save(db *database.Database, path string) error {
	buf, err := Encode(db)
	if err != nil {
		return err
	}
	return c.disk.Put(path, buf)
}

// Load decodes the database image at path.
func (c *Codec) Load(path string) (*database.Database, error) {
	raw, err := c.disk.Get(path)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "failed to read snapshot at %s", path)
	}
	return Decode(raw)
}

// Encode renders db into the versioned binary format.
func Encode(db *database.Database) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(version)
	writeString(&buf, db.Name)
	writeString(&buf, db.FilePath)
	buf.WriteByte(byte(db.State()))

	names := db.TableNames()
	sort.Strings(names)
	writeUint32(&buf, uint32(len(names)))
	for _, name := range names {
		t, err := db.Table(name)
		if err != nil {
			return nil, err
		}
		if err := encodeTable(&buf, t); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeTable(buf *bytes.Buffer, t *table.Table) error {
	writeString(buf, t.Name)
	colNames := t.ColumnNames()
	writeUint32(buf, uint32(len(colNames)))
	for _, cname := range colNames {
		col, _ := t.Column(cname)
		writeString(buf, cname)
		buf.WriteByte(byte(col.DataType))
		cs := col.Constraints.All()
		writeUint32(buf, uint32(len(cs)))
		for _, c := range cs {
			writeString(buf, c.Name)
			buf.WriteByte(byte(c.Kind))
			writeString(buf, c.Parent)
			writeString(buf, c.Expr)
		}
	}
	writeUint32(buf, uint32(t.RowCount()))
	for _, cname := range colNames {
		col, _ := t.Column(cname)
		for _, v := range col.Body {
			if err := writeValue(buf, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode reconstructs a Database from its versioned binary encoding.
func Decode(raw []byte) (*database.Database, error) {
	r := bytes.NewReader(raw)
	got := make([]byte, len(magic))
	if _, err := r.Read(got); err != nil || string(got) != magic {
		return nil, errs.New(errs.IOError, "snapshot has bad magic header")
	}
	v, err := r.ReadByte()
	if err != nil {
		return nil, errs.New(errs.IOError, "snapshot truncated reading version")
	}
	if v != version {
		return nil, errs.New(errs.IOError, "unsupported snapshot version %d", v)
	}
	dbName, err := readString(r)
	if err != nil {
		return nil, err
	}
	filePath, err := readString(r)
	if err != nil {
		return nil, err
	}
	stateByte, err := r.ReadByte()
	if err != nil {
		return nil, errs.New(errs.IOError, "snapshot truncated reading state")
	}

	db := database.New(dbName, filePath)
	tableCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	// Pass 1: create every table's schema (no rows yet) before
	// inserting any data, so a FOREIGN_KEY column can reference a
	// table that appears later in the file without the parent lookup
	// failing on a not-yet-created table.
	pending := make([]pendingTable, 0, tableCount)
	for i := uint32(0); i < tableCount; i++ {
		pt, err := decodeTableSchema(r, db)
		if err != nil {
			return nil, err
		}
		pending = append(pending, pt)
	}
	// Pass 2: insert rows now that every table exists.
	for _, pt := range pending {
		t, err := db.Table(pt.name)
		if err != nil {
			return nil, err
		}
		lookup := func(parentTable, col string) ([]types.Value, error) {
			return db.LookupColumn(parentTable, col)
		}
		for _, row := range pt.rows {
			if err := t.Insert(pt.columnNames, row, lookup); err != nil {
				return nil, err
			}
		}
	}
	db.SetState(database.State(stateByte))
	return db, nil
}

type pendingTable struct {
	name        string
	columnNames []string
	rows        [][]types.Value
}

func decodeTableSchema(r *bytes.Reader, db *database.Database) (pendingTable, error) {
	name, err := readString(r)
	if err != nil {
		return pendingTable{}, err
	}
	colCount, err := readUint32(r)
	if err != nil {
		return pendingTable{}, err
	}
	var cols []database.ColumnDef
	for i := uint32(0); i < colCount; i++ {
		cname, err := readString(r)
		if err != nil {
			return pendingTable{}, err
		}
		dtByte, err := r.ReadByte()
		if err != nil {
			return pendingTable{}, errs.New(errs.IOError, "snapshot truncated reading column type")
		}
		dt := types.DataType(dtByte)
		consCount, err := readUint32(r)
		if err != nil {
			return pendingTable{}, err
		}
		var cons []*constraint.Constraint
		for j := uint32(0); j < consCount; j++ {
			cn, err := readString(r)
			if err != nil {
				return pendingTable{}, err
			}
			kindByte, err := r.ReadByte()
			if err != nil {
				return pendingTable{}, errs.New(errs.IOError, "snapshot truncated reading constraint kind")
			}
			parent, err := readString(r)
			if err != nil {
				return pendingTable{}, err
			}
			expr, err := readString(r)
			if err != nil {
				return pendingTable{}, err
			}
			c := &constraint.Constraint{Name: cn, Kind: constraint.Kind(kindByte), Parent: parent, Expr: expr}
			if c.Kind == constraint.Check && expr != "" {
				eval, err := ddl.CompileCheck(expr, cname)
				if err != nil {
					return pendingTable{}, err
				}
				c.Check = eval
			}
			cons = append(cons, c)
		}
		cols = append(cols, database.ColumnDef{Name: cname, Type: dt, Constraints: cons})
	}
	if err := db.CreateTable(name, cols); err != nil {
		return pendingTable{}, err
	}
	t, err := db.Table(name)
	if err != nil {
		return pendingTable{}, err
	}
	rowCount, err := readUint32(r)
	if err != nil {
		return pendingTable{}, err
	}
	colNames := t.ColumnNames()
	rows := make([][]types.Value, rowCount)
	for i := range rows {
		rows[i] = make([]types.Value, len(colNames))
	}
	for ci := range colNames {
		for ri := uint32(0); ri < rowCount; ri++ {
			v, err := readValue(r)
			if err != nil {
				return pendingTable{}, err
			}
			rows[ri][ci] = v
		}
	}
	return pendingTable{name: name, columnNames: colNames, rows: rows}, nil
}

// --- primitive encoding ---

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, errs.New(errs.IOError, "snapshot truncated reading uint32")
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return "", errs.New(errs.IOError, "snapshot truncated reading string")
		}
	}
	return string(b), nil
}

const (
	vtagInteger byte = iota
	vtagReal
	vtagString
	vtagBoolean
	vtagNull
)

func writeValue(buf *bytes.Buffer, v types.Value) error {
	if v.IsNull() {
		buf.WriteByte(vtagNull)
		return nil
	}
	dt, _ := types.TypeOf(v)
	switch dt {
	case types.Integer:
		buf.WriteByte(vtagInteger)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v.Int()))
		buf.Write(b[:])
	case types.Real:
		buf.WriteByte(vtagReal)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v.Float()))
		buf.Write(b[:])
	case types.String:
		buf.WriteByte(vtagString)
		writeString(buf, v.Str())
	case types.Boolean:
		buf.WriteByte(vtagBoolean)
		if v.Bool() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	default:
		return fmt.Errorf("unknown data type for value %v", v)
	}
	return nil
}

func readValue(r *bytes.Reader) (types.Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return types.Value{}, errs.New(errs.IOError, "snapshot truncated reading value tag")
	}
	switch tag {
	case vtagNull:
		return types.Null, nil
	case vtagInteger:
		var b [8]byte
		if _, err := r.Read(b[:]); err != nil {
			return types.Value{}, errs.New(errs.IOError, "snapshot truncated reading integer")
		}
		return types.NewInteger(int64(binary.BigEndian.Uint64(b[:]))), nil
	case vtagReal:
		var b [8]byte
		if _, err := r.Read(b[:]); err != nil {
			return types.Value{}, errs.New(errs.IOError, "snapshot truncated reading real")
		}
		return types.NewReal(math.Float64frombits(binary.BigEndian.Uint64(b[:]))), nil
	case vtagString:
		s, err := readString(r)
		if err != nil {
			return types.Value{}, err
		}
		return types.NewString(s), nil
	case vtagBoolean:
		b, err := r.ReadByte()
		if err != nil {
			return types.Value{}, errs.New(errs.IOError, "snapshot truncated reading boolean")
		}
		return types.NewBoolean(b != 0), nil
	default:
		return types.Value{}, errs.New(errs.IOError, "unknown value tag %d", tag)
	}
}
