package serialize

import (
	"testing"

	"github.com/onyxdb/engine/internal/filestore"
	"github.com/onyxdb/engine/internal/kernel/constraint"
	"github.com/onyxdb/engine/internal/kernel/database"
	"github.com/onyxdb/engine/internal/kernel/types"
)

func buildSampleDB(t *testing.T) *database.Database {
	t.Helper()
	d := database.New("shop", "shop/shop.db")
	usersCols := []database.ColumnDef{
		{Name: "id", Type: types.Integer, Constraints: []*constraint.Constraint{{Name: "id_pk", Kind: constraint.PrimaryKey}}},
		{Name: "name", Type: types.String, Constraints: []*constraint.Constraint{{Name: "name_nn", Kind: constraint.NotNull}}},
	}
	if err := d.CreateTable("users", usersCols); err != nil {
		t.Fatalf("CreateTable users: %v", err)
	}
	// "orders" sorts after "users" alphabetically is false — pick a name
	// that sorts BEFORE "users" but references it, to exercise the
	// two-pass restore ordering fix.
	ordersCols := []database.ColumnDef{
		{Name: "id", Type: types.Integer, Constraints: []*constraint.Constraint{{Name: "id_pk", Kind: constraint.PrimaryKey}}},
		{Name: "user_id", Type: types.Integer, Constraints: []*constraint.Constraint{{Name: "user_fk", Kind: constraint.ForeignKey, Parent: "users"}}},
	}
	if err := d.CreateTable("aorders", ordersCols); err != nil {
		t.Fatalf("CreateTable aorders: %v", err)
	}
	lookup := d.LookupColumn
	if err := d.Insert("users", []string{"id", "name"}, []types.Value{types.NewInteger(1), types.NewString("Ada")}, lookup); err != nil {
		t.Fatalf("Insert users: %v", err)
	}
	if err := d.Insert("aorders", []string{"id", "user_id"}, []types.Value{types.NewInteger(1), types.NewInteger(1)}, lookup); err != nil {
		t.Fatalf("Insert aorders: %v", err)
	}
	return d
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := buildSampleDB(t)
	raw, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	restored, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if restored.Name != d.Name {
		t.Errorf("restored name = %q, want %q", restored.Name, d.Name)
	}
	users, err := restored.Table("users")
	if err != nil {
		t.Fatalf("restored table users: %v", err)
	}
	if users.RowCount() != 1 {
		t.Errorf("restored users row count = %d, want 1", users.RowCount())
	}
	orders, err := restored.Table("aorders")
	if err != nil {
		t.Fatalf("restored table aorders: %v", err)
	}
	if orders.RowCount() != 1 {
		t.Errorf("restored aorders row count = %d, want 1", orders.RowCount())
	}
	if restored.State() != d.State() {
		t.Errorf("restored state = %v, want %v", restored.State(), d.State())
	}
}

func TestCodecSaveLoadThroughDisk(t *testing.T) {
	disk, err := filestore.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	codec := NewCodec(disk)
	d := buildSampleDB(t)

	if err := codec.Save(d, "shop/shop.db"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	restored, err := codec.Load("shop/shop.db")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	users, err := restored.Table("users")
	if err != nil {
		t.Fatalf("restored users: %v", err)
	}
	if users.RowCount() != 1 {
		t.Errorf("restored users row count = %d, want 1", users.RowCount())
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	if _, err := Decode([]byte("not a snapshot at all")); err == nil {
		t.Error("expected error decoding garbage bytes")
	}
}
