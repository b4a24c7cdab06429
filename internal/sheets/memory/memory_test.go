package memory

import (
	"context"
	"reflect"
	"testing"
)

func TestMirrorAppendDeleteReplace(t *testing.T) {
	ctx := context.Background()
	m := New()

	if err := m.AppendRow(ctx, []string{"1", "2024-01-05", "Food", "12.50", "Lunch"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := m.AppendRow(ctx, []string{"2", "2024-01-06", "Bills", "40", "Power"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}

	if err := m.DeleteRow(ctx, "1"); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if err := m.DeleteRow(ctx, "99"); err != nil {
		t.Fatalf("DeleteRow of missing id should be a no-op: %v", err)
	}

	want := [][]string{{"2", "2024-01-06", "Bills", "40", "Power"}}
	if got := m.Rows(); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}

	if err := m.ReplaceAll(ctx, [][]string{{"5", "2024-02-01", "Rent", "800", "Feb"}}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if got := m.Rows(); len(got) != 1 || got[0][0] != "5" {
		t.Fatalf("rows after replace = %v", got)
	}
}

func TestMirrorRowsIsACopy(t *testing.T) {
	m := New()
	_ = m.AppendRow(context.Background(), []string{"1"})
	rows := m.Rows()
	rows[0][0] = "changed"
	if m.Rows()[0][0] != "1" {
		t.Fatal("Rows leaked internal state")
	}
}
