package memory

import (
	"context"
	"slices"
	"sync"

	"expensetracker/internal/sheets"
)

var _ sheets.RowMirror = (*Mirror)(nil)

// Mirror keeps the mirrored rows in process. The header row is not stored.
type Mirror struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) AppendRow(_ context.Context, cells []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, slices.Clone(cells))
	return nil
}

func (m *Mirror) DeleteRow(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(r []string) bool {
		return len(r) > 0 && r[0] == id
	})
	return nil
}

func (m *Mirror) ReplaceAll(_ context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make([][]string, 0, len(rows))
	for _, r := range rows {
		m.rows = append(m.rows, slices.Clone(r))
	}
	return nil
}

// Rows returns a copy of the mirrored rows.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = slices.Clone(r)
	}
	return out
}
