package fieldstore

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
)

// MemoryStore is an in-memory Store. Writes come from the console loop;
// the mutex only protects readers on other goroutines.
type MemoryStore struct {
	mu      sync.RWMutex
	fields  map[string]string
	status  string
	tables  map[string]Table
	regions []string
}

// Snapshot is a copy of the store's state.
type Snapshot struct {
	Fields map[string]string
	Status string
	Tables map[string]Table
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fields: make(map[string]string),
		tables: make(map[string]Table),
	}
}

// Get returns the value of a field, or "" when unset.
func (s *MemoryStore) Get(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields[name]
}

// Set writes a field.
func (s *MemoryStore) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[name] = value
}

// Clear empties the named fields.
func (s *MemoryStore) Clear(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		delete(s.fields, name)
	}
}

// RenderTable replaces the contents of a region.
func (s *MemoryStore) RenderTable(region string, table Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[region]; !ok {
		s.regions = append(s.regions, region)
	}
	s.tables[region] = copyTable(table)
}

// ShowStatus replaces the banner. An empty message clears it.
func (s *MemoryStore) ShowStatus(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = message
}

// Status returns the current banner.
func (s *MemoryStore) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Table returns the table rendered in region.
func (s *MemoryStore) Table(region string) (Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[region]
	if !ok {
		return Table{}, false
	}
	return copyTable(t), true
}

// Snapshot copies the whole state.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		fields[k] = v
	}
	tables := make(map[string]Table, len(s.tables))
	for k, v := range s.tables {
		tables[k] = copyTable(v)
	}
	return Snapshot{Fields: fields, Status: s.status, Tables: tables}
}

// Render writes the form, the banner and every rendered table to w.
func (s *MemoryStore) Render(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range OrderFields {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", name, s.fields[name]); err != nil {
			return err
		}
	}
	for _, name := range ItemFields {
		if v, ok := s.fields[name]; ok {
			if _, err := fmt.Fprintf(tw, "%s:\t%s\n", name, v); err != nil {
				return err
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "status: %s\n", s.status); err != nil {
		return err
	}

	for _, region := range s.regions {
		if _, err := fmt.Fprintf(w, "\n[%s]\n", region); err != nil {
			return err
		}
		if err := renderTable(w, s.tables[region]); err != nil {
			return err
		}
	}
	return nil
}

// renderTable prints a table, expanding multi-line cells onto extra lines.
func renderTable(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(t.Columns, "\t")); err != nil {
		return err
	}
	for _, row := range t.Rows {
		cells := make([][]string, len(row))
		height := 1
		for i, cell := range row {
			cells[i] = strings.Split(cell, "\n")
			if len(cells[i]) > height {
				height = len(cells[i])
			}
		}
		for line := 0; line < height; line++ {
			parts := make([]string, len(cells))
			for i, cell := range cells {
				if line < len(cell) {
					parts[i] = cell[line]
				}
			}
			if _, err := fmt.Fprintln(tw, strings.Join(parts, "\t")); err != nil {
				return err
			}
		}
	}
	if len(t.Rows) == 0 {
		if _, err := fmt.Fprintln(tw, "(no rows)"); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func copyTable(t Table) Table {
	out := Table{Columns: append([]string(nil), t.Columns...)}
	if t.Rows != nil {
		out.Rows = make([][]string, len(t.Rows))
		for i, row := range t.Rows {
			out.Rows[i] = append([]string(nil), row...)
		}
	}
	return out
}
