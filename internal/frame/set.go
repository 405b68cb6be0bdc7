package frame

// Set is a named collection of entity tables in insertion order.
type Set struct {
	names  []string
	tables map[string]*Table
}

func NewSet(tables ...*Table) *Set {
	s := &Set{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.put(t)
	}
	return s
}

func (s *Set) put(t *Table) {
	if _, ok := s.tables[t.Name()]; !ok {
		s.names = append(s.names, t.Name())
	}
	s.tables[t.Name()] = t
}

func (s *Set) Get(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// With returns a new set in which t replaces the table of the same name.
func (s *Set) With(t *Table) *Set {
	out := &Set{names: s.Names(), tables: make(map[string]*Table, len(s.tables)+1)}
	for k, v := range s.tables {
		out.tables[k] = v
	}
	out.put(t)
	return out
}

// ExperimentIDs returns the union of experiment ids over every table.
func (s *Set) ExperimentIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, name := range s.names {
		for _, id := range s.tables[name].ExperimentIDs() {
			ids[id] = true
		}
	}
	return ids
}
