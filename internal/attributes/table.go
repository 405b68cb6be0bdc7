package attributes

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cast"
)

var (
	ErrMalformed   = errors.New("malformed attribute structure")
	ErrUnknownKind = errors.New("unsupported key value")
)

// Table is one attribute document's record list. Records are matched either
// by a component name (ComponentKey set) or by business columns named like
// the entity columns they are compared with.
type Table struct {
	Name         string
	ComponentKey string
	Records      []*Object
}

func (t *Table) ComponentKeyed() bool { return t.ComponentKey != "" }

// Bundle is the set of attribute tables available to a run.
type Bundle struct {
	tables map[string]*Table
	order  []string

	mu      sync.Mutex
	indexes map[string]*Index
}

func NewBundle(tables ...*Table) *Bundle {
	b := &Bundle{tables: make(map[string]*Table), indexes: make(map[string]*Index)}
	for _, t := range tables {
		if _, ok := b.tables[t.Name]; !ok {
			b.order = append(b.order, t.Name)
		}
		b.tables[t.Name] = t
	}
	return b
}

func (b *Bundle) Table(name string) (*Table, bool) {
	t, ok := b.tables[name]
	return t, ok
}

func (b *Bundle) Names() []string { return append([]string(nil), b.order...) }

// ComponentTable returns the first component-keyed table.
func (b *Bundle) ComponentTable() (*Table, bool) {
	for _, name := range b.order {
		if t := b.tables[name]; t.ComponentKeyed() {
			return t, true
		}
	}
	return nil, false
}

// Index returns the lookup index of table over fields, building it on first
// use. Component-keyed tables are always indexed on their component key.
func (b *Bundle) Index(t *Table, fields []string) *Index {
	if t.ComponentKeyed() {
		fields = []string{t.ComponentKey}
	}
	key := t.Name + "\x00" + strings.Join(fields, "\x00")
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx, ok := b.indexes[key]; ok {
		return idx
	}
	idx := BuildIndex(t, fields)
	b.indexes[key] = idx
	return idx
}

// Index maps a composite key to the first record carrying it.
type Index struct {
	fields  []string
	records map[string]*Object
}

// BuildIndex scans the records once. Later duplicates never replace the
// first match; records missing a field are not indexed.
func BuildIndex(t *Table, fields []string) *Index {
	idx := &Index{fields: append([]string(nil), fields...), records: make(map[string]*Object, len(t.Records))}
	for _, rec := range t.Records {
		vals := make([]any, len(fields))
		complete := true
		for i, f := range fields {
			v, ok := rec.Get(f)
			if !ok {
				complete = false
				break
			}
			vals[i] = v
		}
		if !complete {
			continue
		}
		k, err := Key(vals...)
		if err != nil {
			continue
		}
		if _, exists := idx.records[k]; !exists {
			idx.records[k] = rec
		}
	}
	return idx
}

func (idx *Index) Fields() []string { return append([]string(nil), idx.fields...) }

// Lookup finds the record whose fields equal vals, in field order.
func (idx *Index) Lookup(vals ...any) (*Object, bool, error) {
	k, err := Key(vals...)
	if err != nil {
		return nil, false, err
	}
	rec, ok := idx.records[k]
	return rec, ok, nil
}

// Key renders values into a canonical composite key so that 1, 1.0 and "1"
// compare equal, as entity cells and attribute documents type numbers
// differently.
func Key(vals ...any) (string, error) {
	parts := make([]string, len(vals))
	for i, v := range vals {
		switch v.(type) {
		case *Object, []any:
			return "", fmt.Errorf("%w: %T", ErrUnknownKind, v)
		}
		if v == nil {
			parts[i] = "\x00nil"
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnknownKind, err)
		}
		parts[i] = s
	}
	return strings.Join(parts, "\x1f"), nil
}
