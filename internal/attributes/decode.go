package attributes

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode reads one attribute document (JSON or YAML) and extracts the record
// list stored under recordsKey. A non-empty componentKey marks the table as
// component-keyed.
func Decode(name string, data []byte, recordsKey, componentKey string) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse attributes %s: %w", name, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("attributes %s: %w", name, ErrMalformed)
	}
	root, err := fromNode(doc.Content[0])
	if err != nil {
		return nil, fmt.Errorf("attributes %s: %w", name, err)
	}
	obj, ok := root.(*Object)
	if !ok {
		return nil, fmt.Errorf("attributes %s: top level is not a mapping: %w", name, ErrMalformed)
	}
	list, ok := obj.Get(recordsKey)
	if !ok {
		return nil, fmt.Errorf("attributes %s: key %q not found: %w", name, recordsKey, ErrMalformed)
	}
	items, ok := list.([]any)
	if !ok {
		return nil, fmt.Errorf("attributes %s: %q is not a list: %w", name, recordsKey, ErrMalformed)
	}
	records := make([]*Object, 0, len(items))
	for i, item := range items {
		rec, ok := item.(*Object)
		if !ok {
			return nil, fmt.Errorf("attributes %s: record %d is not a mapping: %w", name, i, ErrMalformed)
		}
		records = append(records, rec)
	}
	return &Table{Name: name, ComponentKey: componentKey, Records: records}, nil
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(n.Content[i].Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case yaml.AliasNode:
		return fromNode(n.Alias)
	}
	return nil, fmt.Errorf("unsupported node kind %d: %w", n.Kind, ErrMalformed)
}
