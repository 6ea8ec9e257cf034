package input

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dshills/vehicleclass/internal/fields"
)

// File holds raw field values loaded from a YAML or JSON document.
type File struct {
	Path   string
	Hash   string            // "sha256:<hex>"
	Values map[string]string // raw text keyed by field name, fuel_type included
}

// Load reads a vehicle description from disk. The document must be a
// mapping of field names to scalars; values are kept as written so the
// validator sees exactly what the user typed. JSON is accepted as YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	values, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing input file %q: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return &File{
		Path:   path,
		Hash:   fmt.Sprintf("sha256:%x", sum),
		Values: values,
	}, nil
}

// Parse decodes a document into raw field values.
func Parse(data []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if doc.Kind == 0 {
		return out, nil
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of field names to values", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		name := key.Value
		if !known(name) {
			return nil, fmt.Errorf("line %d: unknown field %q", key.Line, name)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("line %d: duplicate field %q", key.Line, name)
		}
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: field %q must be a scalar", val.Line, name)
		}
		if val.Tag == "!!null" {
			out[name] = ""
			continue
		}
		out[name] = val.Value
	}
	return out, nil
}

// Names returns the field names present in values, in schema order with
// fuel_type last.
func Names(values map[string]string) []string {
	order := append(fields.Names(), fields.FuelType)
	rank := make(map[string]int, len(order))
	for i, n := range order {
		rank[n] = i
	}
	out := make([]string, 0, len(values))
	for n := range values {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}

func known(name string) bool {
	if name == fields.FuelType {
		return true
	}
	_, ok := fields.Lookup(name)
	return ok
}
