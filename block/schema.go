package block

import (
	"fmt"
	"strings"
)

// Schema maps column positions to lowercased field names. It is resolved
// once per stream and reused for every block; relying on fixed, unnamed
// column positions is what this replaces, so a width that stops matching
// surfaces as an error instead of silent misindexing.
type Schema struct {
	names []string
	index map[string]int
}

func newSchema(names []string) *Schema {
	S := new(Schema)
	S.names = make([]string, len(names))
	S.index = make(map[string]int, len(names))
	for i, v := range names {
		n := strings.ToLower(v)
		S.names[i] = n
		S.index[n] = i
	}
	return S
}

// Fixed returns a schema supplied by the caller, for formats whose columns
// are implicit (no legend in the file). Names are lowercased.
func Fixed(names ...string) *Schema {
	return newSchema(names)
}

// FromLegend resolves a schema from a column legend comment line, e.g.
// `# Chunk Coord1 Ncount v_kintemp` or an `ITEM: ATOMS id x y z` trailer
// with the marker already stripped. The leading '#' is dropped; names are
// lowercased, matching what LAMMPS users type in thermo_style and dumps in
// either case.
func FromLegend(line string) (*Schema, error) {
	t := strings.TrimSpace(line)
	t = strings.TrimPrefix(t, "#")
	f := strings.Fields(t)
	if len(f) == 0 {
		return nil, Error{"Empty column legend", "", []string{"FromLegend"}, true}
	}
	return newSchema(f), nil
}

// Len returns the number of columns the schema describes.
func (S *Schema) Len() int {
	return len(S.names)
}

// Names returns the field names, in column order.
func (S *Schema) Names() []string {
	n := make([]string, len(S.names))
	copy(n, S.names)
	return n
}

// Col returns the column index of the named field. The lookup is
// case-insensitive.
func (S *Schema) Col(name string) (int, error) {
	i, ok := S.index[strings.ToLower(name)]
	if !ok {
		return -1, Error{fmt.Sprintf("%s: %q (have %v)", ColumnNotFound, name, S.names), "", []string{"Col"}, false}
	}
	return i, nil
}

// Check verifies that a row has exactly as many fields as the schema has
// columns.
func (S *Schema) Check(fields []string) error {
	if len(fields) != len(S.names) {
		return Error{fmt.Sprintf("%s: row has %d fields, schema %v has %d", SchemaMismatch, len(fields), S.names, len(S.names)), "", []string{"Check"}, true}
	}
	return nil
}
