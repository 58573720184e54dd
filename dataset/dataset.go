// Package dataset defines the in-memory tabular representation shared by
// every pipeline stage: an ordered set of typed columns with a null mask,
// plus loading, semantic type inference and per-column profiling.
package dataset

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Kind is the inferred semantic type of a column.
type Kind int

const (
	// Text is the fallback kind for free-form strings.
	Text Kind = iota
	// Numeric columns store float64 values.
	Numeric
	// Categorical columns store a bounded set of string labels.
	Categorical
	// DateTime columns store parsed timestamps.
	DateTime
	// Boolean columns store true/false values.
	Boolean
)

// String returns the kind name used in profiles and logs.
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case DateTime:
		return "datetime"
	case Boolean:
		return "boolean"
	default:
		return "text"
	}
}

// Column is an ordered sequence of scalar values of one Kind. Exactly one
// of the value slices is populated, matching Kind; Null marks missing
// entries regardless of storage.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Times   []time.Time
	Bools   []bool
	Null    []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.Null)
}

// MissingCount returns the number of null entries.
func (c *Column) MissingCount() int {
	n := 0
	for _, isNull := range c.Null {
		if isNull {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	out.Null = append([]bool(nil), c.Null...)
	if c.Floats != nil {
		out.Floats = append([]float64(nil), c.Floats...)
	}
	if c.Strings != nil {
		out.Strings = append([]string(nil), c.Strings...)
	}
	if c.Times != nil {
		out.Times = append([]time.Time(nil), c.Times...)
	}
	if c.Bools != nil {
		out.Bools = append([]bool(nil), c.Bools...)
	}
	return out
}

// NumericValues renders the column as float64s for modeling: numeric
// values pass through, booleans map to 0/1, datetimes to Unix seconds, and
// categorical/text labels to their index in sorted label order. The label
// ordering is deterministic for a fixed column content.
func (c *Column) NumericValues() []float64 {
	out := make([]float64, c.Len())
	switch c.Kind {
	case Numeric:
		copy(out, c.Floats)
	case Boolean:
		for i, b := range c.Bools {
			if b {
				out[i] = 1
			}
		}
	case DateTime:
		for i, t := range c.Times {
			out[i] = float64(t.Unix())
		}
	default:
		labels := make(map[string]struct{})
		for i, s := range c.Strings {
			if !c.Null[i] {
				labels[s] = struct{}{}
			}
		}
		ordered := make([]string, 0, len(labels))
		for s := range labels {
			ordered = append(ordered, s)
		}
		sort.Strings(ordered)
		index := make(map[string]float64, len(ordered))
		for i, s := range ordered {
			index[s] = float64(i)
		}
		for i, s := range c.Strings {
			out[i] = index[s]
		}
	}
	return out
}

// Distinct returns the number of distinct non-null values.
func (c *Column) Distinct() int {
	switch c.Kind {
	case Numeric:
		seen := make(map[float64]struct{})
		for i, v := range c.Floats {
			if !c.Null[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	case DateTime:
		seen := make(map[int64]struct{})
		for i, v := range c.Times {
			if !c.Null[i] {
				seen[v.UnixNano()] = struct{}{}
			}
		}
		return len(seen)
	case Boolean:
		seen := make(map[bool]struct{})
		for i, v := range c.Bools {
			if !c.Null[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	default:
		seen := make(map[string]struct{})
		for i, v := range c.Strings {
			if !c.Null[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	}
}

// Shape is the (rows, columns) extent of a dataset.
type Shape struct {
	Rows int
	Cols int
}

// Dataset is an ordered collection of equal-length, uniquely named columns.
// Pipeline stages never mutate a shared Dataset; each stage works on a
// Clone and returns a new snapshot.
type Dataset struct {
	cols   []*Column
	byName map[string]int
}

// New creates a dataset from columns, enforcing uniform length and unique
// names.
func New(cols ...*Column) (*Dataset, error) {
	ds := &Dataset{byName: make(map[string]int, len(cols))}
	for _, c := range cols {
		if err := ds.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// AddColumn appends a column, enforcing the dataset invariants.
func (d *Dataset) AddColumn(c *Column) error {
	if _, exists := d.byName[c.Name]; exists {
		return pkgerr.NewValueError("Dataset.AddColumn", "duplicate column name: "+c.Name)
	}
	if len(d.cols) > 0 && c.Len() != d.NumRows() {
		return pkgerr.NewDimensionError("Dataset.AddColumn", d.NumRows(), c.Len(), 0)
	}
	d.byName[c.Name] = len(d.cols)
	d.cols = append(d.cols, c)
	return nil
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	if len(d.cols) == 0 {
		return 0
	}
	return d.cols[0].Len()
}

// NumCols returns the column count.
func (d *Dataset) NumCols() int {
	return len(d.cols)
}

// Shape returns the dataset extent.
func (d *Dataset) Shape() Shape {
	return Shape{Rows: d.NumRows(), Cols: d.NumCols()}
}

// Column returns the named column, or nil when absent.
func (d *Dataset) Column(name string) *Column {
	idx, ok := d.byName[name]
	if !ok {
		return nil
	}
	return d.cols[idx]
}

// Columns returns the columns in order.
func (d *Dataset) Columns() []*Column {
	return d.cols
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{byName: make(map[string]int, len(d.cols))}
	for _, c := range d.cols {
		out.byName[c.Name] = len(out.cols)
		out.cols = append(out.cols, c.Clone())
	}
	return out
}

// Drop returns a new dataset without the named columns.
func (d *Dataset) Drop(names ...string) *Dataset {
	dropped := make(map[string]struct{}, len(names))
	for _, n := range names {
		dropped[n] = struct{}{}
	}
	out := &Dataset{byName: make(map[string]int)}
	for _, c := range d.cols {
		if _, skip := dropped[c.Name]; skip {
			continue
		}
		out.byName[c.Name] = len(out.cols)
		out.cols = append(out.cols, c.Clone())
	}
	return out
}

// Select returns a new dataset with only the named columns, in the given
// order. Unknown names are an error.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	out := &Dataset{byName: make(map[string]int, len(names))}
	for _, n := range names {
		c := d.Column(n)
		if c == nil {
			return nil, pkgerr.NewValueError("Dataset.Select", "unknown column: "+n)
		}
		out.byName[n] = len(out.cols)
		out.cols = append(out.cols, c.Clone())
	}
	return out, nil
}

// TakeRows returns a new dataset containing only the given row indices.
func (d *Dataset) TakeRows(indices []int) *Dataset {
	out := &Dataset{byName: make(map[string]int, len(d.cols))}
	for _, c := range d.cols {
		nc := &Column{Name: c.Name, Kind: c.Kind}
		nc.Null = make([]bool, len(indices))
		switch c.Kind {
		case Numeric:
			nc.Floats = make([]float64, len(indices))
		case DateTime:
			nc.Times = make([]time.Time, len(indices))
		case Boolean:
			nc.Bools = make([]bool, len(indices))
		default:
			nc.Strings = make([]string, len(indices))
		}
		for j, idx := range indices {
			nc.Null[j] = c.Null[idx]
			switch c.Kind {
			case Numeric:
				nc.Floats[j] = c.Floats[idx]
			case DateTime:
				nc.Times[j] = c.Times[idx]
			case Boolean:
				nc.Bools[j] = c.Bools[idx]
			default:
				nc.Strings[j] = c.Strings[idx]
			}
		}
		out.byName[nc.Name] = len(out.cols)
		out.cols = append(out.cols, nc)
	}
	return out
}

// Matrix assembles the named numeric columns into a gonum matrix
// (rows x features). Every requested column must be Numeric.
func (d *Dataset) Matrix(features []string) (*mat.Dense, error) {
	rows := d.NumRows()
	if rows == 0 || len(features) == 0 {
		return nil, pkgerr.ErrEmptyData
	}
	m := mat.NewDense(rows, len(features), nil)
	for j, name := range features {
		c := d.Column(name)
		if c == nil {
			return nil, pkgerr.NewValueError("Dataset.Matrix", "unknown column: "+name)
		}
		if c.Kind != Numeric {
			return nil, pkgerr.NewValueError("Dataset.Matrix", "column is not numeric: "+name)
		}
		for i := 0; i < rows; i++ {
			m.Set(i, j, c.Floats[i])
		}
	}
	return m, nil
}

// Vector assembles one numeric column into a gonum column vector.
func (d *Dataset) Vector(name string) (*mat.VecDense, error) {
	c := d.Column(name)
	if c == nil {
		return nil, pkgerr.NewValueError("Dataset.Vector", "unknown column: "+name)
	}
	if c.Kind != Numeric {
		return nil, pkgerr.NewValueError("Dataset.Vector", "column is not numeric: "+name)
	}
	return mat.NewVecDense(len(c.Floats), append([]float64(nil), c.Floats...)), nil
}
