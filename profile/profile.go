//Package profile time-averages chunked LAMMPS output: the per-bin profiles
//written by fix ave/chunk and the vector-mode tables (RDFs and friends)
//written by fix ave/time. Accumulation is streaming: one block in memory,
//running sums per bin, means computed only when the results are asked for.
package profile

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	lmp "github.com/golmp/golmp"
	"github.com/golmp/golmp/block"
)

// BinKey identifies one accumulator bin. Scalar profiles use Pair==0 and
// the chunk index as Bin; vector-mode tables (one column group per pair of
// atom types) use the 1-based group index as Pair.
type BinKey struct {
	Pair int
	Bin  int
}

type binAcc struct {
	count float64
	sum   []float64
	sumsq []float64
}

// Accumulator holds the running per-bin statistics for a fixed list of
// tracked fields. Values are only ever added to, never overwritten; the
// mean is sum/count, divided once at query time so unequal per-block
// sample counts don't compound rounding error. A fresh bin appearing in a
// later block is initialized on first sight: no fixed universe of bins is
// assumed.
//
// An Accumulator is owned by its caller and carries no global state, so
// separate files can be aggregated in parallel into separate accumulators
// and combined with Merge afterwards.
type Accumulator struct {
	fields []string
	groups int //column groups per row in vector mode, fixed by the first block
	bins   map[BinKey]*binAcc
}

// NewAccumulator returns an accumulator tracking the named fields.
func NewAccumulator(fields ...string) *Accumulator {
	A := new(Accumulator)
	A.fields = make([]string, len(fields))
	copy(A.fields, fields)
	A.bins = make(map[BinKey]*binAcc)
	return A
}

// Fields returns the tracked field names.
func (A *Accumulator) Fields() []string {
	f := make([]string, len(A.fields))
	copy(f, A.fields)
	return f
}

func (A *Accumulator) bin(k BinKey) *binAcc {
	b, ok := A.bins[k]
	if !ok {
		b = &binAcc{sum: make([]float64, len(A.fields)), sumsq: make([]float64, len(A.fields))}
		A.bins[k] = b
	}
	return b
}

func parseRow(fields []string, cols []int, out []float64) error {
	for i, c := range cols {
		v, err := strconv.ParseFloat(fields[c], 64)
		if err != nil {
			return Error{fmt.Sprintf("Can't parse field %d (%s): %s", c, fields[c], err.Error()), "", []string{"parseRow"}, true}
		}
		out[i] = v
	}
	return nil
}

// Add accumulates one block. Each row contributes one sample per tracked
// field to the bin named by binfield. A zero-row block contributes nothing
// and is not an error. A row whose width disagrees with the schema aborts
// the operation: partial aggregates from a corrupt stream must not be
// emitted.
func (A *Accumulator) Add(b *block.Block, s *block.Schema, binfield string) error {
	bincol, err := s.Col(binfield)
	if err != nil {
		return errDecorate(err, "Add")
	}
	cols := make([]int, len(A.fields))
	for i, f := range A.fields {
		if cols[i], err = s.Col(f); err != nil {
			return errDecorate(err, "Add")
		}
	}
	vals := make([]float64, len(A.fields))
	for _, row := range b.Rows {
		if err := s.Check(row); err != nil {
			return errDecorate(err, "Add")
		}
		key, err := binOf(row[bincol])
		if err != nil {
			return err
		}
		if err := parseRow(row, cols, vals); err != nil {
			return err
		}
		acc := A.bin(BinKey{0, key})
		acc.count++
		floats.Add(acc.sum, vals)
		for i, v := range vals {
			acc.sumsq[i] += v * v
		}
	}
	return nil
}

// AddWeighted is Add for inputs carrying an explicit per-row sample count
// (e.g. the Ncount column of fix ave/chunk output): each row contributes
// weight samples, so the reported count is the total number of underlying
// samples and the mean is the weight-weighted one.
func (A *Accumulator) AddWeighted(b *block.Block, s *block.Schema, binfield, weightfield string) error {
	bincol, err := s.Col(binfield)
	if err != nil {
		return errDecorate(err, "AddWeighted")
	}
	wcol, err := s.Col(weightfield)
	if err != nil {
		return errDecorate(err, "AddWeighted")
	}
	cols := make([]int, len(A.fields))
	for i, f := range A.fields {
		if cols[i], err = s.Col(f); err != nil {
			return errDecorate(err, "AddWeighted")
		}
	}
	vals := make([]float64, len(A.fields))
	for _, row := range b.Rows {
		if err := s.Check(row); err != nil {
			return errDecorate(err, "AddWeighted")
		}
		key, err := binOf(row[bincol])
		if err != nil {
			return err
		}
		w, err := strconv.ParseFloat(row[wcol], 64)
		if err != nil {
			return Error{fmt.Sprintf("Can't parse weight (%s): %s", row[wcol], err.Error()), "", []string{"AddWeighted"}, true}
		}
		if err := parseRow(row, cols, vals); err != nil {
			return err
		}
		acc := A.bin(BinKey{0, key})
		acc.count += w
		for i, v := range vals {
			acc.sum[i] += v * w
			acc.sumsq[i] += v * v * w
		}
	}
	return nil
}

// AddVector accumulates a vector-mode block whose rows are a bin index
// followed by one group of the tracked fields per pair (e.g.
// `<row> <g(r) coord> <g(r) coord> ...` for a multi-pair RDF). Group p
// lands under the compound key {p, bin}. The number of groups is fixed by
// the first block; a later row of a different width is a schema mismatch.
func (A *Accumulator) AddVector(b *block.Block) error {
	nf := len(A.fields)
	vals := make([]float64, nf)
	cols := make([]int, nf)
	for _, row := range b.Rows {
		if (len(row)-1)%nf != 0 || len(row) < 1+nf {
			return Error{fmt.Sprintf("%s: vector row has %d fields, want 1+%d*n", block.SchemaMismatch, len(row), nf), "", []string{"AddVector"}, true}
		}
		groups := (len(row) - 1) / nf
		if A.groups == 0 {
			A.groups = groups
		} else if groups != A.groups {
			return Error{fmt.Sprintf("%s: vector row has %d column groups, earlier blocks had %d", block.SchemaMismatch, groups, A.groups), "", []string{"AddVector"}, true}
		}
		key, err := binOf(row[0])
		if err != nil {
			return err
		}
		for p := 0; p < groups; p++ {
			for i := range cols {
				cols[i] = 1 + p*nf + i
			}
			if err := parseRow(row, cols, vals); err != nil {
				return err
			}
			acc := A.bin(BinKey{p + 1, key})
			acc.count++
			floats.Add(acc.sum, vals)
			for i, v := range vals {
				acc.sumsq[i] += v * v
			}
		}
	}
	return nil
}

// Merge folds other into the receiver. Aggregating a stream split across
// two accumulators and merging them gives the same result as aggregating
// the concatenated stream in one pass.
func (A *Accumulator) Merge(other *Accumulator) error {
	if len(A.fields) != len(other.fields) {
		return Error{"Can't merge accumulators tracking different fields", "", []string{"Merge"}, true}
	}
	for i, v := range A.fields {
		if other.fields[i] != v {
			return Error{"Can't merge accumulators tracking different fields", "", []string{"Merge"}, true}
		}
	}
	if A.groups == 0 {
		A.groups = other.groups
	} else if other.groups != 0 && other.groups != A.groups {
		return Error{fmt.Sprintf("%s: merging accumulators with %d and %d column groups", block.SchemaMismatch, A.groups, other.groups), "", []string{"Merge"}, true}
	}
	for k, o := range other.bins {
		acc := A.bin(k)
		acc.count += o.count
		floats.Add(acc.sum, o.sum)
		floats.Add(acc.sumsq, o.sumsq)
	}
	return nil
}

// Row is one line of aggregated output: a bin, its total sample count and
// the mean and variance of each tracked field. The variance is Inf for
// bins with fewer than two samples, like the original running-variance
// estimate.
type Row struct {
	Key   BinKey
	Count float64
	Mean  []float64
	Var   []float64
}

// Result returns the aggregated rows ordered by bin key (pair first, then
// bin). Means and variances are computed here, once, from the running
// sums.
func (A *Accumulator) Result() []Row {
	keys := make([]BinKey, 0, len(A.bins))
	for k := range A.bins {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Pair != keys[j].Pair {
			return keys[i].Pair < keys[j].Pair
		}
		return keys[i].Bin < keys[j].Bin
	})
	res := make([]Row, 0, len(keys))
	for _, k := range keys {
		acc := A.bins[k]
		r := Row{Key: k, Count: acc.count}
		r.Mean = make([]float64, len(A.fields))
		r.Var = make([]float64, len(A.fields))
		floats.ScaleTo(r.Mean, 1/acc.count, acc.sum)
		for i := range r.Var {
			if acc.count < 2 {
				r.Var[i] = math.Inf(1)
				continue
			}
			r.Var[i] = (acc.sumsq[i] - acc.sum[i]*acc.sum[i]/acc.count) / (acc.count - 1)
			if r.Var[i] < 0 {
				r.Var[i] = 0 //tiny negative values from cancellation
			}
		}
		res = append(res, r)
	}
	return res
}

func binOf(field string) (int, error) {
	//fix ave/chunk writes the chunk index as "1", but computed bins can
	//come out as "1.0", so we go through float.
	f, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, Error{fmt.Sprintf("Can't parse bin key (%s): %s", field, err.Error()), "", []string{"binOf"}, true}
	}
	return int(f), nil
}

// AverageFile opens the named profile file (decompressing by suffix),
// resolves the column legend, and averages the named fields over all its
// blocks, keyed by binfield. With no fields given, every legend column
// except binfield is tracked. Structural errors abort the whole operation.
func AverageFile(name, binfield string, fields ...string) (*Accumulator, error) {
	S, err := block.NewFileScanner(name, block.ChunkHeader)
	if err != nil {
		return nil, err
	}
	defer S.Close()
	var b block.Block
	var schema *block.Schema
	var A *Accumulator
	for {
		err := S.Next(&b)
		if err != nil {
			if _, ok := err.(lmp.LastFrameError); ok {
				break
			}
			return nil, err
		}
		if schema == nil {
			//the legend is only complete once the first header was passed
			schema, err = block.FromLegend(S.Legend())
			if err != nil {
				return nil, errDecorate(err, "AverageFile")
			}
			if len(fields) == 0 {
				//legend names are lowercased, so the bin field must be too
				//or a mixed-case one would also end up averaged
				for _, v := range schema.Names() {
					if v != strings.ToLower(binfield) {
						fields = append(fields, v)
					}
				}
			}
			A = NewAccumulator(fields...)
		}
		if err := A.Add(&b, schema, binfield); err != nil {
			return nil, errDecorate(err, "AverageFile")
		}
	}
	if A == nil {
		return nil, Error{"No blocks in profile file", name, []string{"AverageFile"}, true}
	}
	return A, nil
}

// WriteTable writes the bin->mean table as text, one row per bin, with a
// `#`-led column header. Scalar-keyed accumulators get `bin count ...`
// columns; vector-mode ones get an extra leading `pair` column. If
// witherr, a std_<field> column follows each field, like the original
// error tables.
func WriteTable(w io.Writer, A *Accumulator, witherr bool) error {
	vector := A.groups > 0
	head := "# bin count"
	if vector {
		head = "# pair bin count"
	}
	for _, f := range A.fields {
		head += " " + f
		if witherr {
			head += " std_" + f
		}
	}
	if _, err := fmt.Fprintf(w, "%s\n", head); err != nil {
		return err
	}
	for _, r := range A.Result() {
		if vector {
			if _, err := fmt.Fprintf(w, "%4d %6d %12.4f", r.Key.Pair, r.Key.Bin, r.Count); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintf(w, "%6d %12.4f", r.Key.Bin, r.Count); err != nil {
				return err
			}
		}
		for i := range A.fields {
			if _, err := fmt.Fprintf(w, " %14.6g", r.Mean[i]); err != nil {
				return err
			}
			if witherr {
				if _, err := fmt.Fprintf(w, " %14.6g", math.Sqrt(r.Var[i])); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the aggregated table to the named file (compressing by
// suffix). The table goes to a temporary file in the same directory first
// and is renamed into place on success, so an aborted run never leaves a
// partial table that looks complete.
func WriteFile(name string, A *Accumulator, witherr bool) error {
	dir := filepath.Dir(name)
	tmp, err := os.CreateTemp(dir, filepath.Base(name)+".tmp*")
	if err != nil {
		return err
	}
	z, err := lmp.CompressingWriter(name, tmp)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	err = WriteTable(z, A, witherr)
	if err2 := z.Close(); err == nil {
		err = err2
	}
	if err2 := tmp.Close(); err == nil {
		err = err2
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), name)
}

//Errors

// errDecorate asserts that err implements lmp.Error and decorates it with
// the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(lmp.Error)
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for profile aggregation errors. It
// fulfills lmp.Error and lmp.ParseError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("profile %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since E.deco is a slice, and hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing aggregation was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format associated to the error (always "profile")
func (err Error) Format() string { return "profile" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }
