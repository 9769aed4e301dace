//Package thermo parses the thermodynamic output sections of log files.
//A log may hold several runs, each opened by a Step legend line and
//closed by a Loop time line (or by the next legend, when the run was cut
//short); the package recovers each run as a labeled table and can stitch
//one quantity across all runs into a single series, remembering where
//the restarts were.
package thermo

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	lmp "github.com/golmp/golmp"
	"github.com/golmp/golmp/block"
)

// Run is the thermo table of one run: the lowercased column names of its
// legend and one row of values per reported step. Line is the line of the
// log where the legend was found, for error messages.
type Run struct {
	Keys []string
	Data [][]float64
	Line int
}

// Steps returns the step column of the run as int64, or an error if the
// run has no step column.
func (R *Run) Steps() ([]int64, error) {
	s := block.Fixed(R.Keys...)
	col, err := s.Col("step")
	if err != nil {
		return nil, errDecorate(err, "Steps")
	}
	steps := make([]int64, len(R.Data))
	for i, row := range R.Data {
		steps[i] = int64(row[col])
	}
	return steps, nil
}

// Column returns the named column of the run. The lookup is
// case-insensitive; asking for a quantity this run never reported is a
// recoverable error.
func (R *Run) Column(name string) ([]float64, error) {
	s := block.Fixed(R.Keys...)
	col, err := s.Col(name)
	if err != nil {
		return nil, errDecorate(err, "Column")
	}
	vals := make([]float64, len(R.Data))
	for i, row := range R.Data {
		vals[i] = row[col]
	}
	return vals, nil
}

// isLegend reports whether the fields open a thermo section. LAMMPS
// always puts Step first in the default thermo styles this parser
// targets.
func isLegend(fields []string) bool {
	return len(fields) > 0 && strings.EqualFold(fields[0], "step")
}

// ReadLog scans a log stream and returns its thermo runs, in order. Lines
// outside thermo sections are ignored. Within a section, a row whose
// width disagrees with the legend (minimization output and warnings end
// up interleaved there) is skipped with a heads-up rather than aborting
// the read; a run with no rows at all is still returned, empty.
func ReadLog(r io.Reader, name ...string) ([]*Run, error) {
	filename := ""
	if len(name) > 0 {
		filename = name[0]
	}
	h := bufio.NewReader(r)
	var runs []*Run
	var cur *Run
	var schema *block.Schema
	line := 0
	for {
		text, err := h.ReadString('\n')
		if err != nil && strings.TrimSpace(text) == "" {
			break
		}
		line++
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if isLegend(fields) {
			//a legend inside an open run means the previous run ended
			//without a Loop time line; we keep what it produced.
			cur = &Run{Line: line}
			schema, err = block.FromLegend(text)
			if err != nil {
				return runs, errDecorate(err, "ReadLog")
			}
			cur.Keys = schema.Names()
			runs = append(runs, cur)
			continue
		}
		if cur == nil {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(text), "Loop time") {
			cur = nil
			continue
		}
		row := make([]float64, len(fields))
		numeric := true
		for i, f := range fields {
			if row[i], err = strconv.ParseFloat(f, 64); err != nil {
				numeric = false
				break
			}
		}
		if !numeric {
			continue //warnings and other chatter inside the section
		}
		if err := schema.Check(fields); err != nil {
			log.Printf("thermo: %s line %d: row width %d does not match the %d-column legend, skipping it", filename, line, len(fields), len(cur.Keys))
			continue
		}
		cur.Data = append(cur.Data, row)
	}
	if len(runs) == 0 {
		return nil, Error{NoThermoData, filename, []string{"ReadLog"}, true}
	}
	return runs, nil
}

// FileRead reads the thermo runs of the named log file, decompressing by
// suffix.
func FileRead(name string) ([]*Run, error) {
	f, err := lmp.OpenStream(name)
	if err != nil {
		return nil, Error{lmp.UnableToOpen + ": " + err.Error(), name, []string{"FileRead"}, true}
	}
	defer f.Close()
	runs, err := ReadLog(f, name)
	if err != nil {
		return nil, errDecorate(err, "FileRead")
	}
	return runs, nil
}

// SeriesPoint is one sample of a thermo quantity.
type SeriesPoint struct {
	Step  int64
	Value float64
}

// Series is one thermo quantity concatenated across the runs of a log.
// Restarts holds the index in Points where each run after the first
// begins, so plots and statistics can be split back per run. A log of a
// single run has no restarts.
type Series struct {
	Points   []SeriesPoint
	Restarts []int
}

// Len returns the number of points in the series.
func (S *Series) Len() int {
	return len(S.Points)
}

// Values returns the values of the series, in order.
func (S *Series) Values() []float64 {
	v := make([]float64, len(S.Points))
	for i, p := range S.Points {
		v[i] = p.Value
	}
	return v
}

// Mean returns the mean of the series.
func (S *Series) Mean() float64 {
	return stat.Mean(S.Values(), nil)
}

// Stdev returns the sample standard deviation of the series.
func (S *Series) Stdev() float64 {
	return stat.StdDev(S.Values(), nil)
}

// LogSeries stitches the named quantity across the given runs. A run
// that never reported the quantity contributes nothing, with a heads-up;
// only if no run at all has it does the extraction fail. Steps repeat
// across restarts in the log itself and are kept as reported.
func LogSeries(runs []*Run, field string) (*Series, error) {
	S := new(Series)
	found := false
	for i, R := range runs {
		vals, err := R.Column(field)
		if err != nil {
			log.Printf("thermo: run %d (legend at line %d) does not report %q, skipping it", i+1, R.Line, field)
			continue
		}
		steps, err := R.Steps()
		if err != nil {
			return nil, errDecorate(err, "LogSeries")
		}
		found = true
		if len(S.Points) > 0 {
			S.Restarts = append(S.Restarts, len(S.Points))
		}
		for j := range vals {
			S.Points = append(S.Points, SeriesPoint{Step: steps[j], Value: vals[j]})
		}
	}
	if !found {
		return nil, Error{fmt.Sprintf("%s: no run reports %q", block.ColumnNotFound, field), "", []string{"LogSeries"}, false}
	}
	return S, nil
}

// FileSeries reads the named log and extracts one quantity across all its
// runs.
func FileSeries(name, field string) (*Series, error) {
	runs, err := FileRead(name)
	if err != nil {
		return nil, errDecorate(err, "FileSeries")
	}
	S, err := LogSeries(runs, field)
	if err != nil {
		return nil, errDecorate(err, "FileSeries")
	}
	return S, nil
}

//Errors

// errDecorate asserts that err implements lmp.Error and decorates it with
// the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(lmp.Error)
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for thermo log errors. It fulfills
// lmp.Error and lmp.ParseError.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("thermo log %s error: %s", err.filename, err.message)
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

// FileName returns the file to which the failing log was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "log") associated to the error
func (err Error) Format() string { return "log" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	NoThermoData = "No thermo sections found in the log"
)
