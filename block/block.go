//Package block splits LAMMPS-style text streams into their repeating
//header+rows blocks, and resolves the column layout of the rows.
//
//Chunk-averaged profiles, vector-mode time averages (RDFs) and dump
//trajectories all share the same convention: a short header line declaring
//a timestep and a row count, followed by exactly that many data rows. Only
//the header shape differs between formats, so the scanner takes the header
//recognizer as a function.
package block

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	lmp "github.com/golmp/golmp"
)

// Block is one header plus its data rows. The rows are kept as raw
// whitespace-split fields; interpreting them is the schema's business.
type Block struct {
	Step int64      //timestep declared by the header
	Rows [][]string //fields of each data row
	Line int        //line number of the header within the stream, for error context
}

// HeaderFunc recognizes a block header among the whitespace-split fields
// of a line. ok is false if the line is not a header of the expected shape.
type HeaderFunc func(fields []string) (step int64, rows int, ok bool)

// ChunkHeader recognizes the `<timestep> <nrows> [<total-count>]` headers
// written by fix ave/chunk and vector-mode fix ave/time. All fields must be
// integers, which is what keeps it from matching data rows in a malformed
// stream: those carry decimal points.
func ChunkHeader(fields []string) (int64, int, bool) {
	if len(fields) != 2 && len(fields) != 3 {
		return 0, 0, false
	}
	step, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	rows, err := strconv.Atoi(fields[1])
	if err != nil || rows < 0 {
		return 0, 0, false
	}
	if len(fields) == 3 {
		if _, err := strconv.Atoi(fields[2]); err != nil {
			return 0, 0, false
		}
	}
	return step, rows, true
}

// Scanner produces the blocks of one stream, forward only. It is not
// restartable once consumed. Comment lines ('#') found between blocks are
// collected in Comments; the column legend of profile/RDF files lives
// there.
type Scanner struct {
	h        *bufio.Reader
	close    io.Closer //nil unless we own the underlying file
	header   HeaderFunc
	filename string
	line     int
	done     bool
	Comments []string
}

// NewScanner returns a Scanner over r. The name is only used to give
// errors context and may be empty.
func NewScanner(r io.Reader, header HeaderFunc, name ...string) *Scanner {
	S := new(Scanner)
	S.h = bufio.NewReader(r)
	S.header = header
	if len(name) > 0 {
		S.filename = name[0]
	}
	return S
}

// NewFileScanner opens the named file (decompressing by suffix) and
// returns a Scanner over it. Close the scanner when done.
func NewFileScanner(name string, header HeaderFunc) (*Scanner, error) {
	f, err := lmp.OpenStream(name)
	if err != nil {
		return nil, Error{lmp.UnableToOpen + ": " + err.Error(), name, []string{"NewFileScanner"}, true}
	}
	S := NewScanner(f, header, name)
	S.close = f
	return S, nil
}

// Close releases the underlying file, if the scanner owns one.
func (S *Scanner) Close() {
	if S.close != nil {
		S.close.Close()
		S.close = nil
	}
	S.done = true
}

// reads the next line, counting it. An EOF with a non-empty remainder
// still yields that remainder once.
func (S *Scanner) readLine() (string, error) {
	line, err := S.h.ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return "", err
	}
	S.line++
	return line, nil
}

// Next fills b with the next block of the stream, reusing its Rows
// storage. At the normal end of the stream it returns an error
// implementing lmp.LastFrameError; anything else is a critical error.
// A header declaring N rows with fewer than N rows following before
// end-of-stream or the next header is a malformed block.
func (S *Scanner) Next(b *Block) error {
	if S.done {
		return newLastBlockError(S.filename, "Next")
	}
	var step int64
	var rows int
	//look for the next header, collecting comments on the way
	for {
		line, err := S.readLine()
		if err != nil {
			S.done = true
			return newLastBlockError(S.filename, "Next")
		}
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "#") {
			S.Comments = append(S.Comments, t)
			continue
		}
		var ok bool
		step, rows, ok = S.header(strings.Fields(t))
		if !ok {
			return Error{fmt.Sprintf("%s: expected a block header at line %d, got: %s", MalformedBlock, S.line, t), S.filename, []string{"Next"}, true}
		}
		break
	}
	b.Step = step
	b.Line = S.line
	b.Rows = b.Rows[:0]
	for len(b.Rows) < rows {
		line, err := S.readLine()
		if err != nil {
			S.done = true
			return Error{fmt.Sprintf("%s: header at line %d declares %d rows but the stream ends after %d", MalformedBlock, b.Line, rows, len(b.Rows)), S.filename, []string{"Next"}, true}
		}
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") {
			continue //blank and comment lines don't count against the body
		}
		if _, _, ok := S.header(strings.Fields(t)); ok {
			return Error{fmt.Sprintf("%s: header at line %d declares %d rows but a new header appears after %d", MalformedBlock, b.Line, rows, len(b.Rows)), S.filename, []string{"Next"}, true}
		}
		b.Rows = append(b.Rows, strings.Fields(t))
	}
	return nil
}

// Legend returns the last comment line seen so far, which for profile and
// RDF files is the column legend, or the empty string if none was found.
// Call it after the first Next so the leading metadata comments have been
// read.
func (S *Scanner) Legend() string {
	if len(S.Comments) == 0 {
		return ""
	}
	return S.Comments[len(S.Comments)-1]
}

//Errors

// errDecorate asserts that err implements lmp.Error and decorates it with
// the caller's name before returning it. Using it with anything else
// panics.
func errDecorate(err error, caller string) error {
	err2 := err.(lmp.Error)
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for block stream errors. It fulfills
// lmp.Error and lmp.ParseError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("block stream %s error: %s", err.filename, err.message)
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

// FileName returns the file to which the failing stream was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format associated to the error (always "block")
func (err Error) Format() string { return "block" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	MalformedBlock = "Malformed block"
	SchemaMismatch = "Row width does not match the resolved schema"
	ColumnNotFound = "Requested column not in schema"
)

// lastBlockError implements lmp.LastFrameError: the stream simply ended.
type lastBlockError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E lastBlockError) NormalLastFrameTermination() {}

func (E lastBlockError) FileName() string { return E.fileName }

func (E lastBlockError) Error() string { return "EOF" }

func (E lastBlockError) Critical() bool { return false }

func (E lastBlockError) Format() string { return "block" }

func (E lastBlockError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newLastBlockError(filename string, caller string) *lastBlockError {
	e := new(lastBlockError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
