//Package lmptrj reads lammpstrj dump trajectories and down-samples them.
//Frames are self-describing (each header declares how many atom records
//follow), so both reading and sampling hold one frame in memory at most,
//no matter how large the file is.
package lmptrj

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	lmp "github.com/golmp/golmp"
	"github.com/golmp/golmp/block"
	"github.com/golmp/golmp/top"
)

// TrjObj is a handle for reading a lammpstrj trajectory. It implements
// lmp.Traj. The ATOMS column legend is resolved once, on the first frame;
// the id, x, y and z columns are located by name instead of by position,
// so reordered dumps read fine and a missing coordinate column fails
// loudly.
type TrjObj struct {
	stream   io.ReadCloser
	h        *bufio.Reader
	filename string
	natoms   int
	step     int64
	box      [9]float64 //xlo xhi ylo yhi zlo zhi xy xz yz
	triclin  bool
	legend   string
	schema   *block.Schema
	xcol     int
	ycol     int
	zcol     int
	idcol    int //-1 when the dump has no id column
	typecol  int //-1 when absent
	molcol   int //-1 when absent
	ids      []int
	types    []int
	mols     []int
	peeked   bool //New consumes the first frame's timestep/atom count so Len works before Next
	readable bool
}

// New opens the named trajectory (decompressing by suffix) and reads the
// first frame's header far enough to learn the atom count, so the caller
// can size the coordinate matrix before the first Next.
func New(name string) (*TrjObj, error) {
	T := new(TrjObj)
	T.filename = name
	T.natoms = -1
	var err error
	T.stream, err = lmp.OpenStream(name)
	if err != nil {
		return nil, Error{lmp.UnableToOpen + ": " + err.Error(), name, []string{"New"}, true}
	}
	T.h = bufio.NewReader(T.stream)
	if err := T.frameCounts(); err != nil {
		T.stream.Close()
		return nil, errDecorate(err, "New")
	}
	T.peeked = true
	T.readable = true
	return T, nil
}

// Readable returns true if it is possible to call Next on the handle.
func (T *TrjObj) Readable() bool {
	return T.readable
}

// Len returns the number of atoms per frame (of the last frame read, as a
// dump may in principle change it).
func (T *TrjObj) Len() int {
	return T.natoms
}

// Step returns the timestep of the last frame read.
func (T *TrjObj) Step() int64 {
	return T.step
}

func (T *TrjObj) readLine() (string, error) {
	line, err := T.h.ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return "", err
	}
	return line, nil
}

// expects a line starting with the given ITEM marker and returns whatever
// follows the marker.
func (T *TrjObj) expect(marker string) (string, error) {
	line, err := T.readLine()
	if err != nil {
		return "", Error{fmt.Sprintf("%s: stream ends where %q was expected", TruncatedFrame, marker), T.filename, []string{"expect"}, true}
	}
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, marker) {
		return "", Error{fmt.Sprintf("%s: expected %q, got: %s", WrongFormat, marker, t), T.filename, []string{"expect"}, true}
	}
	return strings.TrimSpace(strings.TrimPrefix(t, marker)), nil
}

// frameCounts consumes the TIMESTEP and NUMBER OF ATOMS entries opening a
// frame. At a clean end of stream it returns a lmp.LastFrameError.
func (T *TrjObj) frameCounts() error {
	line, err := T.readLine()
	if err != nil {
		//nothing bad happened, the trajectory just ended
		return newlastFrameError(T.filename, "frameCounts")
	}
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "ITEM: TIMESTEP") {
		return Error{fmt.Sprintf("%s: expected \"ITEM: TIMESTEP\", got: %s", WrongFormat, t), T.filename, []string{"frameCounts"}, true}
	}
	s, err := T.readLine()
	if err != nil {
		return Error{TruncatedFrame, T.filename, []string{"frameCounts"}, true}
	}
	if T.step, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
		return Error{fmt.Sprintf("%s: can't read timestep (%s)", WrongFormat, strings.TrimSpace(s)), T.filename, []string{"frameCounts"}, true}
	}
	if _, err = T.expect("ITEM: NUMBER OF ATOMS"); err != nil {
		return err
	}
	n, err := T.readLine()
	if err != nil {
		return Error{TruncatedFrame, T.filename, []string{"frameCounts"}, true}
	}
	if T.natoms, err = strconv.Atoi(strings.TrimSpace(n)); err != nil || T.natoms < 0 {
		return Error{fmt.Sprintf("%s: can't read atom count (%s)", WrongFormat, strings.TrimSpace(n)), T.filename, []string{"frameCounts"}, true}
	}
	return nil
}

func (T *TrjObj) frameBox() error {
	rest, err := T.expect("ITEM: BOX BOUNDS")
	if err != nil {
		return err
	}
	T.triclin = strings.Contains(rest, "xy")
	for i := 0; i < 3; i++ {
		line, err := T.readLine()
		if err != nil {
			return Error{TruncatedFrame, T.filename, []string{"frameBox"}, true}
		}
		f := strings.Fields(line)
		if len(f) < 2 {
			return Error{fmt.Sprintf("%s: short box bounds line: %s", WrongFormat, strings.TrimSpace(line)), T.filename, []string{"frameBox"}, true}
		}
		if T.box[2*i], err = strconv.ParseFloat(f[0], 64); err != nil {
			return Error{fmt.Sprintf("%s: can't read box bound (%s)", WrongFormat, f[0]), T.filename, []string{"frameBox"}, true}
		}
		if T.box[2*i+1], err = strconv.ParseFloat(f[1], 64); err != nil {
			return Error{fmt.Sprintf("%s: can't read box bound (%s)", WrongFormat, f[1]), T.filename, []string{"frameBox"}, true}
		}
		if len(f) > 2 && T.triclin {
			if T.box[6+i], err = strconv.ParseFloat(f[2], 64); err != nil {
				return Error{fmt.Sprintf("%s: can't read tilt factor (%s)", WrongFormat, f[2]), T.filename, []string{"frameBox"}, true}
			}
		}
	}
	return nil
}

// frameLegend resolves the ATOMS column schema on the first frame and
// pins it: a later frame with a different legend is a schema mismatch,
// not a silent re-resolution.
func (T *TrjObj) frameLegend() error {
	legend, err := T.expect("ITEM: ATOMS")
	if err != nil {
		return err
	}
	if T.schema != nil {
		if legend != T.legend {
			return Error{fmt.Sprintf("%s: frame legend %q differs from the stream's %q", block.SchemaMismatch, legend, T.legend), T.filename, []string{"frameLegend"}, true}
		}
		return nil
	}
	T.legend = legend
	T.schema, err = block.FromLegend(legend)
	if err != nil {
		return errDecorate(err, "frameLegend")
	}
	if T.xcol, err = T.schema.Col("x"); err != nil {
		return errDecorate(err, "frameLegend")
	}
	if T.ycol, err = T.schema.Col("y"); err != nil {
		return errDecorate(err, "frameLegend")
	}
	if T.zcol, err = T.schema.Col("z"); err != nil {
		return errDecorate(err, "frameLegend")
	}
	//these are optional; -1 marks absence
	T.idcol, T.typecol, T.molcol = -1, -1, -1
	if c, err := T.schema.Col("id"); err == nil {
		T.idcol = c
	}
	if c, err := T.schema.Col("type"); err == nil {
		T.typecol = c
	}
	if c, err := T.schema.Col("mol"); err == nil {
		T.molcol = c
	}
	return nil
}

// Next puts the coordinates of the next frame in c, in file order, or
// discards the frame if c is nil (counts are still validated). If box is
// given, its first 6 elements get xlo,xhi,ylo,yhi,zlo,zhi and, when the
// slice holds 9 and the box is triclinic, the tilt factors follow.
// The returned error is a lmp.LastFrameError at the normal end of the
// trajectory.
func (T *TrjObj) Next(c *mat.Dense, box ...[]float64) error {
	if !T.readable {
		return Error{TrajUnIniRead, T.filename, []string{"Next"}, true}
	}
	if !T.peeked {
		if err := T.frameCounts(); err != nil {
			if _, ok := err.(lmp.LastFrameError); ok {
				T.Close()
			}
			return err
		}
	}
	T.peeked = false
	if err := T.frameBox(); err != nil {
		return err
	}
	if err := T.frameLegend(); err != nil {
		return err
	}
	if c != nil {
		if r, co := c.Dims(); r != T.natoms || co < 3 {
			return Error{fmt.Sprintf("%s: frame holds %d atoms, matrix is %dx%d", NotEnoughSpace, T.natoms, r, co), T.filename, []string{"Next"}, true}
		}
		T.ids = resize(T.ids, T.natoms)
		T.types = resize(T.types, T.natoms)
		T.mols = resize(T.mols, T.natoms)
	}
	for i := 0; i < T.natoms; i++ {
		line, err := T.readLine()
		if err != nil {
			return Error{fmt.Sprintf("%s: frame at step %d declares %d atoms but the stream ends after %d", TruncatedFrame, T.step, T.natoms, i), T.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue //we ignore this frame, counting its lines but not parsing them
		}
		f := strings.Fields(line)
		if err := T.schema.Check(f); err != nil {
			return errDecorate(err, "Next")
		}
		var x, y, z float64
		if x, err = strconv.ParseFloat(f[T.xcol], 64); err != nil {
			return Error{fmt.Sprintf("%s: can't read coordinate (%s)", WrongFormat, f[T.xcol]), T.filename, []string{"Next"}, true}
		}
		if y, err = strconv.ParseFloat(f[T.ycol], 64); err != nil {
			return Error{fmt.Sprintf("%s: can't read coordinate (%s)", WrongFormat, f[T.ycol]), T.filename, []string{"Next"}, true}
		}
		if z, err = strconv.ParseFloat(f[T.zcol], 64); err != nil {
			return Error{fmt.Sprintf("%s: can't read coordinate (%s)", WrongFormat, f[T.zcol]), T.filename, []string{"Next"}, true}
		}
		c.Set(i, 0, x)
		c.Set(i, 1, y)
		c.Set(i, 2, z)
		T.ids[i] = i + 1
		T.types[i] = 1
		T.mols[i] = 1
		if T.idcol >= 0 {
			if T.ids[i], err = strconv.Atoi(f[T.idcol]); err != nil {
				return Error{fmt.Sprintf("%s: can't read atom id (%s)", WrongFormat, f[T.idcol]), T.filename, []string{"Next"}, true}
			}
		}
		if T.typecol >= 0 {
			if T.types[i], err = strconv.Atoi(f[T.typecol]); err != nil {
				return Error{fmt.Sprintf("%s: can't read atom type (%s)", WrongFormat, f[T.typecol]), T.filename, []string{"Next"}, true}
			}
		}
		if T.molcol >= 0 {
			if T.mols[i], err = strconv.Atoi(f[T.molcol]); err != nil {
				return Error{fmt.Sprintf("%s: can't read molecule id (%s)", WrongFormat, f[T.molcol]), T.filename, []string{"Next"}, true}
			}
		}
	}
	if len(box) > 0 && len(box[0]) >= 6 {
		copy(box[0][:6], T.box[:6])
		if len(box[0]) >= 9 && T.triclin {
			copy(box[0][6:9], T.box[6:9])
		}
	}
	return nil
}

func resize(s []int, n int) []int {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]int, n)
}

// Box returns the bounds of the last frame read as a lmp.Box.
func (T *TrjObj) Box() *lmp.Box {
	b := &lmp.Box{
		XLo: T.box[0], XHi: T.box[1],
		YLo: T.box[2], YHi: T.box[3],
		ZLo: T.box[4], ZHi: T.box[5],
	}
	if T.triclin {
		b.XY, b.XZ, b.YZ = T.box[6], T.box[7], T.box[8]
		b.Triclin = true
	}
	return b
}

// FrameToGro writes the last frame read (its coordinates must still be in
// c, from the same Next call) as a gro coordinate file, atoms ordered by
// id, names falling back to X<type> when the dump carries no element
// information.
func (T *TrjObj) FrameToGro(c *mat.Dense, w io.Writer) error {
	if c == nil {
		return Error{NilCoordinates, T.filename, []string{"FrameToGro"}, true}
	}
	if r, _ := c.Dims(); r != T.natoms || len(T.ids) != T.natoms {
		return Error{fmt.Sprintf("%s: matrix does not hold the last frame read", NotEnoughSpace), T.filename, []string{"FrameToGro"}, true}
	}
	Top := lmp.NewTopology()
	for i := 0; i < T.natoms; i++ {
		Top.Atoms = append(Top.Atoms, &lmp.Atom{
			ID:    T.ids[i],
			MolID: T.mols[i],
			Type:  T.types[i],
			Name:  "X" + strconv.Itoa(T.types[i]),
			X:     c.At(i, 0),
			Y:     c.At(i, 1),
			Z:     c.At(i, 2),
		})
	}
	Top.Box = T.Box()
	return top.WriteGro(w, Top, nil)
}

// Close closes the handle and marks it as unreadable.
func (T *TrjObj) Close() {
	if !T.readable {
		return
	}
	T.stream.Close()
	T.readable = false
}

//Errors

// errDecorate asserts that err implements lmp.Error and decorates it with
// the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(lmp.Error)
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for lammpstrj errors. It fulfills
// lmp.Error and lmp.ParseError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("lammpstrj file %s error: %s", err.filename, err.message)
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

// FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "lammpstrj") associated to the error
func (err Error) Format() string { return "lammpstrj" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TruncatedFrame = "Frame declares more atom records than the stream holds"
	WrongFormat    = "Wrong format in the lammpstrj file or frame"
	NotEnoughSpace = "Not enough space in passed matrix"
	NilCoordinates = "Given nil coordinates"
	UnableToCreate = "Unable to create file"
	InvalidStride  = "Stride must be at least 1"
)

// lastFrameError implements lmp.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return "lammpstrj" }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
