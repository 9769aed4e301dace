//Package top reads LAMMPS data files into a typed lmp.Topology and
//converts them to GROMACS gro coordinate files. Only the structural
//sections are kept (header counts, box bounds, Masses, Atoms, Velocities,
//Bonds, Angles, Dihedrals, Impropers); coefficient sections are skipped.
package top

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	lmp "github.com/golmp/golmp"
)

//header count keywords we track against their sections
var counted = map[string]string{
	"atoms":     "Atoms",
	"bonds":     "Bonds",
	"angles":    "Angles",
	"dihedrals": "Dihedrals",
	"impropers": "Impropers",
}

//sections recognized in the body. Matching is by prefix, as section lines
//can carry a style hint comment (e.g. "Atoms # full") which the comment
//stripping already removed, or a two-word name ("Pair Coeffs").
var sections = []string{
	"Masses",
	"Pair Coeffs",
	"PairIJ Coeffs",
	"Bond Coeffs",
	"Angle Coeffs",
	"Dihedral Coeffs",
	"Improper Coeffs",
	"Atoms",
	"Velocities",
	"Bonds",
	"Angles",
	"Dihedrals",
	"Impropers",
}

type reader struct {
	T        *lmp.Topology
	declared map[string]int
	got      map[string]int
	filename string
	line     int
}

// Read parses a LAMMPS data file from r into a Topology, checking that
// every section holds as many records as the header declared for it, and
// that no bond/angle/dihedral/improper references a missing atom ID.
// The name is only used for error context.
func Read(r io.Reader, name ...string) (*lmp.Topology, error) {
	R := new(reader)
	R.T = lmp.NewTopology()
	R.declared = make(map[string]int)
	R.got = make(map[string]int)
	if len(name) > 0 {
		R.filename = name[0]
	}
	h := bufio.NewReader(r)
	//the first line of a data file is a free-form comment
	if _, err := h.ReadString('\n'); err != nil {
		return nil, Error{"Empty data file", R.filename, []string{"Read"}, true}
	}
	R.line = 1
	current := ""
	for {
		raw, err := h.ReadString('\n')
		if err != nil && strings.TrimSpace(raw) == "" {
			break
		}
		R.line++
		s := strings.TrimSpace(strings.SplitN(raw, "#", 2)[0])
		if s == "" {
			continue
		}
		if sec := sectionOf(s); sec != "" {
			if err := R.checkCount(current); err != nil {
				return nil, err
			}
			current = sec
			continue
		}
		if current == "" {
			//still in the header: counts and box bounds
			if R.headerLine(s) {
				continue
			}
			return nil, Error{fmt.Sprintf("Unrecognized header line %d: %s", R.line, s), R.filename, []string{"Read"}, true}
		}
		if err := R.sectionLine(current, s); err != nil {
			return nil, err
		}
	}
	if err := R.checkCount(current); err != nil {
		return nil, err
	}
	//sections declared in the header must have shown up
	for key, sec := range counted {
		if n, ok := R.declared[key]; ok && R.got[sec] != n {
			return nil, Error{fmt.Sprintf("%s: header declares %d %s, section %s has %d", SectionCountMismatch, n, key, sec, R.got[sec]), R.filename, []string{"Read"}, true}
		}
	}
	if err := R.T.CheckIntegrity(); err != nil {
		return nil, errDecorate(err, "Read")
	}
	return R.T, nil
}

// FileRead reads the named data file (decompressing by suffix).
func FileRead(name string) (*lmp.Topology, error) {
	f, err := lmp.OpenStream(name)
	if err != nil {
		return nil, Error{lmp.UnableToOpen + ": " + err.Error(), name, []string{"FileRead"}, true}
	}
	defer f.Close()
	return Read(f, name)
}

func sectionOf(s string) string {
	for _, v := range sections {
		if strings.HasPrefix(s, v) {
			return v
		}
	}
	return ""
}

// validates a finished section against its declared header count.
// Sections with no declared count (coeffs, Masses) are not checked here.
func (R *reader) checkCount(section string) error {
	if section == "" {
		return nil
	}
	for key, sec := range counted {
		if sec != section {
			continue
		}
		n, ok := R.declared[key]
		if ok && R.got[sec] != n {
			return Error{fmt.Sprintf("%s: header declares %d %s, section %s has %d", SectionCountMismatch, n, key, sec, R.got[sec]), R.filename, []string{"checkCount"}, true}
		}
	}
	return nil
}

// headerLine consumes one line of the pre-section header. Returns false
// if the line is not a count, box-bounds or type-count line.
func (R *reader) headerLine(s string) bool {
	f := strings.Fields(s)
	//count lines: `N atoms`, `N bond types`, `N extra bond per atom`...
	if n, err := strconv.Atoi(f[0]); err == nil && len(f) >= 2 {
		key := strings.Join(f[1:], " ")
		R.declared[key] = n
		return true
	}
	//box bounds: `lo hi xlo xhi` and the tilt line `xy xz yz`
	if len(f) == 4 && strings.HasSuffix(f[2], "lo") {
		lo, err1 := strconv.ParseFloat(f[0], 64)
		hi, err2 := strconv.ParseFloat(f[1], 64)
		if err1 != nil || err2 != nil {
			return false
		}
		if hi < lo {
			lo, hi = hi, lo
		}
		if R.T.Box == nil {
			R.T.Box = new(lmp.Box)
		}
		switch f[2] {
		case "xlo":
			R.T.Box.XLo, R.T.Box.XHi = lo, hi
		case "ylo":
			R.T.Box.YLo, R.T.Box.YHi = lo, hi
		case "zlo":
			R.T.Box.ZLo, R.T.Box.ZHi = lo, hi
		default:
			return false
		}
		return true
	}
	if len(f) == 6 && f[3] == "xy" && f[4] == "xz" && f[5] == "yz" {
		xy, err1 := strconv.ParseFloat(f[0], 64)
		xz, err2 := strconv.ParseFloat(f[1], 64)
		yz, err3 := strconv.ParseFloat(f[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return false
		}
		if R.T.Box == nil {
			R.T.Box = new(lmp.Box)
		}
		R.T.Box.XY, R.T.Box.XZ, R.T.Box.YZ = xy, xz, yz
		R.T.Box.Triclin = true
		return true
	}
	return false
}

func (R *reader) sectionLine(section, s string) error {
	f := strings.Fields(s)
	bad := func(what string, err error) error {
		return Error{fmt.Sprintf("Can't read %s at line %d (%s): %v", what, R.line, s, err), R.filename, []string{"sectionLine"}, true}
	}
	var err error
	switch section {
	case "Masses":
		if len(f) < 2 {
			return bad("mass", fmt.Errorf("want 2 fields, got %d", len(f)))
		}
		var typ int
		var m float64
		if typ, err = strconv.Atoi(f[0]); err != nil {
			return bad("mass", err)
		}
		if m, err = strconv.ParseFloat(f[1], 64); err != nil {
			return bad("mass", err)
		}
		R.T.Masses[typ] = m
	case "Atoms":
		at, err := atomFromData(f)
		if err != nil {
			return bad("atom", err)
		}
		R.T.Atoms = append(R.T.Atoms, at)
	case "Velocities":
		if len(f) < 4 {
			return bad("velocity", fmt.Errorf("want 4 fields, got %d", len(f)))
		}
		id, err := strconv.Atoi(f[0])
		if err != nil {
			return bad("velocity", err)
		}
		var v [3]float64
		for i := 0; i < 3; i++ {
			if v[i], err = strconv.ParseFloat(f[i+1], 64); err != nil {
				return bad("velocity", err)
			}
		}
		R.T.Velocities[id] = v
	case "Bonds":
		ints, err := parseInts(f, 4)
		if err != nil {
			return bad("bond", err)
		}
		R.T.Bonds = append(R.T.Bonds, &lmp.Bond{ID: ints[0], Type: ints[1], Atoms: [2]int{ints[2], ints[3]}})
	case "Angles":
		ints, err := parseInts(f, 5)
		if err != nil {
			return bad("angle", err)
		}
		R.T.Angles = append(R.T.Angles, &lmp.Angle{ID: ints[0], Type: ints[1], Atoms: [3]int{ints[2], ints[3], ints[4]}})
	case "Dihedrals":
		ints, err := parseInts(f, 6)
		if err != nil {
			return bad("dihedral", err)
		}
		R.T.Dihedrals = append(R.T.Dihedrals, &lmp.Dihedral{ID: ints[0], Type: ints[1], Atoms: [4]int{ints[2], ints[3], ints[4], ints[5]}})
	case "Impropers":
		ints, err := parseInts(f, 6)
		if err != nil {
			return bad("improper", err)
		}
		R.T.Impropers = append(R.T.Impropers, &lmp.Improper{ID: ints[0], Type: ints[1], Atoms: [4]int{ints[2], ints[3], ints[4], ints[5]}})
	default:
		//coefficient sections are passed through without interpretation
		return nil
	}
	R.got[section]++
	return nil
}

// atomFromData reads one Atoms record. The column meaning depends on the
// atom style, which the file doesn't always declare, but the exact width
// disambiguates every case: atomic (id type x y z) is 5 fields, molecular
// (id mol type x y z) is 6, full (id mol type q x y z) is 7, and image
// flags are always a trailing triplet, giving 8, 9 and 10. Any other
// width is an error rather than a guess.
func atomFromData(f []string) (*lmp.Atom, error) {
	at := new(lmp.Atom)
	var err error
	var xcol int
	switch len(f) {
	case 7, 10: //full: id mol type q x y z [ix iy iz]
		if at.Charge, err = strconv.ParseFloat(f[3], 64); err != nil {
			return nil, err
		}
		if at.MolID, err = strconv.Atoi(f[1]); err != nil {
			return nil, err
		}
		if at.Type, err = strconv.Atoi(f[2]); err != nil {
			return nil, err
		}
		xcol = 4
	case 6, 9: //molecular: id mol type x y z [ix iy iz]
		if at.MolID, err = strconv.Atoi(f[1]); err != nil {
			return nil, err
		}
		if at.Type, err = strconv.Atoi(f[2]); err != nil {
			return nil, err
		}
		xcol = 3
	case 5, 8: //atomic: id type x y z [ix iy iz]
		if at.Type, err = strconv.Atoi(f[1]); err != nil {
			return nil, err
		}
		at.MolID = 1
		xcol = 2
	default:
		return nil, fmt.Errorf("no atom style has %d fields", len(f))
	}
	if at.ID, err = strconv.Atoi(f[0]); err != nil {
		return nil, err
	}
	if at.X, err = strconv.ParseFloat(f[xcol], 64); err != nil {
		return nil, err
	}
	if at.Y, err = strconv.ParseFloat(f[xcol+1], 64); err != nil {
		return nil, err
	}
	if at.Z, err = strconv.ParseFloat(f[xcol+2], 64); err != nil {
		return nil, err
	}
	return at, nil
}

func parseInts(f []string, n int) ([]int, error) {
	if len(f) < n {
		return nil, fmt.Errorf("want %d fields, got %d", n, len(f))
	}
	r := make([]int, n)
	var err error
	for i := 0; i < n; i++ {
		if r[i], err = strconv.Atoi(f[i]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

//Errors

// errDecorate asserts that err implements lmp.Error and decorates it with
// the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(lmp.Error)
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for data file errors. It fulfills
// lmp.Error and lmp.ParseError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("data file %s error: %s", err.filename, err.message)
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

// FileName returns the file to which the failing read was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format associated to the error (always "data")
func (err Error) Format() string { return "data" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	SectionCountMismatch = "Section record count disagrees with the header"
	WrongFormat          = "Wrong format in the data file"
)
