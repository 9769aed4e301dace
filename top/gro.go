package top

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	lmp "github.com/golmp/golmp"
)

//gro is fixed-field: resid(5) resname(5) atomname(5) atomid(5) x y z (8.3
//each, nm). LAMMPS positions are in Angstrom, so everything is scaled by
//0.1 on the way out and 10 on the way back in.

const groScale = 0.1

var groWidths = [4]int{5, 5, 5, 5}

// GroLine formats one gro atom line. String fields longer than their
// column are truncated, never widened, so a long name can't shift the
// coordinate columns.
func GroLine(molid int, molname, name string, id int, x, y, z float64) string {
	strs := [4]string{
		fmt.Sprintf("%5d", molid),
		fmt.Sprintf("%-5s", molname),
		fmt.Sprintf("%5s", name),
		fmt.Sprintf("%5d", id),
	}
	for i, v := range strs {
		if len(v) > groWidths[i] {
			strs[i] = v[:groWidths[i]]
		}
	}
	return fmt.Sprintf("%s%s%s%s%8.3f%8.3f%8.3f", strs[0], strs[1], strs[2], strs[3], x, y, z)
}

// GroBoxLine formats the final box line of a gro file from the box,
// scaling its Angstrom-unit edge lengths to nm, with the six off-diagonal
// components following when the box is triclinic.
func GroBoxLine(b *lmp.Box) string {
	l := b.Lengths()
	parts := []float64{l[0] * groScale, l[1] * groScale, l[2] * groScale}
	if b.Triclin {
		parts = append(parts, 0, 0, b.XY*groScale, 0, b.XZ*groScale, b.YZ*groScale)
	}
	strs := make([]string, len(parts))
	for i, v := range parts {
		strs[i] = fmt.Sprintf("%15.9f", v)
	}
	return strings.Join(strs, " ")
}

// WriteGro writes the positions and box of the topology as a gro
// coordinate file. The conversion is partial on purpose: per-atom data
// with no gro column (charges, velocities, image flags) is dropped, and
// it is the caller who decides the naming via names, a map from atom type
// to atom name (usually Topology.GuessNames). Types absent from the map
// fall back to the type number. Atoms are written ordered by ID.
func WriteGro(w io.Writer, T *lmp.Topology, names map[int]string) error {
	if _, err := fmt.Fprintf(w, "Converted from LAMMPS data\n%d\n", T.Len()); err != nil {
		return err
	}
	ats := make([]*lmp.Atom, len(T.Atoms))
	copy(ats, T.Atoms)
	sort.Slice(ats, func(i, j int) bool { return ats[i].ID < ats[j].ID })
	for _, at := range ats {
		name := at.Name
		if n, ok := names[at.Type]; ok {
			name = n
		} else if name == "" {
			name = "X" + strconv.Itoa(at.Type)
		}
		l := GroLine(at.MolID, "MOL", name, at.ID, at.X*groScale, at.Y*groScale, at.Z*groScale)
		if _, err := fmt.Fprintf(w, "%s\n", l); err != nil {
			return err
		}
	}
	if T.Box != nil {
		if _, err := fmt.Fprintf(w, "%s\n", GroBoxLine(T.Box)); err != nil {
			return err
		}
	}
	return nil
}

// WriteGroFile writes the gro conversion to the named file, going through
// a temporary file renamed into place on success.
func WriteGroFile(name string, T *lmp.Topology, names map[int]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), filepath.Base(name)+".tmp*")
	if err != nil {
		return err
	}
	err = WriteGro(tmp, T, names)
	if err2 := tmp.Close(); err == nil {
		err = err2
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), name)
}

// ReadGro reads a gro coordinate file back into a Topology holding only
// what gro can carry: atom IDs, names, molecule IDs, positions (scaled
// back to Angstrom) and box lengths. It's the read half of the round trip,
// there to check conversions rather than to serve as a general gro reader.
func ReadGro(r io.Reader) (*lmp.Topology, error) {
	h := bufio.NewReader(r)
	if _, err := h.ReadString('\n'); err != nil {
		return nil, Error{"Empty gro file", "", []string{"ReadGro"}, true}
	}
	nline, err := h.ReadString('\n')
	if err != nil {
		return nil, Error{"Gro file with no atom count", "", []string{"ReadGro"}, true}
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(nline))
	if err != nil {
		return nil, Error{fmt.Sprintf("Can't read atom count (%s): %v", strings.TrimSpace(nline), err), "", []string{"ReadGro"}, true}
	}
	T := lmp.NewTopology()
	for i := 0; i < natoms; i++ {
		line, err := h.ReadString('\n')
		if err != nil {
			return nil, Error{fmt.Sprintf("Gro file declares %d atoms but ends after %d", natoms, i), "", []string{"ReadGro"}, true}
		}
		if len(line) < 44 {
			return nil, Error{fmt.Sprintf("Gro atom line %d too short: %s", i+3, strings.TrimSpace(line)), "", []string{"ReadGro"}, true}
		}
		at := new(lmp.Atom)
		errs := make([]error, 5)
		at.MolID, errs[0] = strconv.Atoi(strings.TrimSpace(line[0:5]))
		at.Name = strings.TrimSpace(line[10:15])
		at.ID, errs[1] = strconv.Atoi(strings.TrimSpace(line[15:20]))
		var x, y, z float64
		x, errs[2] = strconv.ParseFloat(strings.TrimSpace(line[20:28]), 64)
		y, errs[3] = strconv.ParseFloat(strings.TrimSpace(line[28:36]), 64)
		z, errs[4] = strconv.ParseFloat(strings.TrimSpace(line[36:44]), 64)
		for _, e := range errs {
			if e != nil {
				return nil, Error{fmt.Sprintf("Ill-formed gro atom line %d: %v", i+3, e), "", []string{"ReadGro"}, true}
			}
		}
		at.X, at.Y, at.Z = x/groScale, y/groScale, z/groScale
		T.Atoms = append(T.Atoms, at)
	}
	//the box line is optional
	bline, err := h.ReadString('\n')
	if err == nil || strings.TrimSpace(bline) != "" {
		f := strings.Fields(bline)
		if len(f) >= 3 {
			var l [3]float64
			ok := true
			for i := 0; i < 3; i++ {
				if l[i], err = strconv.ParseFloat(f[i], 64); err != nil {
					ok = false
					break
				}
			}
			if ok {
				T.Box = &lmp.Box{XHi: l[0] / groScale, YHi: l[1] / groScale, ZHi: l[2] / groScale}
			}
		}
	}
	return T, nil
}
