package top

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	lmp "github.com/golmp/golmp"
)

func TestDataRead(Te *testing.T) {
	T, err := FileRead("../test/data.lammps")
	if err != nil {
		Te.Fatal(err)
	}
	if T.Len() != 6 {
		Te.Error("read", T.Len(), "atoms, want 6")
	}
	if len(T.Bonds) != 4 || len(T.Angles) != 2 {
		Te.Error("read", len(T.Bonds), "bonds and", len(T.Angles), "angles, want 4 and 2")
	}
	if T.Masses[1] != 15.9994 || T.Masses[2] != 1.008 {
		Te.Error("wrong masses:", T.Masses)
	}
	if T.Box == nil || T.Box.XHi != 20.0 || T.Box.Triclin {
		Te.Error("wrong box:", T.Box)
	}
	if v := T.Velocities[1]; v[0] != 0.1 {
		Te.Error("wrong velocity for atom 1:", v)
	}
	at := T.Atom(0)
	if at.ID != 1 || at.Type != 1 || math.Abs(at.Charge+0.8476) > 1e-9 {
		Te.Error("wrong first atom:", at)
	}
	names := T.GuessNames()
	fmt.Println("guessed names:", names)
	if names[1] != "O" || names[2] != "H" {
		Te.Error("wrong guessed names:", names)
	}
	//two water-like molecules with zero net charge each
	mols := T.Molecules()
	if len(mols) != 2 {
		Te.Fatal("got", len(mols), "molecules, want 2")
	}
	if len(mols[0].Atoms) != 3 || math.Abs(mols[0].Charge) > 1e-9 {
		Te.Error("wrong first molecule:", len(mols[0].Atoms), mols[0].Charge)
	}
}

const brokenData = `broken

2 atoms
1 bonds
1 atom types
1 bond types

0.0 10.0 xlo xhi
0.0 10.0 ylo yhi
0.0 10.0 zlo zhi

Masses

1 12.011

Atoms

1 1 1 0.0 1.0 1.0 1.0
2 1 1 0.0 2.0 1.0 1.0

Bonds

1 1 1 99
`

func TestDanglingReference(Te *testing.T) {
	_, err := Read(strings.NewReader(brokenData))
	if err == nil {
		Te.Fatal("a bond to a missing atom id was accepted")
	}
	if !strings.Contains(err.Error(), lmp.UnresolvedReference) {
		Te.Error("unexpected error for a dangling reference:", err)
	}
	fmt.Println("dangling reference rejected:", err)
}

func TestCountMismatch(Te *testing.T) {
	in := strings.Replace(brokenData, "2 atoms", "3 atoms", 1)
	//drop the bad bond so only the count is wrong
	in = strings.Replace(in, "1 1 1 99\n", "1 1 1 2\n", 1)
	_, err := Read(strings.NewReader(in))
	if err == nil {
		Te.Fatal("a section shorter than its declared count was accepted")
	}
	if !strings.Contains(err.Error(), SectionCountMismatch) {
		Te.Error("unexpected error for a count mismatch:", err)
	}
	fmt.Println("count mismatch rejected:", err)
}

// The Atoms column layout is decided by the exact field count, so a
// molecular-style row with trailing image flags must not be mistaken for
// a full-style one (which would shift the coordinates by a column and
// read x as the charge).
func TestAtomStyles(Te *testing.T) {
	const data = `styles

3 atoms
3 atom types

0.0 10.0 xlo xhi
0.0 10.0 ylo yhi
0.0 10.0 zlo zhi

Atoms

1 2 1 3.0 4.0 5.0 0 -1 1
2 1 0.0 1.0 2.0 1 0 0
3 1 3 -0.5 6.0 7.0 8.0 0 0 1
`
	T, err := Read(strings.NewReader(data))
	if err != nil {
		Te.Fatal(err)
	}
	mol := T.Atom(0)
	if mol.X != 3.0 || mol.Y != 4.0 || mol.Z != 5.0 {
		Te.Error("molecular row with image flags misread:", mol)
	}
	if mol.Charge != 0.0 || mol.MolID != 2 || mol.Type != 1 {
		Te.Error("molecular row fields misassigned:", mol)
	}
	atomic := T.Atom(1)
	if atomic.X != 0.0 || atomic.Y != 1.0 || atomic.Z != 2.0 || atomic.Type != 1 {
		Te.Error("atomic row with image flags misread:", atomic)
	}
	full := T.Atom(2)
	if full.Charge != -0.5 || full.X != 6.0 || full.Z != 8.0 {
		Te.Error("full row with image flags misread:", full)
	}
	//a width no atom style has must be rejected, not guessed at
	bad := strings.Replace(data, "2 1 0.0 1.0 2.0 1 0 0\n", "2 1 0.0 1.0\n", 1)
	if _, err := Read(strings.NewReader(bad)); err == nil {
		Te.Error("a 4-field atom row was accepted")
	}
	fmt.Println("atom styles by width ok")
}

func TestGroLine(Te *testing.T) {
	l := GroLine(1, "SOL", "OW", 1, 0.5, 0.56, 0.5)
	if l != "    1SOL     OW    1   0.500   0.560   0.500" {
		Te.Error("wrong gro line:", l)
	}
	//an overlong name must be truncated, not allowed to shift the columns
	long := GroLine(1, "SOL", "LONGNAME", 1, 0.5, 0.5, 0.5)
	if len(long) != len(l) {
		Te.Error("overlong name shifted the gro columns:", long)
	}
}

func TestGroRoundTrip(Te *testing.T) {
	T, err := FileRead("../test/data.lammps")
	if err != nil {
		Te.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteGro(&buf, T, T.GuessNames()); err != nil {
		Te.Fatal(err)
	}
	fmt.Println(buf.String())
	back, err := ReadGro(&buf)
	if err != nil {
		Te.Fatal(err)
	}
	if back.Len() != T.Len() {
		Te.Fatal("round trip kept", back.Len(), "of", T.Len(), "atoms")
	}
	for i := 0; i < T.Len(); i++ {
		a, b := T.Atom(i), back.Atom(i)
		if a.ID != b.ID || a.MolID != b.MolID {
			Te.Error("atom identity lost in round trip:", a, b)
		}
		//gro has 3 decimals in nm, so positions survive to 0.01 Angstrom
		if math.Abs(a.X-b.X) > 0.011 || math.Abs(a.Y-b.Y) > 0.011 || math.Abs(a.Z-b.Z) > 0.011 {
			Te.Error("position lost in round trip:", a, b)
		}
	}
	if back.Atom(0).Name != "O" {
		Te.Error("name lost in round trip:", back.Atom(0).Name)
	}
	if back.Box == nil || math.Abs(back.Box.XHi-20.0) > 1e-6 {
		Te.Error("box lost in round trip:", back.Box)
	}
}
