/*
 * atom.go, part of golmp.
 *
 * Copyright 2021 The golmp authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package lmp

import (
	"fmt"
	"sort"
)

// Atom is one record of the Atoms section of a data file ("full" atom
// style). Unlike trajectory frames, whose coordinates live in a matrix,
// a data-file atom carries its own coordinates: the section is read once
// and the positions belong to the topology.
type Atom struct {
	ID     int
	MolID  int
	Type   int
	Charge float64
	X      float64
	Y      float64
	Z      float64
	Name   string //usually empty until GuessNames or a gro read fills it
}

// Bond joins two atoms, referenced by their data-file IDs.
type Bond struct {
	ID    int
	Type  int
	Atoms [2]int
}

// Angle joins three atoms, referenced by their data-file IDs.
type Angle struct {
	ID    int
	Type  int
	Atoms [3]int
}

// Dihedral joins four atoms, referenced by their data-file IDs.
type Dihedral struct {
	ID    int
	Type  int
	Atoms [4]int
}

// Improper joins four atoms, referenced by their data-file IDs.
type Improper struct {
	ID    int
	Type  int
	Atoms [4]int
}

// Box holds orthogonal (or triclinic, when the tilt factors are set) box
// bounds in the LAMMPS lo/hi convention. Lo is always <= Hi for each axis.
type Box struct {
	XLo, XHi float64
	YLo, YHi float64
	ZLo, ZHi float64
	XY       float64
	XZ       float64
	YZ       float64
	Triclin  bool
}

// Lengths returns the box edge lengths, in the file's distance units.
func (B *Box) Lengths() [3]float64 {
	return [3]float64{B.XHi - B.XLo, B.YHi - B.YLo, B.ZHi - B.ZLo}
}

// Topology is the static structural description read from a data file:
// atoms, the terms referencing them, per-type masses and the box.
// Velocities, when present, are kept by atom ID.
type Topology struct {
	Atoms      []*Atom
	Bonds      []*Bond
	Angles     []*Angle
	Dihedrals  []*Dihedral
	Impropers  []*Improper
	Masses     map[int]float64 //per atom type
	Velocities map[int][3]float64
	Box        *Box
}

// NewTopology returns an empty topology with its maps ready to use.
func NewTopology() *Topology {
	T := new(Topology)
	T.Masses = make(map[int]float64)
	T.Velocities = make(map[int][3]float64)
	return T
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Atom returns the atom at position i of the Atoms slice (not the atom
// with ID i). Panics if out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic("golmp: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

// Charge returns the sum of the partial charges of all atoms.
func (T *Topology) Charge() float64 {
	var q float64
	for _, v := range T.Atoms {
		q += v.Charge
	}
	return q
}

// AtomTable returns a map from atom ID to atom.
func (T *Topology) AtomTable() map[int]*Atom {
	t := make(map[int]*Atom, len(T.Atoms))
	for _, v := range T.Atoms {
		t[v.ID] = v
	}
	return t
}

// CheckIntegrity verifies that every atom ID referenced from the Bonds,
// Angles, Dihedrals and Impropers sections exists in Atoms. A dangling
// reference means the data file is corrupt, so the first one found is
// returned as a critical error; nothing is dropped silently.
func (T *Topology) CheckIntegrity() error {
	t := T.AtomTable()
	check := func(section string, term, id int) error {
		if _, ok := t[id]; !ok {
			return LError{fmt.Sprintf("%s: %s %d references atom id %d, which is not in the Atoms section", UnresolvedReference, section, term, id), []string{"CheckIntegrity"}, true}
		}
		return nil
	}
	for _, v := range T.Bonds {
		for _, id := range v.Atoms {
			if err := check("bond", v.ID, id); err != nil {
				return err
			}
		}
	}
	for _, v := range T.Angles {
		for _, id := range v.Atoms {
			if err := check("angle", v.ID, id); err != nil {
				return err
			}
		}
	}
	for _, v := range T.Dihedrals {
		for _, id := range v.Atoms {
			if err := check("dihedral", v.ID, id); err != nil {
				return err
			}
		}
	}
	for _, v := range T.Impropers {
		for _, id := range v.Atoms {
			if err := check("improper", v.ID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// GuessNames assigns, for each atom type with a mass in the Masses
// section, the element symbol whose atomic mass is closest. The result
// maps atom type to symbol. Types without a mass entry are absent
// from the map.
func (T *Topology) GuessNames() map[int]string {
	if len(T.Masses) == 0 {
		return nil
	}
	names := make(map[int]string, len(T.Masses))
	for typ, mass := range T.Masses {
		names[typ] = SymbolFromMass(mass)
	}
	return names
}

// Molecule groups the atoms sharing one molecule ID.
type Molecule struct {
	ID     int
	Atoms  []*Atom
	Charge float64
}

// Molecules groups atoms by molecule ID, ordered by ID.
func (T *Topology) Molecules() []*Molecule {
	byid := make(map[int]*Molecule)
	for _, v := range T.Atoms {
		m, ok := byid[v.MolID]
		if !ok {
			m = &Molecule{ID: v.MolID}
			byid[v.MolID] = m
		}
		m.Atoms = append(m.Atoms, v)
		m.Charge += v.Charge
	}
	mols := make([]*Molecule, 0, len(byid))
	for _, v := range byid {
		mols = append(mols, v)
	}
	sort.Slice(mols, func(i, j int) bool { return mols[i].ID < mols[j].ID })
	return mols
}
