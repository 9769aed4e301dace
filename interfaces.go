/*
 * interfaces.go, part of golmp.
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

import "gonum.org/v1/gonum/mat"

// Traj is the interface for any frame-sequential trajectory object.
// All the formats read here are text, so every implementation is a thin
// state machine over a bufio.Reader.
type Traj interface {

	//Is the trajectory ready to be read?
	Readable() bool

	//reads the next frame and puts its coordinates in c, or discards
	//the frame if c is nil (the frame is still checked for correctness).
	//If box is given and the frame carries box bounds, the first 6 (or 9,
	//for triclinic boxes) elements are filled with
	//xlo,xhi,ylo,yhi,zlo,zhi[,xy,xz,yz].
	Next(c *mat.Dense, box ...[]float64) error

	//Returns the number of atoms per frame
	Len() int
}

//Errors

// Error is the interface for errors that all packages in this library
// implement. The Decorate method adds and retrieves info from the error
// without changing its type or wrapping it around something else.
// Each call returns the current "decoration" slice; passing an empty
// string only queries it.
type Error interface {
	Error() string
	Decorate(string) []string
}

// ParseError is the interface for errors produced while consuming one of
// the LAMMPS text streams.
type ParseError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError has a useless method to distinguish the harmless errors
// (i.e. normal end of a trajectory or block stream) so they can be filtered
// in a typeswitch that looks for this interface.
type LastFrameError interface {
	ParseError
	NormalLastFrameTermination() //does nothing, just separates this interface from other ParseError's
}
