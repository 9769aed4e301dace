/*
 * doc.go, part of golmp.
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

/*Package lmp is the main package of the golmp library. It post-processes the
text artifacts produced by LAMMPS runs without requiring LAMMPS itself:
thermodynamic logs, chunk-averaged profile and RDF output, dump
trajectories and data (topology) files.


	**golmp capabilities**

    Tokenizes the repeating header+rows block structure shared by
	profile, RDF and trajectory output (package block).

    Time-averages chunked profile and vector-mode RDF output with
	streaming per-bin accumulators that can be merged across files
	(package profile).

    Reads lammpstrj dump trajectories frame by frame, and down-samples
	very large ones by copying every Nth frame verbatim, one frame in
	memory at a time (package traj/lmptrj).

    Reads LAMMPS data files into a typed Topology, checks their
	referential integrity and converts them to GROMACS gro coordinate
	files (package top).

    Extracts named thermo columns from logs containing several
	concatenated runs (package thermo).

    Reads and writes zstd- and gzip-compressed streams transparently,
	selected by filename suffix.

This root package only holds what the format packages share: the Traj and
error interfaces, the Topology types and the compressed-stream helpers.
All processing is single threaded and forward only; no state is shared
between pipeline invocations, so independent files can be processed in
parallel from separate goroutines.
*/
package lmp
