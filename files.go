/*
 * files.go, part of golmp.
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
	"compress/flate"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

//LAMMPS output can grow large enough that people keep it compressed, so
//every reader in this library goes through these helpers. The codec is
//picked from the filename suffix; anything unrecognized is passed through
//untouched.

//zstd.Decoder.Close returns nothing, so it can't be an io.ReadCloser
//on its own. This will cause additional indirections, but each call takes
//long enough to make the delay irrelevant.
type zstdql struct {
	closeql func()
	*zstd.Decoder
}

// Close closes the object. It can not be used after this call
func (z zstdql) Close() error {
	z.closeql()
	return nil
}

type nopCloser struct {
	io.Reader
}

func (nopCloser) Close() error { return nil }

type flushCloser struct {
	io.Writer
}

func (flushCloser) Close() error { return nil }

// DecompressingReader wraps r with the decompressor matching the suffix of
// name (".zst", ".gz" or ".dfl"). Unrecognized suffixes get a pass-through
// reader, so plain files need no special casing by the caller.
func DecompressingReader(name string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		z, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdql{z.Close, z}, nil
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(name, ".dfl"):
		return flate.NewReader(r), nil
	default:
		return nopCloser{r}, nil
	}
}

// CompressingWriter wraps w with the compressor matching the suffix of
// name, with the same conventions as DecompressingReader. Closing the
// returned writer flushes the compressor but does not close w.
func CompressingWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case strings.HasSuffix(name, ".dfl"):
		return flate.NewWriter(w, flate.BestCompression)
	default:
		return flushCloser{w}, nil
	}
}

// OpenStream opens the named file for reading, decompressing transparently
// by suffix. Closing the returned ReadCloser closes the file too.
func OpenStream(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	z, err := DecompressingReader(name, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &stream{z, f}, nil
}

// CreateStream creates the named file for writing, compressing
// transparently by suffix. Closing the returned WriteCloser flushes the
// compressor and closes the file.
func CreateStream(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	z, err := CompressingWriter(name, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &wstream{z, f}, nil
}

type stream struct {
	z io.ReadCloser
	f *os.File
}

func (s *stream) Read(p []byte) (int, error) { return s.z.Read(p) }

func (s *stream) Close() error {
	err := s.z.Close()
	if err2 := s.f.Close(); err == nil {
		err = err2
	}
	return err
}

type wstream struct {
	z io.WriteCloser
	f *os.File
}

func (s *wstream) Write(p []byte) (int, error) { return s.z.Write(p) }

func (s *wstream) Close() error {
	err := s.z.Close()
	if err2 := s.f.Close(); err == nil {
		err = err2
	}
	return err
}
