package lmptrj

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	lmp "github.com/golmp/golmp"
)

//The sampler copies frames byte-for-byte instead of parsing and
//re-serializing them: the kept frames of the output must be identical to
//the corresponding frames of the input, down to whitespace and float
//formatting, so any downstream tool reads them exactly as it would the
//original.

// SampleName derives the conventional output name for a sampled
// trajectory: the stride is inserted before the trajectory extension,
// with any compression suffix preserved after it. For example
// dump.lammpstrj with stride 10 becomes dump-skip-10.lammpstrj, and
// dump.lammpstrj.gz becomes dump-skip-10.lammpstrj.gz.
func SampleName(name string, stride int) string {
	comp := ""
	for _, suf := range []string{".gz", ".zst", ".dfl"} {
		if strings.HasSuffix(name, suf) {
			comp = suf
			name = strings.TrimSuffix(name, suf)
			break
		}
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s-skip-%d%s%s", stem, stride, ext, comp)
}

// Sample copies every stride-th frame of the input trajectory to the
// output, verbatim. Frames are counted from zero, so the first frame is
// always kept and a frame survives when its index is a multiple of the
// stride. Only one frame is in flight at any time regardless of the
// trajectory size, and the output appears atomically: it is written to a
// temporary file in its directory and renamed into place on success.
// Compression on either side is decided by the file name suffixes.
// It returns the number of frames read and the number written.
func Sample(inname, outname string, stride int) (read, written int, err error) {
	if stride < 1 {
		return 0, 0, Error{fmt.Sprintf("%s (got %d)", InvalidStride, stride), inname, []string{"Sample"}, true}
	}
	in, err := lmp.OpenStream(inname)
	if err != nil {
		return 0, 0, Error{lmp.UnableToOpen + ": " + err.Error(), inname, []string{"Sample"}, true}
	}
	defer in.Close()
	h := bufio.NewReader(in)
	tmp, err := os.CreateTemp(filepath.Dir(outname), filepath.Base(outname)+".tmp*")
	if err != nil {
		return 0, 0, Error{UnableToCreate + ": " + err.Error(), outname, []string{"Sample"}, true}
	}
	z, err := lmp.CompressingWriter(outname, tmp)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, 0, Error{UnableToCreate + ": " + err.Error(), outname, []string{"Sample"}, true}
	}
	out := bufio.NewWriter(z)
	for {
		err = copyFrame(h, out, read%stride == 0, inname)
		if err != nil {
			if _, ok := err.(lmp.LastFrameError); ok {
				err = nil
			}
			break
		}
		if read%stride == 0 {
			written++
		}
		read++
	}
	if err == nil {
		err = out.Flush()
	}
	if err2 := z.Close(); err == nil {
		err = err2
	}
	if err2 := tmp.Close(); err == nil {
		err = err2
	}
	if err != nil {
		os.Remove(tmp.Name())
		return read, written, errDecorate(asLError(err, inname), "Sample")
	}
	if err = os.Rename(tmp.Name(), outname); err != nil {
		os.Remove(tmp.Name())
		return read, written, Error{UnableToCreate + ": " + err.Error(), outname, []string{"Sample"}, true}
	}
	return read, written, nil
}

// copyFrame reads one frame, writing its raw lines to w when keep is
// true and discarding them otherwise. The atom records are skipped by
// count, never inspected. At a clean end of stream it returns a
// lmp.LastFrameError.
func copyFrame(h *bufio.Reader, w io.Writer, keep bool, filename string) error {
	emit := func(line string) error {
		if !keep {
			return nil
		}
		_, err := io.WriteString(w, line)
		return err
	}
	first, err := h.ReadString('\n')
	if err != nil && strings.TrimSpace(first) == "" {
		return newlastFrameError(filename, "copyFrame")
	}
	if !strings.HasPrefix(strings.TrimSpace(first), "ITEM: TIMESTEP") {
		return Error{fmt.Sprintf("%s: expected \"ITEM: TIMESTEP\", got: %s", WrongFormat, strings.TrimSpace(first)), filename, []string{"copyFrame"}, true}
	}
	if err := emit(first); err != nil {
		return Error{err.Error(), filename, []string{"copyFrame"}, true}
	}
	natoms := -1
	//timestep value, NUMBER OF ATOMS header and value, BOX BOUNDS header
	//and its 3 bound lines, ATOMS header: 8 fixed lines before the records.
	for i := 0; i < 8; i++ {
		line, err := h.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return Error{TruncatedFrame, filename, []string{"copyFrame"}, true}
		}
		if i == 2 {
			n, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil || n < 0 {
				return Error{fmt.Sprintf("%s: can't read atom count (%s)", WrongFormat, strings.TrimSpace(line)), filename, []string{"copyFrame"}, true}
			}
			natoms = n
		}
		if i == 1 && !strings.HasPrefix(strings.TrimSpace(line), "ITEM: NUMBER OF ATOMS") {
			return Error{fmt.Sprintf("%s: expected \"ITEM: NUMBER OF ATOMS\", got: %s", WrongFormat, strings.TrimSpace(line)), filename, []string{"copyFrame"}, true}
		}
		if err := emit(line); err != nil {
			return Error{err.Error(), filename, []string{"copyFrame"}, true}
		}
	}
	for i := 0; i < natoms; i++ {
		line, err := h.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return Error{fmt.Sprintf("%s: frame declares %d atoms but the stream ends after %d", TruncatedFrame, natoms, i), filename, []string{"copyFrame"}, true}
		}
		if err := emit(line); err != nil {
			return Error{err.Error(), filename, []string{"copyFrame"}, true}
		}
	}
	return nil
}

func asLError(err error, filename string) error {
	if _, ok := err.(lmp.Error); ok {
		return err
	}
	return Error{err.Error(), filename, []string{}, true}
}
