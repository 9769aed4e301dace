package lmptrj

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	lmp "github.com/golmp/golmp"
)

const testTrj = "../../test/test.lammpstrj"

func TestRead(Te *testing.T) {
	traj, err := New(testTrj)
	if err != nil {
		Te.Fatal(err)
	}
	if traj.Len() != 4 {
		Te.Fatal("trajectory reports", traj.Len(), "atoms, want 4")
	}
	c := mat.NewDense(traj.Len(), 3, nil)
	box := make([]float64, 6)
	frames := 0
	var steps []int64
	for {
		err := traj.Next(c, box)
		if err != nil {
			if _, ok := err.(lmp.LastFrameError); ok {
				break
			}
			Te.Fatal(err)
		}
		frames++
		steps = append(steps, traj.Step())
		fmt.Println("frame", traj.Step(), "atom 1 at", c.At(0, 0), c.At(0, 1), c.At(0, 2))
	}
	if frames != 3 {
		Te.Error("read", frames, "frames, want 3")
	}
	if len(steps) != 3 || steps[0] != 0 || steps[2] != 200 {
		Te.Error("wrong steps:", steps)
	}
	//the last frame read is still in c
	if c.At(0, 0) != 1.2 || c.At(3, 0) != 6.2 {
		Te.Error("wrong coordinates in the last frame:", c.At(0, 0), c.At(3, 0))
	}
	if box[0] != 0.0 || box[1] != 10.0 {
		Te.Error("wrong box bounds:", box)
	}
	if traj.Readable() {
		Te.Error("trajectory still readable after its last frame")
	}
}

// Next with a nil matrix must still walk the stream frame by frame.
func TestSkipFrames(Te *testing.T) {
	traj, err := New(testTrj)
	if err != nil {
		Te.Fatal(err)
	}
	frames := 0
	for {
		err := traj.Next(nil)
		if err != nil {
			if _, ok := err.(lmp.LastFrameError); ok {
				break
			}
			Te.Fatal(err)
		}
		frames++
	}
	if frames != 3 {
		Te.Error("skipped through", frames, "frames, want 3")
	}
}

func TestTruncatedFrame(Te *testing.T) {
	raw, err := os.ReadFile(testTrj)
	if err != nil {
		Te.Fatal(err)
	}
	name := filepath.Join(Te.TempDir(), "cut.lammpstrj")
	//cut the file in the middle of the last frame's atom records
	if err := os.WriteFile(name, raw[:len(raw)-40], 0644); err != nil {
		Te.Fatal(err)
	}
	traj, err := New(name)
	if err != nil {
		Te.Fatal(err)
	}
	c := mat.NewDense(traj.Len(), 3, nil)
	var last error
	for {
		if last = traj.Next(c); last != nil {
			break
		}
	}
	if _, ok := last.(lmp.LastFrameError); ok {
		Te.Fatal("a truncated frame was reported as a normal end of trajectory")
	}
	if !last.(lmp.ParseError).Critical() {
		Te.Error("a truncated frame should be critical")
	}
	fmt.Println("truncated frame rejected:", last)
}

func TestSampleIdentity(Te *testing.T) {
	out := filepath.Join(Te.TempDir(), "all.lammpstrj")
	read, written, err := Sample(testTrj, out, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if read != 3 || written != 3 {
		Te.Error("stride 1 read", read, "and wrote", written, "frames, want 3 and 3")
	}
	want, err := os.ReadFile(testTrj)
	if err != nil {
		Te.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		Te.Fatal(err)
	}
	if !bytes.Equal(want, got) {
		Te.Error("stride 1 output is not byte-identical to the input")
	}
}

func TestSampleStride(Te *testing.T) {
	out := filepath.Join(Te.TempDir(), "skip.lammpstrj")
	read, written, err := Sample(testTrj, out, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if read != 3 || written != 2 {
		Te.Error("stride 2 read", read, "and wrote", written, "frames, want 3 and 2")
	}
	traj, err := New(out)
	if err != nil {
		Te.Fatal(err)
	}
	c := mat.NewDense(traj.Len(), 3, nil)
	var steps []int64
	for {
		if err := traj.Next(c); err != nil {
			if _, ok := err.(lmp.LastFrameError); ok {
				break
			}
			Te.Fatal(err)
		}
		steps = append(steps, traj.Step())
	}
	//frames 0 and 2 survive a stride of 2
	if len(steps) != 2 || steps[0] != 0 || steps[1] != 200 {
		Te.Error("wrong frames kept:", steps)
	}
	if _, _, err := Sample(testTrj, out, 0); err == nil {
		Te.Error("a stride of 0 was accepted")
	}
}

func TestSampleName(Te *testing.T) {
	cases := [][2]string{
		{"dump.lammpstrj", "dump-skip-10.lammpstrj"},
		{"run/dump.lammpstrj.gz", "run/dump-skip-10.lammpstrj.gz"},
		{"dump.lammpstrj.zst", "dump-skip-10.lammpstrj.zst"},
	}
	for _, v := range cases {
		if got := SampleName(v[0], 10); got != v[1] {
			Te.Error("SampleName of", v[0], "is", got, "want", v[1])
		}
	}
}

func TestFrameToGro(Te *testing.T) {
	traj, err := New(testTrj)
	if err != nil {
		Te.Fatal(err)
	}
	c := mat.NewDense(traj.Len(), 3, nil)
	if err := traj.Next(c); err != nil {
		Te.Fatal(err)
	}
	var buf bytes.Buffer
	if err := traj.FrameToGro(c, &buf); err != nil {
		Te.Fatal(err)
	}
	out := buf.String()
	fmt.Println(out)
	//title, atom count, 4 atoms, box line
	if n := bytes.Count(buf.Bytes(), []byte("\n")); n != 7 {
		Te.Error("gro output has", n, "lines, want 7")
	}
	//1.0 Angstrom becomes 0.100 nm
	if !bytes.Contains(buf.Bytes(), []byte("0.100")) {
		Te.Error("coordinates were not scaled to nm")
	}
	traj.Close()
}
