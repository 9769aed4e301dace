package block

import (
	"fmt"
	"strings"
	"testing"

	lmp "github.com/golmp/golmp"
)

// reads the blocks of the test profile file and checks the headers, row
// counts and column legend come out right.
func TestScanner(Te *testing.T) {
	S, err := NewFileScanner("../test/x-temp.profile", ChunkHeader)
	if err != nil {
		Te.Fatal(err)
	}
	defer S.Close()
	var b Block
	steps := []int64{}
	for {
		err := S.Next(&b)
		if err != nil {
			if _, ok := err.(lmp.LastFrameError); ok {
				break
			}
			Te.Fatal(err)
		}
		if len(b.Rows) != 4 {
			Te.Error("block at step", b.Step, "has", len(b.Rows), "rows, want 4")
		}
		steps = append(steps, b.Step)
	}
	fmt.Println("blocks read:", len(steps), steps)
	if len(steps) != 2 || steps[0] != 1000 || steps[1] != 2000 {
		Te.Error("wrong steps read:", steps)
	}
	legend := S.Legend()
	fmt.Println("legend:", legend)
	s, err := FromLegend(legend)
	if err != nil {
		Te.Fatal(err)
	}
	if s.Len() != 4 {
		Te.Error("legend has", s.Len(), "columns, want 4")
	}
	col, err := s.Col("Ncount")
	if err != nil {
		Te.Error(err)
	}
	if col != 2 {
		Te.Error("ncount resolved to column", col, "want 2")
	}
	_, err = s.Col("nope")
	if err == nil {
		Te.Error("lookup of a missing column did not fail")
	}
	if err.(lmp.ParseError).Critical() {
		Te.Error("a missing column should be a recoverable error")
	}
}

func TestTruncatedBlock(Te *testing.T) {
	in := "1000 3\n1 0.5 10 300.0\n2 1.5 12 295.0\n"
	S := NewScanner(strings.NewReader(in), ChunkHeader)
	var b Block
	err := S.Next(&b)
	if err == nil {
		Te.Fatal("a block with fewer rows than declared was accepted")
	}
	if _, ok := err.(lmp.LastFrameError); ok {
		Te.Error("a truncated block was reported as a normal end of stream")
	}
	if !err.(lmp.ParseError).Critical() {
		Te.Error("a truncated block should be critical")
	}
	fmt.Println("truncated block rejected:", err)
}

func TestHeaderWhereDataExpected(Te *testing.T) {
	//the first line has 4 fields so no header shape matches it
	in := "1 0.5 10 300.0\n1000 1\n1 0.5 10 300.0\n"
	S := NewScanner(strings.NewReader(in), ChunkHeader)
	var b Block
	if err := S.Next(&b); err == nil {
		Te.Error("a data line where a header was expected was accepted")
	}
	//a new header showing up before the declared rows are done is also malformed
	in = "1000 3\n1 0.5 10 300.0\n2000 3\n"
	S = NewScanner(strings.NewReader(in), ChunkHeader)
	if err := S.Next(&b); err == nil {
		Te.Error("an early header inside a block body was accepted")
	}
}

func TestZeroRowBlock(Te *testing.T) {
	in := "# legend\n1000 0\n2000 1\n1 3.0\n"
	S := NewScanner(strings.NewReader(in), ChunkHeader)
	var b Block
	if err := S.Next(&b); err != nil {
		Te.Fatal(err)
	}
	if len(b.Rows) != 0 || b.Step != 1000 {
		Te.Error("zero-row block misread:", b.Step, b.Rows)
	}
	if err := S.Next(&b); err != nil {
		Te.Fatal(err)
	}
	if len(b.Rows) != 1 || b.Step != 2000 {
		Te.Error("block after a zero-row block misread:", b.Step, b.Rows)
	}
	err := S.Next(&b)
	if _, ok := err.(lmp.LastFrameError); !ok {
		Te.Error("expected a normal end of stream, got:", err)
	}
}

func TestFixedSchema(Te *testing.T) {
	s := Fixed("Step", "Temp", "Press")
	if names := s.Names(); names[0] != "step" || names[1] != "temp" {
		Te.Error("fixed schema did not lowercase its names:", names)
	}
	if err := s.Check([]string{"0", "300.0"}); err == nil {
		Te.Error("a short row passed the schema check")
	}
}
