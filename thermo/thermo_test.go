package thermo

import (
	"fmt"
	"math"
	"testing"
)

func TestReadLog(Te *testing.T) {
	runs, err := FileRead("../test/log.lammps")
	if err != nil {
		Te.Fatal(err)
	}
	if len(runs) != 2 {
		Te.Fatal("got", len(runs), "runs, want 2")
	}
	if len(runs[0].Keys) != 5 || len(runs[1].Keys) != 6 {
		Te.Error("wrong legends:", runs[0].Keys, runs[1].Keys)
	}
	if runs[0].Keys[0] != "step" || runs[1].Keys[5] != "volume" {
		Te.Error("legend keys not lowercased:", runs[0].Keys, runs[1].Keys)
	}
	if len(runs[0].Data) != 3 {
		Te.Error("run 1 has", len(runs[0].Data), "rows, want 3")
	}
	//one row of run 2 has the wrong width and must have been dropped
	if len(runs[1].Data) != 4 {
		Te.Error("run 2 has", len(runs[1].Data), "rows, want 4")
	}
	steps, err := runs[0].Steps()
	if err != nil {
		Te.Fatal(err)
	}
	if steps[0] != 0 || steps[2] != 200 {
		Te.Error("wrong steps in run 1:", steps)
	}
	temp, err := runs[0].Column("Temp")
	if err != nil {
		Te.Fatal(err)
	}
	if temp[1] != 305.2 {
		Te.Error("wrong temperature column:", temp)
	}
	fmt.Println("runs:", len(runs), "rows:", len(runs[0].Data), len(runs[1].Data))
}

func TestLogSeries(Te *testing.T) {
	runs, err := FileRead("../test/log.lammps")
	if err != nil {
		Te.Fatal(err)
	}
	S, err := LogSeries(runs, "temp")
	if err != nil {
		Te.Fatal(err)
	}
	if S.Len() != 7 {
		Te.Fatal("temperature series has", S.Len(), "points, want 7")
	}
	//run 2 begins where the restart marker says
	if len(S.Restarts) != 1 || S.Restarts[0] != 3 {
		Te.Error("wrong restart markers:", S.Restarts)
	}
	if S.Points[3].Step != 200 || S.Points[3].Value != 298.7 {
		Te.Error("wrong first point of the second run:", S.Points[3])
	}
	if math.Abs(S.Mean()-2104.4/7) > 1e-9 {
		Te.Error("wrong series mean:", S.Mean())
	}
	if S.Stdev() <= 0 {
		Te.Error("non-positive standard deviation:", S.Stdev())
	}
	fmt.Println("temp series:", S.Len(), "points, mean", S.Mean(), "stdev", S.Stdev())
}

// A quantity only some runs report still makes a series; one no run
// reports does not.
func TestPartialQuantity(Te *testing.T) {
	runs, err := FileRead("../test/log.lammps")
	if err != nil {
		Te.Fatal(err)
	}
	S, err := LogSeries(runs, "volume")
	if err != nil {
		Te.Fatal(err)
	}
	//only run 2 reports the volume, so there is no restart boundary
	if S.Len() != 4 || len(S.Restarts) != 0 {
		Te.Error("volume series:", S.Len(), "points,", len(S.Restarts), "restarts")
	}
	if _, err := LogSeries(runs, "enthalpy"); err == nil {
		Te.Error("a quantity no run reports did not fail")
	}
}

func TestFileSeries(Te *testing.T) {
	S, err := FileSeries("../test/log.lammps", "Press")
	if err != nil {
		Te.Fatal(err)
	}
	if S.Len() != 7 {
		Te.Error("pressure series has", S.Len(), "points, want 7")
	}
	v := S.Values()
	if v[0] != 142.1 {
		Te.Error("wrong first pressure:", v[0])
	}
}
