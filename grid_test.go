package opensched

import (
	"strings"
	"testing"
)

func TestNewGridRectangular(t *testing.T) {
	g, err := NewGrid(9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Rows != 3 || g.Columns != 3 {
		t.Errorf("grid = %dx%d, want 3x3", g.Rows, g.Columns)
	}
}

func TestNewGridNonSquareRectangle(t *testing.T) {
	g, err := NewGrid(12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Rows*g.Columns != 12 {
		t.Errorf("rows*columns = %d, want 12", g.Rows*g.Columns)
	}
	if g.Rows > g.Columns {
		t.Errorf("rows (%d) should be <= columns (%d)", g.Rows, g.Columns)
	}
}

func TestNewGridInvalidSize(t *testing.T) {
	if _, err := NewGrid(0); err == nil {
		t.Errorf("expected error for numCores = 0")
	}
	if _, err := NewGrid(-4); err == nil {
		t.Errorf("expected error for negative numCores")
	}
}

func TestGridCoordsRoundTrip(t *testing.T) {
	g, _ := NewGrid(6)
	for c := Tcore(0); c < 6; c++ {
		y, x := g.Coords(c)
		back, err := g.CoreAt(y, x)
		if err != nil || back != c {
			t.Errorf("Coords/CoreAt round trip failed for core %d: got (%d,%d) -> %d", c, y, x, back)
		}
	}
}

func TestGridDumpMarkers(t *testing.T) {
	g, _ := NewGrid(4)
	ct := NewCoreTable([]bool{true, true, true, true})
	host := NewFakeHost(4, []bool{true, true, true, true})

	ct.AssignTaskToCores(3, []Tcore{0})
	ct.BindThreadToOneCore(0, 3)
	host.SetRunning(0, true)

	ct.AssignTaskToCores(7, []Tcore{1})
	ct.BindThreadToOneCore(1, 7)
	host.SetRunning(1, false)

	dump := g.Dump(ct, host)
	if !strings.Contains(dump, "*3*") {
		t.Errorf("expected running-core marker *3* in dump:\n%s", dump)
	}
	if !strings.Contains(dump, "-7-") {
		t.Errorf("expected sleeping-core marker -7- in dump:\n%s", dump)
	}
	if !strings.Contains(dump, ".") {
		t.Errorf("expected free-core marker in dump:\n%s", dump)
	}
}
