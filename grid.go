package opensched

import (
	"fmt"
	"math"
	"strings"
)

// Grid describes the rectangular core topology. rows is the largest
// integer <= sqrt(numCores) that divides numCores; columns is the rest.
// Construction fails if no such rectangle exists.
type Grid struct {
	Rows    int
	Columns int
}

func NewGrid(numCores int) (Grid, error) {
	if numCores <= 0 {
		return Grid{}, &ConfigurationError{Msg: fmt.Sprintf("invalid system size: %d", numCores)}
	}
	rows := int(math.Sqrt(float64(numCores)))
	for rows > 0 && numCores%rows != 0 {
		rows--
	}
	columns := numCores / rows
	if rows*columns != numCores {
		return Grid{}, &ConfigurationError{
			Msg: fmt.Sprintf("invalid system size: %d, expected rectangular-shaped system", numCores),
		}
	}
	return Grid{Rows: rows, Columns: columns}, nil
}

// CoreAt returns the core index at grid coordinates (y, x).
func (g Grid) CoreAt(y, x int) (Tcore, error) {
	if y < 0 || y >= g.Rows || x < 0 || x >= g.Columns {
		return InvalidCore, &ConfigurationError{Msg: fmt.Sprintf("invalid core coordinates: %d, %d", y, x)}
	}
	return Tcore(y*g.Columns + x), nil
}

// Coords returns the (y, x) grid coordinates of core c.
func (g Grid) Coords(c Tcore) (y, x int) {
	return int(c) / g.Columns, int(c) % g.Columns
}

// Dump renders the current assignment as a row x column ASCII grid:
// ". " free, "(id)" assigned but thread not running, "-id-" assigned
// and sleeping, "*id*" assigned and running.
func (g Grid) Dump(ct *CoreTable, host HostSimulator) string {
	var b strings.Builder
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Columns; x++ {
			if x > 0 {
				b.WriteString(" ")
			}
			c, _ := g.CoreAt(y, x)
			if !ct.IsAssignedToTask(c) {
				b.WriteString("  . ")
				continue
			}
			rec := ct.Get(c)
			if rec.AssignedTask < 10 {
				b.WriteString(" ")
			}
			var m1, m2 byte
			if ct.IsAssignedToThread(c) {
				if host.ThreadState(rec.AssignedThread) == ThreadRunning {
					m1, m2 = '*', '*'
				} else {
					m1, m2 = '-', '-'
				}
			} else {
				m1, m2 = '(', ')'
			}
			fmt.Fprintf(&b, "%c%d%c", m1, rec.AssignedTask, m2)
		}
		b.WriteString("\n")
	}
	return b.String()
}
