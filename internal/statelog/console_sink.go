package statelog

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/iliyamo/restaurant-sim/internal/model"
)

var (
	serverColor  = color.New(color.FgCyan).SprintFunc()
	waitingColor = color.New(color.FgYellow).SprintFunc()
	seatedColor  = color.New(color.FgGreen).SprintFunc()
	doneColor    = color.New(color.FgHiBlack).SprintFunc()
)

// ConsoleSink prints a colored trace of the run, one line per snapshot.
// Colors are dropped automatically when the output is not a terminal.
type ConsoleSink struct {
	mu      sync.Mutex
	out     io.Writer
	lastRun string
}

// NewConsoleSink writes to out, normally color.Output.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out, lastRun: "\x00"}
}

// Save prints the snapshot.
func (c *ConsoleSink) Save(st model.FullState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st.RunID != c.lastRun {
		c.lastRun = st.RunID
		fmt.Fprint(c.out, color.New(color.Bold).Sprint(FormatHeader(st.NGroups, st.NTables)))
	}

	var b strings.Builder
	b.WriteString(serverColor(fmt.Sprintf("%-4s %-4s %-4s", st.Receptionist.Code(), st.Waiter.Code(), st.Chef.Code())))
	for _, g := range st.Groups {
		b.WriteByte(' ')
		b.WriteString(groupColor(g)(fmt.Sprintf("%-4s", g.Code())))
	}
	fmt.Fprintf(&b, " | %3d |", st.GroupsWaiting)
	for t := 0; t < st.NTables; t++ {
		if occ := st.OccupantOf(t); occ != model.NoTable {
			b.WriteString(seatedColor(fmt.Sprintf(" G%02d", occ)))
		} else {
			b.WriteString("  --")
		}
	}
	b.WriteByte('\n')
	fmt.Fprint(c.out, b.String())
}

func groupColor(s model.GroupStatus) func(a ...interface{}) string {
	switch s {
	case model.AtReception, model.WaitingForTable:
		return waitingColor
	case model.FoodRequest, model.WaitForFood, model.Eating, model.Checkout:
		return seatedColor
	case model.Leaving:
		return doneColor
	}
	return fmt.Sprint
}
