// Package statelog renders and records snapshots of the shared restaurant
// state.  A snapshot is appended after every status mutation; sinks decide
// where it goes (a log file, the console, a broker or a cache).
package statelog

import (
	"fmt"
	"strings"

	"github.com/iliyamo/restaurant-sim/internal/model"
)

// Sink receives a copy of the full state after every mutation.  Save is
// called while the store's mutex is held, so implementations must not call
// back into the store.
type Sink interface {
	Save(st model.FullState)
}

// FormatHeader returns the column header for a run with the given size.
func FormatHeader(nGroups, nTables int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-4s %-4s", "RT", "WT", "CH")
	for g := 0; g < nGroups; g++ {
		fmt.Fprintf(&b, " %-4s", fmt.Sprintf("G%02d", g))
	}
	b.WriteString(" | gWT |")
	for t := 0; t < nTables; t++ {
		fmt.Fprintf(&b, " T%02d", t)
	}
	b.WriteByte('\n')
	return b.String()
}

// FormatLine renders one snapshot as a single line aligned with FormatHeader.
func FormatLine(st model.FullState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-4s %-4s", st.Receptionist.Code(), st.Waiter.Code(), st.Chef.Code())
	for _, g := range st.Groups {
		fmt.Fprintf(&b, " %-4s", g.Code())
	}
	fmt.Fprintf(&b, " | %3d |", st.GroupsWaiting)
	for t := 0; t < st.NTables; t++ {
		if occ := st.OccupantOf(t); occ != model.NoTable {
			fmt.Fprintf(&b, " G%02d", occ)
		} else {
			b.WriteString("  --")
		}
	}
	b.WriteByte('\n')
	return b.String()
}
