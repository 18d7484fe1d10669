package actor

import (
	"log"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/store"
)

// GroupRecord is the receptionist's private view of a group.  It only ever
// moves forward: ToArrive -> Waiting|AtTable -> Done.
type GroupRecord int

const (
	ToArrive GroupRecord = iota
	Waiting
	AtTable
	Done
)

func (r GroupRecord) String() string {
	switch r {
	case ToArrive:
		return "TO_ARRIVE"
	case Waiting:
		return "WAITING"
	case AtTable:
		return "AT_TABLE"
	case Done:
		return "DONE"
	}
	return "UNKNOWN"
}

const noGroup = -1

// Receptionist serves table and bill requests.  It owns table assignment:
// first fit on table id, and when a table is vacated it goes to the waiting
// group with the lowest id.
type Receptionist struct {
	sh     *store.Shared
	logger *log.Logger
	ledger []GroupRecord
	served int
}

// NewReceptionist builds a receptionist for the run behind sh.
func NewReceptionist(sh *store.Shared, logger *log.Logger) *Receptionist {
	return &Receptionist{
		sh:     sh,
		logger: logger,
		ledger: make([]GroupRecord, sh.Groups),
	}
}

// Run serves exactly two requests per group and returns.
func (r *Receptionist) Run() (err error) {
	r.sh.Store.Attach()
	defer func() {
		if dErr := r.sh.Store.Detach(); err == nil {
			err = fatal("receptionist", "detach", dErr)
		}
	}()

	for r.served < 2*r.sh.Groups {
		req, err := r.waitForNextRequest()
		if err != nil {
			return fatal("receptionist", "wait for request", err)
		}
		switch req.Kind {
		case model.TableRequest:
			err = fatal("receptionist", "assign table", r.assignTableOrEnqueue(req.Group))
		case model.BillRequest:
			err = fatal("receptionist", "settle bill", r.settleBill(req.Group))
		default:
			err = fatal("receptionist", "dispatch", violation("unexpected request %s", req))
		}
		if err != nil {
			return err
		}
		r.served++
	}
	return nil
}

// Served returns the number of requests handled so far.
func (r *Receptionist) Served() int { return r.served }

// Ledger returns a copy of the private group records.
func (r *Receptionist) Ledger() []GroupRecord {
	return append([]GroupRecord(nil), r.ledger...)
}

func (r *Receptionist) waitForNextRequest() (model.Request, error) {
	return r.sh.Reception.Receive(func(st *model.FullState) {
		st.Receptionist = model.ReceptionistWaitForRequest
	})
}

// assignTableOrEnqueue seats group g at the lowest free table, or records it
// as waiting when every table is taken.  A waiting group is not signalled;
// settleBill wakes it later.
func (r *Receptionist) assignTableOrEnqueue(g int) error {
	if g < 0 || g >= len(r.ledger) {
		return violation("table request from unknown group %d", g)
	}
	table := model.NoTable
	err := r.sh.Store.Update(func(st *model.FullState) error {
		st.Receptionist = model.AssignTable
		if rec := r.ledger[g]; rec != ToArrive && rec != Waiting {
			return violation("group %d asked for a table while %s", g, rec)
		}
		table = st.LowestFreeTable()
		if table == model.NoTable {
			if r.ledger[g] == ToArrive {
				st.GroupsWaiting++
				r.ledger[g] = Waiting
			}
			return nil
		}
		if r.ledger[g] == Waiting {
			st.GroupsWaiting--
		}
		r.ledger[g] = AtTable
		st.AssignedTable[g] = table
		return r.sh.WaitForTable[g].Up()
	})
	if err != nil {
		return err
	}
	if table == model.NoTable {
		r.logf("group %d waits for a table", g)
	} else {
		r.logf("group %d seated at table %d", g, table)
	}
	return nil
}

// selectNextWaitingGroup returns the waiting group with the lowest id.
// Waiting time plays no part: a higher id that has waited longer still
// comes after a lower one.
func (r *Receptionist) selectNextWaitingGroup(st *model.FullState) int {
	if st.GroupsWaiting <= 0 {
		return noGroup
	}
	for g, rec := range r.ledger {
		if rec == Waiting {
			return g
		}
	}
	return noGroup
}

// settleBill frees the table of group g, hands it to the next waiting group
// if there is one, and finally releases g from its checkout wait.
func (r *Receptionist) settleBill(g int) error {
	if g < 0 || g >= len(r.ledger) {
		return violation("bill request from unknown group %d", g)
	}
	table, next := model.NoTable, noGroup
	err := r.sh.Store.Update(func(st *model.FullState) error {
		st.Receptionist = model.ReceivePayment
		if r.ledger[g] != AtTable {
			return violation("group %d paid while %s", g, r.ledger[g])
		}
		table = st.AssignedTable[g]
		if table == model.NoTable {
			return violation("group %d paid without a table", g)
		}
		r.ledger[g] = Done
		st.AssignedTable[g] = model.NoTable

		next = r.selectNextWaitingGroup(st)
		if next == noGroup {
			return nil
		}
		st.GroupsWaiting--
		st.AssignedTable[next] = table
		r.ledger[next] = AtTable
		return r.sh.WaitForTable[next].Up()
	})
	if err != nil {
		return err
	}
	if next != noGroup {
		r.logf("group %d paid, table %d goes to group %d", g, table, next)
	} else {
		r.logf("group %d paid, table %d is free", g, table)
	}
	return r.sh.TableDone[table].Up()
}

func (r *Receptionist) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
