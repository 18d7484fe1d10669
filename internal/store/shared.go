package store

import (
	"fmt"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/semaphore"
	"github.com/iliyamo/restaurant-sim/internal/statelog"
)

// Shared is what every actor attaches to: the state store, the semaphore
// set and the named primitives inside it.
//
// Fields:
//
//	Groups, Tables  – size of the run, fixed at creation.
//	Set             – the semaphore set; removing it tears the run down.
//	Store           – shared state guarded by the mutex.
//	Reception       – mailbox of the receptionist (TABLE_REQUEST, BILL_REQUEST).
//	Service         – mailbox of the waiter (FOOD_REQUEST, FOOD_READY).
//	WaitForTable    – per group, raised when the group is granted a table.
//	RequestReceived – per table, raised when the waiter took the order.
//	FoodArrived     – per table, raised when the waiter brought the food.
//	TableDone       – per table, raised when the bill is settled.  Counting:
//	                  the next occupant may pay before the previous one wakes.
//	WaitOrder       – raised by the waiter when an order is handed to the chef.
//	OrderReceived   – raised by the chef when it accepted the order.
type Shared struct {
	Groups int
	Tables int

	Set   *semaphore.Set
	Store *Store

	Reception *Mailbox
	Service   *Mailbox

	WaitForTable    []*semaphore.Semaphore
	RequestReceived []*semaphore.Semaphore
	FoodArrived     []*semaphore.Semaphore
	TableDone       []*semaphore.Semaphore
	WaitOrder       *semaphore.Semaphore
	OrderReceived   *semaphore.Semaphore
}

// NewShared creates the semaphore set and the store for a run described by
// initial.
func NewShared(initial model.FullState, sink statelog.Sink) (*Shared, error) {
	if initial.NGroups < 1 || initial.NGroups > model.MaxGroups {
		return nil, fmt.Errorf("groups %d outside [1, %d]", initial.NGroups, model.MaxGroups)
	}
	if initial.NTables < 1 || initial.NTables > model.MaxTables {
		return nil, fmt.Errorf("tables %d outside [1, %d]", initial.NTables, model.MaxTables)
	}
	if len(initial.Groups) != initial.NGroups || len(initial.AssignedTable) != initial.NGroups {
		return nil, fmt.Errorf("state holds %d groups, want %d", len(initial.Groups), initial.NGroups)
	}

	set := semaphore.NewSet()
	st := New(initial, set.Binary("mutex", 1), sink)
	sh := &Shared{
		Groups:          initial.NGroups,
		Tables:          initial.NTables,
		Set:             set,
		Store:           st,
		WaitForTable:    set.BinaryArray("waitForTable", initial.NGroups),
		RequestReceived: set.BinaryArray("requestReceived", initial.NTables),
		FoodArrived:     set.BinaryArray("foodArrived", initial.NTables),
		TableDone:       set.CountingArray("tableDone", initial.NTables),
		WaitOrder:       set.Binary("waitOrder", 0),
		OrderReceived:   set.Binary("orderReceived", 0),
	}
	sh.Reception = NewMailbox("reception", st,
		set.Binary("receptionistRequestPossible", 1),
		set.Binary("receptionistRequest", 0),
		func(st *model.FullState) *model.Request { return &st.ReceptionistRequest })
	sh.Service = NewMailbox("service", st,
		set.Binary("waiterRequestPossible", 1),
		set.Binary("waiterRequest", 0),
		func(st *model.FullState) *model.Request { return &st.WaiterRequest })
	return sh, nil
}
