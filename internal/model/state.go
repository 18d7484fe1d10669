package model

import "time"

// NoTable marks a group without an assigned table and a table without an
// occupant.
const NoTable = -1

// MaxGroups and MaxTables bound the size of a simulation.
const (
	MaxGroups = 16
	MaxTables = 8
)

// FullState is everything the actors share.  Every read and write of a
// FullState owned by a store happens while holding the store's mutex;
// copies returned by Clone are free to use without it.
//
// Fields:
//
//	RunID               – identifier of the run the state belongs to.
//	Seq                 – snapshot sequence number, bumped by the store on every save.
//	NGroups, NTables    – size of the simulation.
//	Receptionist        – receptionist status.
//	Waiter              – waiter status.
//	Chef                – chef status.
//	Groups              – per-group status, written only by the group.
//	AssignedTable       – per-group table or NoTable, written only by the receptionist.
//	GroupsWaiting       – number of groups waiting for a table.
//	ReceptionistRequest – envelope slot of the receptionist's mailbox.
//	WaiterRequest       – envelope slot of the waiter's mailbox.
//	FoodOrder           – set by the waiter when an order is handed to the chef.
//	FoodGroup           – group the pending order belongs to.
//	StartTime, EatTime  – fixed per-group arrival and eating times.
type FullState struct {
	RunID               string             `json:"run_id"`
	Seq                 uint64             `json:"seq"`
	NGroups             int                `json:"n_groups"`
	NTables             int                `json:"n_tables"`
	Receptionist        ReceptionistStatus `json:"receptionist"`
	Waiter              WaiterStatus       `json:"waiter"`
	Chef                ChefStatus         `json:"chef"`
	Groups              []GroupStatus      `json:"groups"`
	AssignedTable       []int              `json:"assigned_table"`
	GroupsWaiting       int                `json:"groups_waiting"`
	ReceptionistRequest Request            `json:"receptionist_request"`
	WaiterRequest       Request            `json:"waiter_request"`
	FoodOrder           bool               `json:"food_order"`
	FoodGroup           int                `json:"food_group"`
	StartTime           []time.Duration    `json:"start_time"`
	EatTime             []time.Duration    `json:"eat_time"`
}

// NewFullState returns the initial state of a run: every group arriving,
// every table vacant and every server idle.
func NewFullState(runID string, nGroups, nTables int) FullState {
	st := FullState{
		RunID:         runID,
		NGroups:       nGroups,
		NTables:       nTables,
		Groups:        make([]GroupStatus, nGroups),
		AssignedTable: make([]int, nGroups),
		FoodGroup:     NoTable,
		StartTime:     make([]time.Duration, nGroups),
		EatTime:       make([]time.Duration, nGroups),
	}
	for g := range st.AssignedTable {
		st.AssignedTable[g] = NoTable
	}
	return st
}

// Clone returns a deep copy.
func (st FullState) Clone() FullState {
	out := st
	out.Groups = append([]GroupStatus(nil), st.Groups...)
	out.AssignedTable = append([]int(nil), st.AssignedTable...)
	out.StartTime = append([]time.Duration(nil), st.StartTime...)
	out.EatTime = append([]time.Duration(nil), st.EatTime...)
	return out
}

// OccupantOf returns the group sitting at table t, or NoTable when the
// table is vacant.
func (st *FullState) OccupantOf(t int) int {
	for g, table := range st.AssignedTable {
		if table == t {
			return g
		}
	}
	return NoTable
}

// LowestFreeTable returns the lowest-numbered vacant table, or NoTable when
// every table is occupied.
func (st *FullState) LowestFreeTable() int {
	for t := 0; t < st.NTables; t++ {
		if st.OccupantOf(t) == NoTable {
			return t
		}
	}
	return NoTable
}
