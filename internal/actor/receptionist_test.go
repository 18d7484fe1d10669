package actor

import (
	"errors"
	"testing"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/statelog"
	"github.com/iliyamo/restaurant-sim/internal/store"
)

func newShared(t *testing.T, st model.FullState) (*store.Shared, *statelog.Recorder) {
	t.Helper()
	rec := &statelog.Recorder{}
	sh, err := store.NewShared(st, rec)
	if err != nil {
		t.Fatalf("NewShared: %v", err)
	}
	return sh, rec
}

// seat places group g at table directly, as if the receptionist had done it.
func seat(t *testing.T, r *Receptionist, g, table int) {
	t.Helper()
	r.ledger[g] = AtTable
	if err := r.sh.Store.Locked(func(st *model.FullState) error {
		st.AssignedTable[g] = table
		return nil
	}); err != nil {
		t.Fatalf("seat: %v", err)
	}
}

func snapshot(t *testing.T, sh *store.Shared) model.FullState {
	t.Helper()
	st, err := sh.Store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return st
}

func TestAssignTableIsFirstFit(t *testing.T) {
	sh, _ := newShared(t, model.NewFullState("first-fit", 4, 3))
	r := NewReceptionist(sh, nil)
	seat(t, r, 0, 0)
	seat(t, r, 1, 2)

	if err := r.assignTableOrEnqueue(2); err != nil {
		t.Fatalf("assign: %v", err)
	}
	st := snapshot(t, sh)
	if got := st.AssignedTable[2]; got != 1 {
		t.Fatalf("group 2 got table %d, want 1", got)
	}
	if got := sh.WaitForTable[2].Value(); got != 1 {
		t.Fatalf("table granted signal = %d, want 1", got)
	}
	if r.ledger[2] != AtTable {
		t.Fatalf("ledger[2] = %s, want AT_TABLE", r.ledger[2])
	}
}

func TestVacatedTableGoesToLowestWaitingID(t *testing.T) {
	sh, _ := newShared(t, model.NewFullState("lowest-id", 6, 1))
	r := NewReceptionist(sh, nil)
	seat(t, r, 0, 0)

	// 5 starts waiting before 3.
	for _, g := range []int{5, 3} {
		if err := r.assignTableOrEnqueue(g); err != nil {
			t.Fatalf("assign %d: %v", g, err)
		}
	}
	if st := snapshot(t, sh); st.GroupsWaiting != 2 {
		t.Fatalf("waiting = %d, want 2", st.GroupsWaiting)
	}
	if sh.WaitForTable[3].Value() != 0 || sh.WaitForTable[5].Value() != 0 {
		t.Fatal("waiting group was signalled")
	}

	if err := r.settleBill(0); err != nil {
		t.Fatalf("settle: %v", err)
	}
	st := snapshot(t, sh)
	if st.AssignedTable[3] != 0 || st.AssignedTable[5] != model.NoTable {
		t.Fatalf("assignments = %v, want group 3 at table 0", st.AssignedTable)
	}
	if st.GroupsWaiting != 1 {
		t.Fatalf("waiting = %d, want 1", st.GroupsWaiting)
	}
	if sh.WaitForTable[3].Value() != 1 {
		t.Fatal("group 3 not signalled")
	}
	if sh.TableDone[0].Value() != 1 {
		t.Fatal("paying group not released")
	}
	if r.ledger[0] != Done || r.ledger[3] != AtTable || r.ledger[5] != Waiting {
		t.Fatalf("ledger = %v", r.Ledger())
	}
}

func TestWaitingCounterMatchesLedger(t *testing.T) {
	sh, _ := newShared(t, model.NewFullState("counter", 5, 2))
	r := NewReceptionist(sh, nil)

	check := func(step string) {
		t.Helper()
		want := 0
		for _, rec := range r.Ledger() {
			if rec == Waiting {
				want++
			}
		}
		if got := snapshot(t, sh).GroupsWaiting; got != want {
			t.Fatalf("%s: waiting counter %d, ledger has %d", step, got, want)
		}
	}

	for g := 0; g < 5; g++ {
		if err := r.assignTableOrEnqueue(g); err != nil {
			t.Fatalf("assign %d: %v", g, err)
		}
		check("assign")
	}
	// A waiting group asking again is not counted twice.
	if err := r.assignTableOrEnqueue(4); err != nil {
		t.Fatalf("re-ask: %v", err)
	}
	check("re-ask")
	for _, g := range []int{1, 0, 2, 3, 4} {
		if err := r.settleBill(g); err != nil {
			t.Fatalf("settle %d: %v", g, err)
		}
		check("settle")
	}
	for g, rec := range r.Ledger() {
		if rec != Done {
			t.Errorf("ledger[%d] = %s, want DONE", g, rec)
		}
	}
}

func TestIllegalTransitionsAreInvariantViolations(t *testing.T) {
	sh, _ := newShared(t, model.NewFullState("illegal", 2, 2))
	r := NewReceptionist(sh, nil)

	if err := r.assignTableOrEnqueue(0); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := r.assignTableOrEnqueue(0); !errors.Is(err, ErrInvariant) {
		t.Fatalf("re-seat error = %v, want ErrInvariant", err)
	}
	if err := r.settleBill(1); !errors.Is(err, ErrInvariant) {
		t.Fatalf("bill before seating error = %v, want ErrInvariant", err)
	}
	if err := r.settleBill(0); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := r.assignTableOrEnqueue(0); !errors.Is(err, ErrInvariant) {
		t.Fatalf("seat after done error = %v, want ErrInvariant", err)
	}
	if err := r.assignTableOrEnqueue(7); !errors.Is(err, ErrInvariant) {
		t.Fatalf("unknown group error = %v, want ErrInvariant", err)
	}
}

func TestReceptionistRunStopsOnReseat(t *testing.T) {
	sh, _ := newShared(t, model.NewFullState("reseat", 1, 1))
	r := NewReceptionist(sh, nil)

	go func() {
		for i := 0; i < 2; i++ {
			if err := sh.Reception.Send(model.Request{Kind: model.TableRequest, Group: 0}, nil); err != nil {
				return
			}
		}
	}()

	err := r.Run()
	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("Run error = %v, want *FatalError", err)
	}
	if fe.Actor != "receptionist" || !errors.Is(err, ErrInvariant) {
		t.Fatalf("fatal error = %+v", fe)
	}
	if r.Served() != 1 {
		t.Fatalf("served = %d, want 1", r.Served())
	}
	if sh.Store.Attached() != 0 {
		t.Fatalf("still attached: %d", sh.Store.Attached())
	}
}

func TestGroupRecordString(t *testing.T) {
	cases := []struct {
		rec  GroupRecord
		want string
	}{
		{ToArrive, "TO_ARRIVE"},
		{Waiting, "WAITING"},
		{AtTable, "AT_TABLE"},
		{Done, "DONE"},
		{GroupRecord(9), "UNKNOWN"},
	}
	for _, c := range cases {
		if got := c.rec.String(); got != c.want {
			t.Errorf("%d: got %q, want %q", int(c.rec), got, c.want)
		}
	}
}
