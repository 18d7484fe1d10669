package model

import "testing"

func TestLowestFreeTableIsFirstFit(t *testing.T) {
	st := NewFullState("run", 3, 3)
	st.AssignedTable[0] = 0
	st.AssignedTable[1] = 2

	if got := st.LowestFreeTable(); got != 1 {
		t.Errorf("LowestFreeTable = %d, want 1", got)
	}
	st.AssignedTable[2] = 1
	if got := st.LowestFreeTable(); got != NoTable {
		t.Errorf("LowestFreeTable with all tables taken = %d, want NoTable", got)
	}
}

func TestOccupantOf(t *testing.T) {
	st := NewFullState("run", 2, 2)
	st.AssignedTable[1] = 0
	if got := st.OccupantOf(0); got != 1 {
		t.Errorf("OccupantOf(0) = %d, want 1", got)
	}
	if got := st.OccupantOf(1); got != NoTable {
		t.Errorf("OccupantOf(1) = %d, want NoTable", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := NewFullState("run", 2, 1)
	cp := st.Clone()
	cp.Groups[0] = Eating
	cp.AssignedTable[0] = 0
	cp.StartTime[1] = 5

	if st.Groups[0] != Arriving || st.AssignedTable[0] != NoTable || st.StartTime[1] != 0 {
		t.Errorf("mutating the clone changed the original: %+v", st)
	}
}

func TestStatusCodes(t *testing.T) {
	cases := []struct{ got, want string }{
		{Arriving.Code(), "GOTO"},
		{Leaving.Code(), "LEAV"},
		{GroupStatus(42).Code(), "????"},
		{AssignTable.Code(), "ASGN"},
		{TakeToTable.Code(), "TTBL"},
		{Cook.Code(), "COOK"},
		{Request{Kind: FoodReady, Group: 3}.String(), "FOOD_READY(group=3)"},
		{RequestKind(9).String(), "RequestKind(9)"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}
