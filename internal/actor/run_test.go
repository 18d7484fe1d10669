package actor

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/semaphore"
	"github.com/iliyamo/restaurant-sim/internal/store"
)

type crew struct {
	receptionist *Receptionist
	waiter       *Waiter
	chef         *Chef
}

// runRestaurant starts every actor against sh and waits for all of them.
// The first error removes the semaphore set so nobody stays blocked.
func runRestaurant(t *testing.T, sh *store.Shared, timing Timing) (crew, error) {
	t.Helper()
	c := crew{
		receptionist: NewReceptionist(sh, nil),
		waiter:       NewWaiter(sh, nil),
		chef:         NewChef(sh, timing, nil),
	}
	supervise := func(run func() error) func() error {
		return func() error {
			err := run()
			if err != nil {
				sh.Set.Remove()
			}
			return err
		}
	}
	var eg errgroup.Group
	eg.Go(supervise(c.receptionist.Run))
	eg.Go(supervise(c.waiter.Run))
	eg.Go(supervise(c.chef.Run))
	for g := 0; g < sh.Groups; g++ {
		eg.Go(supervise(NewGroup(g, sh, timing, nil).Run))
	}

	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()
	select {
	case err := <-done:
		return c, err
	case <-time.After(10 * time.Second):
		sh.Set.Remove()
		t.Fatal("restaurant did not finish: deadlock")
		return c, nil
	}
}

func TestRoundTripTwoGroupsOneTable(t *testing.T) {
	st := model.NewFullState("round-trip", 2, 1)
	st.EatTime[0] = 60 * time.Millisecond
	st.StartTime[1] = 10 * time.Millisecond
	sh, rec := newShared(t, st)

	c, err := runRestaurant(t, sh, Timing{Seed: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if c.receptionist.Served() != 4 || c.waiter.Served() != 4 {
		t.Fatalf("served receptionist=%d waiter=%d, want 4 and 4",
			c.receptionist.Served(), c.waiter.Served())
	}

	sawWaiting, aLeft, bSeatedAfter := false, false, false
	for _, s := range rec.Snapshots() {
		if s.GroupsWaiting == 1 && s.AssignedTable[0] == 0 && s.AssignedTable[1] == model.NoTable {
			sawWaiting = true
		}
		if sawWaiting && s.AssignedTable[0] == model.NoTable {
			aLeft = true
		}
		if aLeft && s.AssignedTable[1] == 0 {
			bSeatedAfter = true
		}
	}
	if !sawWaiting {
		t.Error("group 1 never waited while group 0 was seated")
	}
	if !bSeatedAfter {
		t.Error("group 1 was not seated at the table group 0 vacated")
	}
}

func TestFullRunKeepsInvariants(t *testing.T) {
	const groups, tables = 7, 3
	st := model.NewFullState("invariants", groups, tables)
	for g := 0; g < groups; g++ {
		st.StartTime[g] = time.Duration(g%3) * time.Millisecond
		st.EatTime[g] = 2 * time.Millisecond
	}
	sh, rec := newShared(t, st)

	c, err := runRestaurant(t, sh, Timing{
		ArrivalStdDev: time.Millisecond,
		EatStdDev:     time.Millisecond,
		CookMean:      time.Millisecond,
		Seed:          42,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, s := range rec.Snapshots() {
		seen := map[int]int{}
		for g, table := range s.AssignedTable {
			if table == model.NoTable {
				continue
			}
			if table < 0 || table >= tables {
				t.Fatalf("seq %d: group %d at table %d", s.Seq, g, table)
			}
			if other, dup := seen[table]; dup {
				t.Fatalf("seq %d: groups %d and %d share table %d", s.Seq, other, g, table)
			}
			seen[table] = g
		}
		if s.GroupsWaiting < 0 {
			t.Fatalf("seq %d: waiting counter %d", s.Seq, s.GroupsWaiting)
		}
	}

	final := snapshot(t, sh)
	for g, status := range final.Groups {
		if status != model.Leaving {
			t.Errorf("group %d ended as %s", g, status)
		}
	}
	for g, r := range c.receptionist.Ledger() {
		if r != Done {
			t.Errorf("ledger[%d] = %s", g, r)
		}
	}
	if final.GroupsWaiting != 0 {
		t.Errorf("waiting counter = %d at the end", final.GroupsWaiting)
	}
	if c.receptionist.Served() != 2*groups || c.waiter.Served() != 2*groups {
		t.Errorf("served receptionist=%d waiter=%d", c.receptionist.Served(), c.waiter.Served())
	}
	if n := len(c.chef.Cooked()); n != groups {
		t.Errorf("cooked %d orders", n)
	}
	if n := len(c.waiter.Orders()); n != groups {
		t.Errorf("waiter passed %d orders", n)
	}
	if sh.Store.Attached() != 0 {
		t.Errorf("still attached: %d", sh.Store.Attached())
	}
	if sh.Reception.Delivered() != 2*groups || sh.Service.Delivered() != 2*groups {
		t.Errorf("delivered reception=%d service=%d", sh.Reception.Delivered(), sh.Service.Delivered())
	}
}

// The chef is replaced by a script so the waiter is tested on its own.
func TestWaiterRelaysThroughScriptedChef(t *testing.T) {
	sh, _ := newShared(t, model.NewFullState("waiter", 1, 2))
	if err := sh.Store.Locked(func(st *model.FullState) error {
		st.AssignedTable[0] = 1
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	w := NewWaiter(sh, nil)

	chefErr := make(chan error, 1)
	go func() {
		if err := sh.WaitOrder.Down(); err != nil {
			chefErr <- err
			return
		}
		g := model.NoTable
		if err := sh.Store.Locked(func(st *model.FullState) error {
			g = st.FoodGroup
			st.FoodOrder = false
			return nil
		}); err != nil {
			chefErr <- err
			return
		}
		if err := sh.OrderReceived.Up(); err != nil {
			chefErr <- err
			return
		}
		chefErr <- sh.Service.Send(model.Request{Kind: model.FoodReady, Group: g}, nil)
	}()

	groupErr := make(chan error, 1)
	go func() {
		if err := sh.Service.Send(model.Request{Kind: model.FoodOrder, Group: 0}, nil); err != nil {
			groupErr <- err
			return
		}
		if err := sh.RequestReceived[1].Down(); err != nil {
			groupErr <- err
			return
		}
		groupErr <- sh.FoodArrived[1].Down()
	}()

	if err := w.Run(); err != nil {
		t.Fatalf("waiter: %v", err)
	}
	if err := <-chefErr; err != nil {
		t.Fatalf("chef: %v", err)
	}
	if err := <-groupErr; err != nil {
		t.Fatalf("group: %v", err)
	}
	if w.Served() != 2 {
		t.Fatalf("served = %d, want 2", w.Served())
	}
	if got := w.Orders(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("orders = %v", got)
	}
	if st := snapshot(t, sh); st.Waiter != model.TakeToTable {
		t.Fatalf("waiter status = %s", st.Waiter)
	}
}

func TestRemovedSetIsFatalForEveryActor(t *testing.T) {
	sh, _ := newShared(t, model.NewFullState("teardown", 2, 1))
	sh.Set.Remove()

	_, err := runRestaurant(t, sh, Timing{})
	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FatalError", err)
	}
	if !errors.Is(err, semaphore.ErrRemoved) {
		t.Fatalf("error = %v, want ErrRemoved", err)
	}
}

func TestChefStatusCycle(t *testing.T) {
	const groups, tables = 8, 3
	st := model.NewFullState("chef-cycle", groups, tables)
	for g := 0; g < groups; g++ {
		st.EatTime[g] = time.Millisecond
	}
	sh, rec := newShared(t, st)

	if _, err := runRestaurant(t, sh, Timing{CookMean: time.Millisecond, Seed: 3}); err != nil {
		t.Fatalf("run: %v", err)
	}

	next := map[model.ChefStatus]model.ChefStatus{
		model.WaitForOrder: model.Cook,
		model.Cook:         model.Rest,
		model.Rest:         model.WaitForOrder,
	}
	prev, rests := model.WaitForOrder, 0
	for _, s := range rec.Snapshots() {
		if s.Chef == prev {
			continue
		}
		if want := next[prev]; s.Chef != want {
			t.Fatalf("seq %d: chef went %s -> %s, want %s", s.Seq, prev, s.Chef, want)
		}
		if s.Chef == model.Rest {
			rests++
		}
		prev = s.Chef
	}
	if rests != groups {
		t.Fatalf("chef rested %d times, want %d", rests, groups)
	}
}

// A delivery stuck on the waiter's slot must not keep a failing chef from
// returning; the set is removed only after the chef reports the error.
func TestChefFailsFastWithDeliveryPending(t *testing.T) {
	sh, _ := newShared(t, model.NewFullState("chef-stuck", 2, 1))
	defer sh.Set.Remove()

	// Occupy the waiter's slot so the first FOOD_READY cannot be deposited.
	if err := sh.Service.Send(model.Request{Kind: model.FoodOrder, Group: 1}, nil); err != nil {
		t.Fatal(err)
	}
	if err := sh.Store.Locked(func(st *model.FullState) error {
		st.FoodOrder, st.FoodGroup = true, 0
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	c := NewChef(sh, Timing{}, nil)
	done := make(chan error, 1)
	go func() { done <- c.Run() }()

	if err := sh.WaitOrder.Up(); err != nil {
		t.Fatal(err)
	}
	if err := sh.OrderReceived.Down(); err != nil {
		t.Fatal(err)
	}
	// Wake the chef a second time with no order behind it.
	if err := sh.WaitOrder.Up(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrInvariant) {
			t.Fatalf("error = %v, want ErrInvariant", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("chef blocked on its pending delivery")
	}
	if sh.Set.Removed() {
		t.Fatal("set removed before the chef returned")
	}
}
