package actor

import (
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/store"
	"github.com/iliyamo/restaurant-sim/internal/utils"
)

// Group is one party of diners.  Its life cycle is strictly sequential and
// its status is published before every blocking point.
type Group struct {
	id     int
	sh     *store.Shared
	logger *log.Logger
	timing Timing
	rnd    *rand.Rand
	table  int
}

// NewGroup builds group id for the run behind sh.
func NewGroup(id int, sh *store.Shared, timing Timing, logger *log.Logger) *Group {
	return &Group{
		id:     id,
		sh:     sh,
		logger: logger,
		timing: timing,
		rnd:    utils.NewRand(timing.Seed, uint64(id)),
		table:  model.NoTable,
	}
}

// Table returns the table the group was seated at, or NoTable.
func (g *Group) Table() int { return g.table }

// Run drives the group from arrival to departure.
func (g *Group) Run() (err error) {
	name := fmt.Sprintf("group %d", g.id)
	g.sh.Store.Attach()
	defer func() {
		if dErr := g.sh.Store.Detach(); err == nil {
			err = fatal(name, "detach", dErr)
		}
	}()

	steps := []struct {
		op string
		fn func() error
	}{
		{"go to restaurant", g.goToRestaurant},
		{"check in", g.checkInAtReception},
		{"order food", g.orderFood},
		{"wait for food", g.waitFood},
		{"eat", g.eat},
		{"check out", g.checkOutAtReception},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fatal(name, s.op, err)
		}
	}
	return nil
}

func (g *Group) setStatus(s model.GroupStatus) error {
	return g.sh.Store.Update(func(st *model.FullState) error {
		st.Groups[g.id] = s
		return nil
	})
}

// fixedTime reads one of the group's bootstrap delays from the shared state.
func (g *Group) fixedTime(pick func(st *model.FullState) time.Duration) (time.Duration, error) {
	var d time.Duration
	err := g.sh.Store.Locked(func(st *model.FullState) error {
		d = pick(st)
		return nil
	})
	return d, err
}

func (g *Group) goToRestaurant() error {
	d, err := g.fixedTime(func(st *model.FullState) time.Duration { return st.StartTime[g.id] })
	if err != nil {
		return err
	}
	utils.Sleep(utils.Jitter(g.rnd, d, g.timing.ArrivalStdDev))
	return nil
}

func (g *Group) checkInAtReception() error {
	if err := g.setStatus(model.AtReception); err != nil {
		return err
	}
	err := g.sh.Reception.Send(model.Request{Kind: model.TableRequest, Group: g.id}, func(st *model.FullState) {
		st.Groups[g.id] = model.WaitingForTable
	})
	if err != nil {
		return err
	}
	if err := g.sh.WaitForTable[g.id].Down(); err != nil {
		return err
	}
	return g.sh.Store.Locked(func(st *model.FullState) error {
		g.table = st.AssignedTable[g.id]
		if g.table == model.NoTable {
			return violation("group %d released without a table", g.id)
		}
		return nil
	})
}

func (g *Group) orderFood() error {
	if err := g.setStatus(model.FoodRequest); err != nil {
		return err
	}
	if err := g.sh.Service.Send(model.Request{Kind: model.FoodOrder, Group: g.id}, nil); err != nil {
		return err
	}
	return g.sh.RequestReceived[g.table].Down()
}

func (g *Group) waitFood() error {
	if err := g.setStatus(model.WaitForFood); err != nil {
		return err
	}
	if err := g.sh.FoodArrived[g.table].Down(); err != nil {
		return err
	}
	return g.setStatus(model.Eating)
}

func (g *Group) eat() error {
	d, err := g.fixedTime(func(st *model.FullState) time.Duration { return st.EatTime[g.id] })
	if err != nil {
		return err
	}
	if g.logger != nil {
		g.logger.Printf("group %d eating at table %d", g.id, g.table)
	}
	utils.Sleep(utils.Jitter(g.rnd, d, g.timing.EatStdDev))
	return nil
}

func (g *Group) checkOutAtReception() error {
	if err := g.setStatus(model.Checkout); err != nil {
		return err
	}
	if err := g.sh.Reception.Send(model.Request{Kind: model.BillRequest, Group: g.id}, nil); err != nil {
		return err
	}
	if err := g.sh.TableDone[g.table].Down(); err != nil {
		return err
	}
	return g.setStatus(model.Leaving)
}
