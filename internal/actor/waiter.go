package actor

import (
	"log"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/store"
)

// Waiter relays food requests from groups to the chef and ready dishes from
// the chef back to the tables.  It takes no decisions of its own.
type Waiter struct {
	sh     *store.Shared
	logger *log.Logger
	served int
	orders []int
}

// NewWaiter builds a waiter for the run behind sh.
func NewWaiter(sh *store.Shared, logger *log.Logger) *Waiter {
	return &Waiter{sh: sh, logger: logger}
}

// Run serves exactly two requests per group: one food request and one
// food-ready notice.
func (w *Waiter) Run() (err error) {
	w.sh.Store.Attach()
	defer func() {
		if dErr := w.sh.Store.Detach(); err == nil {
			err = fatal("waiter", "detach", dErr)
		}
	}()

	for w.served < 2*w.sh.Groups {
		req, rErr := w.sh.Service.Receive(func(st *model.FullState) {
			st.Waiter = model.WaiterWaitForRequest
		})
		if rErr != nil {
			return fatal("waiter", "wait for request", rErr)
		}
		switch req.Kind {
		case model.FoodOrder:
			err = fatal("waiter", "inform chef", w.informChef(req.Group))
		case model.FoodReady:
			err = fatal("waiter", "take food to table", w.takeFoodToTable(req.Group))
		default:
			err = fatal("waiter", "dispatch", violation("unexpected request %s", req))
		}
		if err != nil {
			return err
		}
		w.served++
	}
	return nil
}

// Served returns the number of requests handled so far.
func (w *Waiter) Served() int { return w.served }

// Orders returns the groups whose orders were passed to the chef, in order.
func (w *Waiter) Orders() []int { return append([]int(nil), w.orders...) }

// informChef records the order of group g, tells the group it was taken,
// hands it to the chef and waits until the chef accepted it.
func (w *Waiter) informChef(g int) error {
	if g < 0 || g >= w.sh.Groups {
		return violation("food request from unknown group %d", g)
	}
	table := model.NoTable
	err := w.sh.Store.Update(func(st *model.FullState) error {
		st.Waiter = model.InformChef
		table = st.AssignedTable[g]
		if table == model.NoTable {
			return violation("group %d ordered without a table", g)
		}
		if st.FoodOrder {
			return violation("order of group %d still with the chef", st.FoodGroup)
		}
		st.FoodOrder = true
		st.FoodGroup = g
		return nil
	})
	if err != nil {
		return err
	}
	w.orders = append(w.orders, g)

	if err := w.sh.RequestReceived[table].Up(); err != nil {
		return err
	}
	if err := w.sh.WaitOrder.Up(); err != nil {
		return err
	}
	if err := w.sh.OrderReceived.Down(); err != nil {
		return err
	}
	if w.logger != nil {
		w.logger.Printf("order of group %d (table %d) accepted by the chef", g, table)
	}
	return nil
}

func (w *Waiter) takeFoodToTable(g int) error {
	if g < 0 || g >= w.sh.Groups {
		return violation("food ready for unknown group %d", g)
	}
	table := model.NoTable
	err := w.sh.Store.Update(func(st *model.FullState) error {
		st.Waiter = model.TakeToTable
		table = st.AssignedTable[g]
		if table == model.NoTable {
			return violation("food for group %d without a table", g)
		}
		return w.sh.FoodArrived[table].Up()
	})
	if err == nil && w.logger != nil {
		w.logger.Printf("food of group %d served at table %d", g, table)
	}
	return err
}
