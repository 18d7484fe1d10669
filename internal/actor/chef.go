package actor

import (
	"errors"
	"log"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/semaphore"
	"github.com/iliyamo/restaurant-sim/internal/store"
	"github.com/iliyamo/restaurant-sim/internal/utils"
)

// Timing holds the delay parameters of a run.  Per-group means live in the
// shared state (StartTime, EatTime); the deviations are added on top.
type Timing struct {
	ArrivalStdDev time.Duration
	EatStdDev     time.Duration
	CookMean      time.Duration
	CookStdDev    time.Duration
	Seed          int64
}

// Chef accepts one order at a time, cooks it and announces it to the waiter.
//
// Finished dishes are posted to the waiter's mailbox from a separate
// delivery goroutine.  The waiter blocks on the chef's acceptance while
// holding no slot, and a group may occupy the waiter's slot meanwhile, so a
// chef that posted inline could wait on the slot while the waiter waits on
// the chef.
type Chef struct {
	sh     *store.Shared
	logger *log.Logger
	timing Timing
	rnd    *rand.Rand
	cooked []int
}

// NewChef builds a chef for the run behind sh.
func NewChef(sh *store.Shared, timing Timing, logger *log.Logger) *Chef {
	return &Chef{
		sh:     sh,
		logger: logger,
		timing: timing,
		rnd:    utils.NewRand(timing.Seed, uint64(sh.Groups)+2),
	}
}

// Run cooks exactly one order per group.
func (c *Chef) Run() (err error) {
	c.sh.Store.Attach()
	defer func() {
		if dErr := c.sh.Store.Detach(); err == nil {
			err = fatal("chef", "detach", dErr)
		}
	}()

	var pass errgroup.Group
	for i := 0; i < c.sh.Groups; i++ {
		g, wErr := c.waitForOrder()
		if wErr != nil {
			// A delivery may be parked on the waiter's slot until the set is
			// removed, and the set is only removed after the chef returns.
			if errors.Is(wErr, semaphore.ErrRemoved) {
				_ = pass.Wait()
			}
			return fatal("chef", "wait for order", wErr)
		}
		utils.Sleep(utils.Jitter(c.rnd, c.timing.CookMean, c.timing.CookStdDev))
		c.cooked = append(c.cooked, g)
		if err := c.sh.Store.Update(func(st *model.FullState) error {
			st.Chef = model.Rest
			return nil
		}); err != nil {
			return fatal("chef", "rest", err)
		}
		pass.Go(func() error {
			return fatal("chef", "food ready", c.sh.Service.Send(
				model.Request{Kind: model.FoodReady, Group: g}, nil))
		})
	}
	return pass.Wait()
}

// Cooked returns the groups whose orders were cooked, in order.
func (c *Chef) Cooked() []int { return append([]int(nil), c.cooked...) }

func (c *Chef) waitForOrder() (int, error) {
	if err := c.sh.Store.Update(func(st *model.FullState) error {
		st.Chef = model.WaitForOrder
		return nil
	}); err != nil {
		return model.NoTable, err
	}
	if err := c.sh.WaitOrder.Down(); err != nil {
		return model.NoTable, err
	}
	g := model.NoTable
	err := c.sh.Store.Update(func(st *model.FullState) error {
		if !st.FoodOrder {
			return violation("chef woken without an order")
		}
		g = st.FoodGroup
		st.FoodOrder = false
		st.Chef = model.Cook
		return nil
	})
	if err != nil {
		return model.NoTable, err
	}
	if c.logger != nil {
		c.logger.Printf("cooking for group %d", g)
	}
	return g, c.sh.OrderReceived.Up()
}
