package semaphore

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDownBlocksUntilUp(t *testing.T) {
	set := NewSet()
	sem := set.Binary("ready", 0)

	done := make(chan error, 1)
	go func() { done <- sem.Down() }()

	select {
	case <-done:
		t.Fatal("Down returned before Up")
	case <-time.After(20 * time.Millisecond):
	}

	if err := sem.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Down: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Down still blocked after Up")
	}
	if v := sem.Value(); v != 0 {
		t.Errorf("value after rendezvous = %d, want 0", v)
	}
}

func TestBinaryOverflow(t *testing.T) {
	sem := NewSet().Binary("granted", 0)
	if err := sem.Up(); err != nil {
		t.Fatalf("first Up: %v", err)
	}
	err := sem.Up()
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("second Up error = %v, want ErrOverflow", err)
	}
	if v := sem.Value(); v != 1 {
		t.Errorf("value = %d, want 1", v)
	}
}

func TestCountingAccumulates(t *testing.T) {
	sem := NewSet().Counting("tokens", 0)
	for i := 0; i < 5; i++ {
		if err := sem.Up(); err != nil {
			t.Fatalf("Up %d: %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		ok, err := sem.TryDown()
		if err != nil || !ok {
			t.Fatalf("TryDown %d = %v, %v", i, ok, err)
		}
	}
	if ok, _ := sem.TryDown(); ok {
		t.Error("TryDown succeeded on an empty semaphore")
	}
}

func TestRemoveWakesBlockedCallers(t *testing.T) {
	set := NewSet()
	waits := set.BinaryArray("table", 3)

	var wg sync.WaitGroup
	errs := make(chan error, len(waits))
	for _, sem := range waits {
		wg.Add(1)
		go func(s *Semaphore) {
			defer wg.Done()
			errs <- s.Down()
		}(sem)
	}
	time.Sleep(10 * time.Millisecond)
	set.Remove()
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, ErrRemoved) {
			t.Errorf("Down after Remove = %v, want ErrRemoved", err)
		}
	}
	if err := waits[0].Up(); !errors.Is(err, ErrRemoved) {
		t.Errorf("Up after Remove = %v, want ErrRemoved", err)
	}
	if !set.Removed() {
		t.Error("set not reported removed")
	}
	set.Remove()
}

func TestSetLookupAndDuplicates(t *testing.T) {
	set := NewSet()
	set.Binary("mutex", 1)
	set.BinaryArray("foodArrived", 2)

	if set.Len() != 3 {
		t.Fatalf("Len = %d, want 3", set.Len())
	}
	sem, ok := set.Lookup("foodArrived[1]")
	if !ok || sem.Name() != "foodArrived[1]" {
		t.Fatalf("Lookup foodArrived[1] = %v, %v", sem, ok)
	}

	defer func() {
		if recover() == nil {
			t.Error("registering a duplicate name did not panic")
		}
	}()
	set.Binary("mutex", 1)
}
