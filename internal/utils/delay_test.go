package utils

import (
	"testing"
	"time"
)

func TestJitterIsReproducibleAndClamped(t *testing.T) {
	a, b := NewRand(7, 3), NewRand(7, 3)
	for i := 0; i < 100; i++ {
		da := Jitter(a, time.Millisecond, 5*time.Millisecond)
		db := Jitter(b, time.Millisecond, 5*time.Millisecond)
		if da != db {
			t.Fatalf("draw %d differs: %v vs %v", i, da, db)
		}
		if da < 0 {
			t.Fatalf("draw %d negative: %v", i, da)
		}
	}
}

func TestNormalOffsetBounds(t *testing.T) {
	r := NewRand(1, 1)
	const dev = time.Millisecond
	for i := 0; i < 1000; i++ {
		off := NormalOffset(r, dev)
		if off < -6*dev || off > 6*dev {
			t.Fatalf("offset %v outside six deviations", off)
		}
	}
	if off := NormalOffset(r, 0); off != 0 {
		t.Errorf("zero deviation offset = %v", off)
	}
}
