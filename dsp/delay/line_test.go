package delay

import (
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for size=0")
	}

	if _, err := New(1); err == nil {
		t.Fatal("expected error for size=1")
	}

	if _, err := ForDuration(0, 48000); err == nil {
		t.Fatal("expected error for zero duration")
	}

	if _, err := ForDuration(1, math.NaN()); err == nil {
		t.Fatal("expected error for NaN sample rate")
	}
}

func TestForDurationSize(t *testing.T) {
	d, err := ForDuration(2, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if d.Len() != 2002 {
		t.Fatalf("Len = %d, want 2002", d.Len())
	}

	if d.MaxDelay() != 2000 {
		t.Fatalf("MaxDelay = %v, want 2000", d.MaxDelay())
	}
}

func TestReadIntegerDelay(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 5; i++ {
		d.Write(float64(i))
	}

	if got := d.Read(1); got != 5 {
		t.Fatalf("Read(1) = %v, want 5", got)
	}

	if got := d.Read(3); got != 3 {
		t.Fatalf("Read(3) = %v, want 3", got)
	}
}

func TestReadWrapsAround(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 10; i++ {
		d.Write(float64(i))
	}

	if got := d.Read(1); got != 10 {
		t.Fatalf("Read(1) = %v, want 10", got)
	}

	if got := d.Read(4); got != 7 {
		t.Fatalf("Read(4) = %v, want 7", got)
	}
}

func TestReadLinearInterpolates(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 6; i++ {
		d.Write(float64(i) * 10)
	}

	// Read(2) = 50, Read(3) = 40.
	got := d.ReadLinear(2.25)
	if math.Abs(got-47.5) > 1e-12 {
		t.Fatalf("ReadLinear(2.25) = %v, want 47.5", got)
	}

	if got := d.ReadLinear(3); got != 40 {
		t.Fatalf("ReadLinear(3) = %v, want 40", got)
	}
}

func TestReadLinearClamps(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	d.Write(1)
	d.Write(2)

	if got := d.ReadLinear(0); got != 2 {
		t.Fatalf("ReadLinear(0) = %v, want newest sample 2", got)
	}

	if got := d.ReadLinear(100); got != d.ReadLinear(d.MaxDelay()) {
		t.Fatalf("ReadLinear(100) = %v, want clamp to MaxDelay", got)
	}
}

func TestReset(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	d.Write(1)
	d.Reset()

	for i := 1; i <= 4; i++ {
		if got := d.Read(i); got != 0 {
			t.Fatalf("Read(%d) after reset = %v, want 0", i, got)
		}
	}
}
