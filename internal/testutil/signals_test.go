package testutil

import (
	"testing"
)

func TestDeterministicUniform(t *testing.T) {
	a := DeterministicUniform(42, 64)
	b := DeterministicUniform(42, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("samples not deterministic at index %d", i)
		}
		if a[i] < 0 || a[i] >= 1 {
			t.Fatalf("a[%d] = %v out of [0, 1)", i, a[i])
		}
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 64)
	b := DeterministicNoise(42, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
		if a[i] < -1 || a[i] > 1 {
			t.Fatalf("a[%d] = %v out of range", i, a[i])
		}
	}
}

func TestDeterministicNoiseDifferentSeeds(t *testing.T) {
	a := DeterministicNoise(1, 1.0, 16)
	b := DeterministicNoise(2, 1.0, 16)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestImpulse(t *testing.T) {
	imp := Impulse(8, 3)
	if len(imp) != 8 {
		t.Fatalf("len = %d, want 8", len(imp))
	}
	for i, v := range imp {
		if i == 3 {
			if v != 1 {
				t.Fatalf("imp[3] = %v, want 1", v)
			}
		} else if v != 0 {
			t.Fatalf("imp[%d] = %v, want 0", i, v)
		}
	}
}

func TestImpulseOutOfBounds(t *testing.T) {
	imp := Impulse(4, 10)
	for i, v := range imp {
		if v != 0 {
			t.Fatalf("imp[%d] = %v, want all zeros for out-of-bounds pos", i, v)
		}
	}
}

func TestDC(t *testing.T) {
	d := DC(0.5, 4)
	for i, v := range d {
		if v != 0.5 {
			t.Fatalf("DC[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestOnes(t *testing.T) {
	o := Ones(3)
	if len(o) != 3 {
		t.Fatalf("len = %d, want 3", len(o))
	}
	for i, v := range o {
		if v != 1 {
			t.Fatalf("Ones[%d] = %v, want 1", i, v)
		}
	}
}
