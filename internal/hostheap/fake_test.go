package hostheap

import "testing"

func TestFakeSourceGrowsMonotonically(t *testing.T) {
	src := NewFakeSource(256)

	base1, err := src.Sbrk(32)
	if err != nil {
		t.Fatalf("first Sbrk: %v", err)
	}

	if base1 != 0 {
		t.Fatalf("first Sbrk base = %d, want 0", base1)
	}

	base2, err := src.Sbrk(64)
	if err != nil {
		t.Fatalf("second Sbrk: %v", err)
	}

	if base2 != 32 {
		t.Fatalf("second Sbrk base = %d, want 32", base2)
	}

	if src.Hi() != 96 {
		t.Fatalf("Hi() = %d, want 96", src.Hi())
	}

	if len(src.Bytes()) != 96 {
		t.Fatalf("len(Bytes()) = %d, want 96", len(src.Bytes()))
	}
}

func TestFakeSourceOffsetsSurviveGrowth(t *testing.T) {
	src := NewFakeSource(256)

	base, _ := src.Sbrk(32)
	src.Bytes()[base] = 0xAB

	_, err := src.Sbrk(32)
	if err != nil {
		t.Fatalf("second Sbrk: %v", err)
	}

	if src.Bytes()[base] != 0xAB {
		t.Fatalf("byte at offset %d changed after growth", base)
	}
}

func TestFakeSourceFailNext(t *testing.T) {
	src := NewFakeSource(256)
	src.FailNextSbrk()

	if _, err := src.Sbrk(32); err != ErrExhausted {
		t.Fatalf("Sbrk after FailNextSbrk: got err %v, want ErrExhausted", err)
	}

	if src.Hi() != 0 {
		t.Fatalf("Hi() = %d after a failed Sbrk, want 0", src.Hi())
	}

	// The failure was one-shot.
	if _, err := src.Sbrk(32); err != nil {
		t.Fatalf("Sbrk after the forced failure: %v", err)
	}
}

func TestFakeSourceExhaustion(t *testing.T) {
	src := NewFakeSource(64)

	if _, err := src.Sbrk(32); err != nil {
		t.Fatalf("Sbrk(32): %v", err)
	}

	if _, err := src.Sbrk(64); err != ErrExhausted {
		t.Fatalf("Sbrk(64) over capacity: got err %v, want ErrExhausted", err)
	}
}
