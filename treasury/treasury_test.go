package treasury

import "testing"

func TestInMemory_ReserveWithinBalanceSucceeds(t *testing.T) {
	tr := NewInMemory(100)
	ok, err := tr.Reserve([]byte("alice"), 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected reserve to succeed within balance")
	}
}

func TestInMemory_ReserveBeyondBalanceFailsWithoutError(t *testing.T) {
	tr := NewInMemory(10)
	ok, err := tr.Reserve([]byte("alice"), 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected reserve beyond balance to fail")
	}
}

func TestInMemory_ReserveTwiceRespectsOutstandingHold(t *testing.T) {
	tr := NewInMemory(10)
	ok, err := tr.Reserve([]byte("alice"), 6)
	if err != nil || !ok {
		t.Fatalf("first reserve should succeed: ok=%v err=%v", ok, err)
	}
	ok, err = tr.Reserve([]byte("alice"), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("second reserve should fail: only 4 units remain available")
	}
}

func TestInMemory_DebitReleasesHoldAndDeductsBalance(t *testing.T) {
	tr := NewInMemory(10)
	if ok, err := tr.Reserve([]byte("alice"), 6); err != nil || !ok {
		t.Fatalf("reserve should succeed: ok=%v err=%v", ok, err)
	}
	if err := tr.Debit([]byte("alice"), 6); err != nil {
		t.Fatalf("unexpected error debiting: %v", err)
	}
	// Balance dropped to 4; a fresh reserve of 4 should now succeed and of
	// 5 should fail, proving the hold was released rather than doubled.
	if ok, err := tr.Reserve([]byte("alice"), 5); err != nil || ok {
		t.Fatalf("expected reserve of 5 against remaining balance 4 to fail: ok=%v err=%v", ok, err)
	}
	if ok, err := tr.Reserve([]byte("alice"), 4); err != nil || !ok {
		t.Fatalf("expected reserve of 4 against remaining balance 4 to succeed: ok=%v err=%v", ok, err)
	}
}

func TestInMemory_DebitBeyondHoldIsError(t *testing.T) {
	tr := NewInMemory(10)
	if err := tr.Debit([]byte("alice"), 1); err == nil {
		t.Fatalf("expected error debiting with no outstanding hold")
	}
}

func TestInMemory_DistinctCallersAreIsolated(t *testing.T) {
	tr := NewInMemory(10)
	if ok, err := tr.Reserve([]byte("alice"), 10); err != nil || !ok {
		t.Fatalf("alice reserve should succeed: ok=%v err=%v", ok, err)
	}
	if ok, err := tr.Reserve([]byte("bob"), 10); err != nil || !ok {
		t.Fatalf("bob should get an independent starting balance: ok=%v err=%v", ok, err)
	}
}
