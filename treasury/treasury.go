// Package treasury defines the narrow pre-debit hook the capability core
// consumes for unit accounting, per spec.md §1's "does not adjudicate
// payment settlement (only exposes a pre-debit hook into a treasury
// collaborator)." capcore never decides what a unit is worth or where
// debited units go; it only reserves and debits.
package treasury

import "fmt"

// Treasury is the interface the SyscallProvider calls to reserve units at
// enqueue time and debit them once an outcome (success or failure) is
// known. Implementations are external collaborators in production; the
// in-memory reference here exists so capcore is exercisable standalone.
type Treasury interface {
	// Reserve attempts to hold units against caller's balance. ok is false
	// (with a nil error) when the caller simply lacks sufficient balance;
	// err is reserved for the collaborator itself failing.
	Reserve(caller []byte, units uint64) (ok bool, err error)

	// Debit finalizes a previously reserved charge, transferring units out
	// of the hold. Debit of more units than were ever reserved for caller
	// is a programmer error, not a policy failure, and returns an error.
	Debit(caller []byte, units uint64) error
}

// InMemory is a reference Treasury backed by a plain map, suitable for
// devnets, tests, and the `serve --demo-blocks` harness. It is not
// persisted: restarting the process resets every balance and hold.
type InMemory struct {
	balances map[string]uint64
	holds    map[string]uint64
}

// NewInMemory returns an InMemory treasury with every caller starting at
// startingBalance units.
func NewInMemory(startingBalance uint64) *InMemory {
	return &InMemory{
		balances: map[string]uint64{"": startingBalance},
		holds:    map[string]uint64{},
	}
}

// balanceOf returns the balance stored for key. A caller not yet seen is
// first given the single starting balance NewInMemory was constructed with,
// stored under the empty-string key.
func (t *InMemory) balanceOf(key string) uint64 {
	if b, ok := t.balances[key]; ok {
		return b
	}
	b := t.balances[""]
	t.balances[key] = b
	return b
}

// Reserve holds units against caller, failing (ok=false) without mutating
// state if the available balance (balance minus existing holds) is
// insufficient.
func (t *InMemory) Reserve(caller []byte, units uint64) (bool, error) {
	key := string(caller)
	available := t.balanceOf(key) - t.holds[key]
	if units > available {
		return false, nil
	}
	t.holds[key] += units
	return true, nil
}

// Debit releases a prior hold of exactly units and deducts it from
// caller's balance. Debiting more than is currently held for caller is a
// programmer error.
func (t *InMemory) Debit(caller []byte, units uint64) error {
	key := string(caller)
	if t.holds[key] < units {
		return fmt.Errorf("treasury: debit of %d exceeds held units %d for caller", units, t.holds[key])
	}
	t.holds[key] -= units
	t.balances[key] -= units
	return nil
}
