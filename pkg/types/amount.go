// Package types holds the core value types shared by every module and by
// the client: Amount, PeerId, TransactionId, OutPoint, the tagged-variant
// Transaction, and the Outcome model. None of these types know about
// specific cryptography or chain formats -- those live behind the
// collaborator interfaces the modules in pkg/modules/* depend on.
package types

import "fmt"

// Amount is a non-negative quantity in the smallest denomination,
// milli-satoshis, matching the unit the teacher's proof and anchor code
// uses for on-chain value (sat/wei-style fixed-point integers).
type Amount uint64

// MilliSatsPerSat is the number of milli-satoshis in one satoshi.
const MilliSatsPerSat = 1000

// FromSats converts a whole-satoshi amount to Amount.
func FromSats(sats uint64) Amount {
	return Amount(sats * MilliSatsPerSat)
}

// Sats truncates the amount down to whole satoshis.
func (a Amount) Sats() uint64 {
	return uint64(a) / MilliSatsPerSat
}

// MilliSats returns the raw milli-satoshi value.
func (a Amount) MilliSats() uint64 {
	return uint64(a)
}

func (a Amount) String() string {
	return fmt.Sprintf("%d msat", uint64(a))
}

// Add returns a + b. Amounts never go negative; callers must check for
// sufficient balance before subtracting (see Sub).
func (a Amount) Add(b Amount) Amount {
	return a + b
}

// Sub returns a - b, or an error if b exceeds a (amounts are unsigned and
// must never underflow).
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, fmt.Errorf("types: amount underflow: %s - %s", a, b)
	}
	return a - b, nil
}
