package mint

import "github.com/mintfed/federation/pkg/types"

// Decompose splits amount into the minimal set of power-of-two tiers
// pkg/modules/mint accepts (see isValidTier), one per set bit of amount's
// milli-satoshi value -- the binary representation is, by construction,
// both exact and minimal in coin count. Used both for a fresh issuance
// (spec.md §4.4 step 2) and for building change outputs on a spend.
func Decompose(amount types.Amount) []types.Amount {
	var tiers []types.Amount
	v := uint64(amount)
	for bit := uint(0); v != 0; bit++ {
		if v&1 == 1 {
			tiers = append(tiers, types.Amount(uint64(1)<<bit))
		}
		v >>= 1
	}
	return tiers
}
