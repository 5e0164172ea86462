package mint

import (
	"errors"
	"sort"

	"github.com/mintfed/federation/pkg/types"
)

// ErrInsufficientCoins is returned when available cannot reach target even
// spending every coin in it.
var ErrInsufficientCoins = errors.New("mint: insufficient coins to reach target amount")

// Select picks a subset of available summing to at least target,
// deterministically. pkg/modules/mint only accepts power-of-two tiers, so
// greedy largest-tier-first selection is also minimal in coin count: no
// combination of smaller tiers can match a larger one without using at
// least as many coins, the same reason a binary representation is a
// minimal sum of powers of two. Coins of equal tier are ordered by their
// serialized encoding, so two clients holding the same wallet content
// always select the same coins for the same target.
func Select(available []Coin, target types.Amount) ([]Coin, error) {
	if target == 0 {
		return nil, nil
	}

	sorted := make([]Coin, len(available))
	copy(sorted, available)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Tier != sorted[j].Tier {
			return sorted[i].Tier > sorted[j].Tier
		}
		return lessSerialized(sorted[i], sorted[j])
	})

	var picked []Coin
	var sum types.Amount
	for _, c := range sorted {
		if sum >= target {
			break
		}
		picked = append(picked, c)
		sum = sum.Add(c.Tier)
	}
	if sum < target {
		return nil, ErrInsufficientCoins
	}
	return picked, nil
}

func lessSerialized(a, b Coin) bool {
	sa, errA := Serialize([]Coin{a})
	sb, errB := Serialize([]Coin{b})
	if errA != nil || errB != nil {
		return false
	}
	return sa < sb
}
