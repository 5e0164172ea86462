package client

import (
	"encoding/json"

	mintclient "github.com/mintfed/federation/client/mint"
	"github.com/mintfed/federation/pkg/kvdb"
)

const coinStoreKey = "wallet/coins"

// coinStore is the client's local record of unspent coins, kept as a
// single JSON-array-valued key (same read-modify-write shape as
// pkg/eventlog and pkg/modules/mint's issuance queue): there is no range
// scan over kvdb.KV, so "all coins of tier X" means "load the whole list
// and filter in memory", which is fine at wallet scale.
type coinStore struct {
	kv kvdb.KV
}

func newCoinStore(kv kvdb.KV) *coinStore {
	return &coinStore{kv: kv}
}

func (s *coinStore) all() ([]mintclient.Coin, error) {
	raw, err := s.kv.Get([]byte(coinStoreKey))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var coins []mintclient.Coin
	if err := json.Unmarshal(raw, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (s *coinStore) save(coins []mintclient.Coin) error {
	raw, err := json.Marshal(coins)
	if err != nil {
		return err
	}
	return s.kv.Set([]byte(coinStoreKey), raw)
}

// add appends newly-held coins to the store.
func (s *coinStore) add(coins ...mintclient.Coin) error {
	existing, err := s.all()
	if err != nil {
		return err
	}
	return s.save(append(existing, coins...))
}

// remove drops every coin whose nonce matches one of spent's, e.g. once
// the federation has accepted a transaction spending them.
func (s *coinStore) remove(spent []mintclient.Coin) error {
	existing, err := s.all()
	if err != nil {
		return err
	}
	burn := make(map[string]bool, len(spent))
	for _, c := range spent {
		burn[coinKey(c)] = true
	}
	kept := existing[:0]
	for _, c := range existing {
		if !burn[coinKey(c)] {
			kept = append(kept, c)
		}
	}
	return s.save(kept)
}

func coinKey(c mintclient.Coin) string {
	return string(c.Nonce)
}
