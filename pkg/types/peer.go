package types

import "fmt"

// PeerId identifies one federation member. It is assigned by config, not by
// positional enumeration over a peer list, so that removing a peer from the
// set never shifts the identity of the peers that remain.
type PeerId uint16

func (p PeerId) String() string {
	return fmt.Sprintf("peer-%d", uint16(p))
}
