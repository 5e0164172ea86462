package module

import "errors"

var (
	// ErrUnknownModule is returned when an Input/Output/ConsensusItem
	// names a module kind the registry has no implementation for.
	ErrUnknownModule = errors.New("module: unknown module kind")
	// ErrWrongCacheType is returned when a module is handed a
	// VerificationCache it didn't build.
	ErrWrongCacheType = errors.New("module: verification cache built by a different module")
)
