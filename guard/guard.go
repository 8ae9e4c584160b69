package guard

import (
	"errors"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnauthorized is returned when a privileged operation is attempted
	// by anyone other than the configured owner.
	ErrUnauthorized = errors.New("caller is not the owner")

	// ErrReentrantCall is returned when the execution lock is already held.
	ErrReentrantCall = errors.New("reentrant call")
)

// AccessGuard restricts privileged operations to a single owner identity.
type AccessGuard struct {
	owner common.Address
}

// NewAccessGuard creates an access guard for the given owner.
func NewAccessGuard(owner common.Address) *AccessGuard {
	return &AccessGuard{owner: owner}
}

// RequireOwner returns ErrUnauthorized unless caller matches the owner.
func (g *AccessGuard) RequireOwner(caller common.Address) error {
	if caller != g.owner {
		return ErrUnauthorized
	}
	return nil
}

// Owner returns the configured owner identity.
func (g *AccessGuard) Owner() common.Address {
	return g.owner
}

const (
	stateIdle int32 = iota
	stateActive
)

// ReentrancyGuard is a single-flight execution lock. A callback that makes
// external calls before finalizing state holds the lock for its whole
// duration; any overlapping entry fails instead of interleaving.
type ReentrancyGuard struct {
	state int32
}

// NewReentrancyGuard returns a guard in the idle state.
func NewReentrancyGuard() *ReentrancyGuard {
	return &ReentrancyGuard{state: stateIdle}
}

// Enter acquires the lock, failing with ErrReentrantCall if it is held.
// Every successful Enter must be paired with Exit on all return paths.
func (g *ReentrancyGuard) Enter() error {
	if !atomic.CompareAndSwapInt32(&g.state, stateIdle, stateActive) {
		return ErrReentrantCall
	}
	return nil
}

// Exit releases the lock.
func (g *ReentrancyGuard) Exit() {
	atomic.StoreInt32(&g.state, stateIdle)
}

// Active reports whether the lock is currently held.
func (g *ReentrancyGuard) Active() bool {
	return atomic.LoadInt32(&g.state) == stateActive
}
