/*
Package authz decides who may act for whom.

PURPOSE:
  Access-control checks over manager delegation windows, plus session
  token issuance. Delegation status is a pure function of the clock, so
  every check loads a fresh delegation snapshot and evaluates it at "now";
  nothing here is cached.

SEE ALSO:
  - engine/delegation.go: the pure resolution queries
  - token.go: JWT session tokens and password verification
*/
package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/workforce-engine/engine"
	"github.com/warp/workforce-engine/workforce"
)

// =============================================================================
// STORE INTERFACES - Implemented by store/sqlite
// =============================================================================

type UserStore interface {
	GetUser(ctx context.Context, id string) (workforce.User, error)
	GetUserByEmail(ctx context.Context, email string) (workforce.User, error)
}

type DelegationStore interface {
	// ListDelegations returns the full delegation snapshot in store order.
	// First-match selection over this order is the documented tie-break
	// when several windows are simultaneously active.
	ListDelegations(ctx context.Context) ([]engine.Delegation, error)
}

// =============================================================================
// AUTHORIZER
// =============================================================================

type Authorizer struct {
	Users       UserStore
	Delegations DelegationStore

	// Clock is swappable for tests; defaults to time.Now.
	Clock func() time.Time
}

func (a *Authorizer) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}

// CanManage reports whether actingUserID currently holds managerial
// authority over managerID's subordinates: either they are that manager,
// or an active delegate for them. Evaluated fresh on every call.
func (a *Authorizer) CanManage(ctx context.Context, actingUserID, targetManagerID string) (bool, error) {
	if actingUserID == targetManagerID {
		return true, nil
	}
	delegations, err := a.Delegations.ListDelegations(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load delegations: %w", err)
	}
	return engine.CanAccessSubordinateData(actingUserID, targetManagerID, a.now(), delegations), nil
}

// CanAccessUser reports whether actingUserID may read/act on the target
// user's records: themselves, their manager, or an active delegate for
// that manager.
func (a *Authorizer) CanAccessUser(ctx context.Context, actingUserID, targetUserID string) (bool, error) {
	if actingUserID == targetUserID {
		return true, nil
	}
	target, err := a.Users.GetUser(ctx, targetUserID)
	if err != nil {
		return false, err
	}
	if target.ManagerID == "" {
		return false, nil
	}
	return a.CanManage(ctx, actingUserID, target.ManagerID)
}

// ActingDelegate resolves who currently acts for a manager, if anyone.
func (a *Authorizer) ActingDelegate(ctx context.Context, managerID string) (string, bool, error) {
	delegations, err := a.Delegations.ListDelegations(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to load delegations: %w", err)
	}
	id, ok := engine.ActiveDelegateFor(managerID, a.now(), delegations)
	return id, ok, nil
}

// IsActingAsSecondManager reports whether the user holds any active
// delegation right now.
func (a *Authorizer) IsActingAsSecondManager(ctx context.Context, userID string) (bool, error) {
	delegations, err := a.Delegations.ListDelegations(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load delegations: %w", err)
	}
	return engine.IsActingAsSecondManager(userID, a.now(), delegations), nil
}
