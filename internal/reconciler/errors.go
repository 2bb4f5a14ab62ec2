package reconciler

import "errors"

var (
	ErrRoleCacheNotPopulated = errors.New("role cache is not populated")
	ErrNoSuchRole            = errors.New("no such role")
	ErrNoSuchCategory        = errors.New("no such category")
	ErrDuplicateDefinition   = errors.New("duplicate definition")
	ErrKindNotInSet          = errors.New("definition kind is outside of the pass kind set")
	ErrInvalidDefinition     = errors.New("invalid definition")
	ErrPassInProgress        = errors.New("another reconciliation pass is in progress")
	ErrPassLockLost          = errors.New("pass lock was lost before the pass finished")
)
