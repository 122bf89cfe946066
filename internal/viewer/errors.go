package viewer

import "errors"

var (
	// ErrLoadFailure marks a model that could not be fetched, decoded or
	// uploaded. The session cannot continue.
	ErrLoadFailure = errors.New("model load failed")
	// ErrSyncFailure marks a failed annotation request. The session
	// continues with its previous state.
	ErrSyncFailure = errors.New("annotation sync failed")
	// ErrNotEditor is returned when an action needs the editor or admin role.
	ErrNotEditor = errors.New("editor access required")
)
