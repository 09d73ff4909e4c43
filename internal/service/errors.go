package service

import "errors"

var (
	ErrNoEntries      = errors.New("response contained no entries")
	ErrSyncInProgress = errors.New("holdings sync is already running")
)
