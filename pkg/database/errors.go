package database

import "errors"

// ErrNotReady is returned by Ping while PostgreSQL cannot be reached. The
// readiness check reports it as 503.
var ErrNotReady = errors.New("database not ready")
