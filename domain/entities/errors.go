package entities

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks; every typed error below matches one of them.
var (
	ErrDisconnect         = errors.New("disconnect error")
	ErrTimeout            = errors.New("timeout error")
	ErrCommit             = errors.New("commit error")
	ErrSwitch             = errors.New("switch error")
	ErrUncommittedChanges = errors.New("uncommitted changes pending")
)

// DisconnectError is a transport-level failure (handshake, socket loss)
type DisconnectError struct {
	Host   string
	Code   int
	Reason string
	Err    error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("host %s disconnect error: %s", e.Host, e.Reason)
}

func (e *DisconnectError) Unwrap() error { return e.Err }

func (e *DisconnectError) Is(target error) bool { return target == ErrDisconnect }

// TimeoutError means no pattern matched before the deadline
type TimeoutError struct {
	Host string
	Op   string
}

func (e *TimeoutError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("host %s timeout error", e.Host)
	}
	return fmt.Sprintf("host %s timeout error: %s", e.Host, e.Op)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// CommitError carries the device diagnostics of a rejected commit
type CommitError struct {
	Host   string
	Reason string
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("host %s commit error: %s", e.Host, e.Reason)
}

func (e *CommitError) Is(target error) bool { return target == ErrCommit }

// SwitchError means a mode transition did not produce the expected device state
type SwitchError struct {
	Host   string
	Mode   string
	Reason string
	Err    error
}

func (e *SwitchError) Error() string {
	return fmt.Sprintf("host %s switch error: %s", e.Host, e.Reason)
}

func (e *SwitchError) Unwrap() error { return e.Err }

func (e *SwitchError) Is(target error) bool { return target == ErrSwitch }
