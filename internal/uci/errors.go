// Package uci speaks the Universal Chess Interface: Session drives an
// external engine process, Server answers the protocol with the built-in
// engine.
package uci

import (
	"errors"
	"fmt"
)

var (
	ErrEngineUnresponsive = errors.New("engine did not respond in time")
	ErrEngineExited       = errors.New("engine process exited")
	ErrSessionClosed      = errors.New("engine session is closed")
	ErrNoBestMove         = errors.New("engine has no move")
	ErrProtocol           = errors.New("unexpected engine output")
	ErrInvalidElo         = errors.New("elo out of range")
)

// OpError records which session operation failed.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("uci %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
