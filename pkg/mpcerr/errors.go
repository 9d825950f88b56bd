// Package mpcerr collects the error taxonomy shared by both engines and the
// iris matcher (spec 7). Each kind is a sentinel that callers can match
// with errors.Is; culprit-attributed kinds carry the offending party ids.
package mpcerr

import (
	"errors"
	"fmt"

	"github.com/irisprotocol/iris3pc/pkg/party"
)

var (
	ErrConfig             = errors.New("mpcerr: config error")
	ErrValue              = errors.New("mpcerr: value error")
	ErrInvalidMessageSize = errors.New("mpcerr: invalid message size")
	ErrInvalidCodeSize    = errors.New("mpcerr: invalid iris code size")
	ErrInvalidSize        = errors.New("mpcerr: invalid size")
	ErrConversion         = errors.New("mpcerr: conversion error")
	ErrInvalidCommitment  = errors.New("mpcerr: invalid commitment")
	ErrJmpVerify          = errors.New("mpcerr: jmp verify failed")
	ErrVerify             = errors.New("mpcerr: mac verify failed")
	ErrDZKPVerify         = errors.New("mpcerr: dzkp verify failed")
	ErrMaskHW             = errors.New("mpcerr: mask hamming weight below threshold")
	ErrNoInverse          = errors.New("mpcerr: no inverse for even element")
	ErrSerialization      = errors.New("mpcerr: serialization error")
)

// IDError reports an invalid peer or party id (spec 7: IdError(id)).
type IDError struct {
	ID party.ID
}

func (e *IDError) Error() string { return fmt.Sprintf("mpcerr: invalid party id %d", uint8(e.ID)) }

// Attributed wraps a sentinel error kind with the party or parties it is
// attributed to, mirroring the teacher's protocol.Error{Culprits, Err}
// shape (pkg/protocol/handler.go in the teacher repo).
type Attributed struct {
	Kind     error
	Culprits []party.ID
	Detail   string
}

func (e *Attributed) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (culprits: %v)", e.Kind, e.Culprits)
	}
	return fmt.Sprintf("%v: %s (culprits: %v)", e.Kind, e.Detail, e.Culprits)
}

func (e *Attributed) Unwrap() error { return e.Kind }

// Newf builds an Attributed error attributing kind to culprits with a
// formatted detail message.
func Newf(kind error, culprits []party.ID, format string, args ...interface{}) error {
	return &Attributed{Kind: kind, Culprits: culprits, Detail: fmt.Sprintf(format, args...)}
}

// IsMaskHW reports whether err is (or wraps) ErrMaskHW, the one kind the
// iris matcher's DB scan swallows and continues past rather than
// propagating (spec 7 Propagation).
func IsMaskHW(err error) bool { return errors.Is(err, ErrMaskHW) }
