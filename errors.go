/*
 * errors.go, part of goABF
 *
 * Copyright 2024 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 *
*/
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package abf

import (
	"errors"
	"fmt"
	"strings"
)

//CriticalError is the interface for errors that all packages in this library implement.
//The Decorate method allows to add and retrieve info from the error, without changing
//its type or wrapping it around something else.
type CriticalError interface {
	error
	Decorate(string) []string
	Critical() bool
}

//Kinds of error. All the errors returned by this package wrap one of these,
//so they can be checked with errors.Is.
var (
	ErrConfig    = errors.New("invalid configuration")
	ErrDimension = errors.New("dimension mismatch")
	ErrInput     = errors.New("invalid input")
	ErrSingular  = errors.New("singular projector")
	ErrOutput    = errors.New("output error")
	ErrState     = errors.New("invalid restart state")
	ErrLifecycle = errors.New("method hook called out of order")
	ErrComm      = errors.New("collective reduction failed")
)

//Error is the general structure for errors in this package.
type Error struct {
	message  string
	deco     []string
	critical bool
	kind     error
	cause    error
}

func (err Error) Error() string {
	s := fmt.Sprintf("goABF: %s: %s", err.kind.Error(), err.message)
	if err.cause != nil {
		s += ": " + err.cause.Error()
	}
	return s
}

//Decorate adds dec to the decoration slice of the error, and returns the resulting slice.
//If dec is the empty string, the current slice is returned.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Trace returns the chain of functions the error went through, innermost first.
func (err Error) Trace() string {
	return strings.Join(err.deco, " <- ")
}

//Critical returns true if the simulation can't go on after this error.
func (err Error) Critical() bool { return err.critical }

func (err Error) Unwrap() []error {
	if err.cause == nil {
		return []error{err.kind}
	}
	return []error{err.kind, err.cause}
}

func newError(kind error, caller, message string, critical bool) Error {
	return Error{message: message, deco: []string{caller}, critical: critical, kind: kind}
}

//wrapError builds an Error of the given kind around an error from another package
//or the standard library.
func wrapError(kind error, caller, message string, cause error) Error {
	critical := true
	var c CriticalError
	if errors.As(cause, &c) {
		critical = c.Critical()
	}
	return Error{message: message, deco: []string{caller}, critical: critical, kind: kind, cause: cause}
}

//errDecorate adds the name of the caller to an Error before returning it up. Other
//errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(Error); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	return err
}

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }
