// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package errors defines the error-kind taxonomy shared by every layer of
// codegraph, from the store adapter up through the query service and CLI.
// Callers construct a *Error with one of the New*Error helpers; transports
// convert to their own status codes only at the boundary.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport-agnostic handling. Transports map
// a Kind to their own status code at the boundary; core code never does.
type Kind int

const (
	// KindInternal covers errors with no more specific kind.
	KindInternal Kind = iota
	// KindNotFound: entity/file/path not in store or on disk.
	KindNotFound
	// KindBadRequest: empty required parameter, malformed key, scope parse failure.
	KindBadRequest
	// KindNotUtf8: source file contents not decodable as UTF-8.
	KindNotUtf8
	// KindStoreFailure: underlying store rejected a query or IO failed.
	KindStoreFailure
	// KindParserFailure: parser reported an unrecoverable error for a file.
	KindParserFailure
	// KindDisconnected: store handle is absent.
	KindDisconnected
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindBadRequest:
		return "BadRequest"
	case KindNotUtf8:
		return "NotUtf8"
	case KindStoreFailure:
		return "StoreFailure"
	case KindParserFailure:
		return "ParserFailure"
	case KindDisconnected:
		return "Disconnected"
	default:
		return "Internal"
	}
}

// Error is the concrete error type carried through the pipeline. Suggestions
// is populated only for scope-filter BadRequest errors: candidate folder
// names sharing the first letter of the misspelled L1.
type Error struct {
	Kind        Kind
	Message     string
	Suggestions []string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is allows errors.Is(err, &Error{Kind: KindNotFound}) style checks via a
// comparison on Kind rather than identity.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError builds a KindNotFound error.
func NewNotFoundError(format string, args ...any) *Error {
	return newErr(KindNotFound, format, args...)
}

// NewBadRequestError builds a KindBadRequest error.
func NewBadRequestError(format string, args ...any) *Error {
	return newErr(KindBadRequest, format, args...)
}

// NewBadRequestErrorWithSuggestions builds a KindBadRequest error carrying
// candidate alternatives, used for scope-filter typos.
func NewBadRequestErrorWithSuggestions(suggestions []string, format string, args ...any) *Error {
	e := newErr(KindBadRequest, format, args...)
	e.Suggestions = suggestions
	return e
}

// NewNotUtf8Error builds a KindNotUtf8 error.
func NewNotUtf8Error(path string) *Error {
	return newErr(KindNotUtf8, "file %s is not valid UTF-8", path)
}

// NewStoreFailureError wraps a store-layer error, surfacing its message verbatim.
func NewStoreFailureError(cause error) *Error {
	e := newErr(KindStoreFailure, "store operation failed")
	e.cause = cause
	return e
}

// NewParserFailureError wraps an unrecoverable parser error for a single file.
func NewParserFailureError(path string, cause error) *Error {
	e := newErr(KindParserFailure, "failed to parse %s", path)
	e.cause = cause
	return e
}

// NewDisconnectedError reports a missing store handle.
func NewDisconnectedError() *Error {
	return newErr(KindDisconnected, "store handle is not available")
}

// NewInternalError wraps an unclassified internal error.
func NewInternalError(cause error) *Error {
	e := newErr(KindInternal, "internal error")
	e.cause = cause
	return e
}

// NewConfigError reports a configuration load/parse failure.
func NewConfigError(format string, args ...any) *Error {
	return newErr(KindBadRequest, format, args...)
}

// NewDatabaseError wraps a store/database failure at the CLI boundary.
func NewDatabaseError(cause error) *Error {
	return NewStoreFailureError(cause)
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err is
// not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Fatal prints err to stderr (as JSON if jsonMode is set, matching the
// --json flag's precedence over human-readable output) and exits the
// process with a status code derived from Kind. It does not return.
func Fatal(err error, jsonMode bool) {
	fatal(err, jsonMode)
}
