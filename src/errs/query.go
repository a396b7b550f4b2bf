/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPointer signals that a mutable node handle no longer resolves to a node
	// reachable from the tree root. It always indicates an internal bug, never bad input.
	ErrInvalidPointer = errors.New("invalid node pointer")

	ErrInvalidJSON = errors.New("invalid JSON parse tree")
)

// ParseError is returned when the SQL parser rejects the input.
type ParseError struct {
	Message   string
	Cursorpos int // 1-based byte offset into the query, 0 when unknown
	err       error
}

func (e *ParseError) Error() string {
	if e.Cursorpos > 0 {
		return fmt.Sprintf("parse error at position %d: %s", e.Cursorpos, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.err
}

func NewParseError(message string, cursorpos int, err error) *ParseError {
	return &ParseError{
		Message:   message,
		Cursorpos: cursorpos,
		err:       err,
	}
}

// DeparseError is returned when a parse tree cannot be turned back into SQL text.
type DeparseError struct {
	Message string
	err     error
}

func (e *DeparseError) Error() string {
	return fmt.Sprintf("deparse error: %s", e.Message)
}

func (e *DeparseError) Unwrap() error {
	return e.err
}

func NewDeparseError(err error) *DeparseError {
	return &DeparseError{
		Message: err.Error(),
		err:     err,
	}
}

// DecodeError wraps failures decoding the JSON form of a parse tree.
type DecodeError struct {
	err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidJSON, e.err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrInvalidJSON, e.err}
}

func NewDecodeError(err error) *DecodeError {
	return &DecodeError{err: err}
}
