// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidState indicates a GenerationState failed validation.
	ErrInvalidState = errors.New("invalid generation state")

	// ErrInvalidSubtopic indicates a Subtopic failed validation.
	ErrInvalidSubtopic = errors.New("invalid subtopic")

	// ErrInvalidChunk indicates a ContentChunk failed validation.
	ErrInvalidChunk = errors.New("invalid content chunk")

	// ErrEmptyContent indicates a content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMissingThreadID indicates an invocation without a thread identifier.
	ErrMissingThreadID = errors.New("thread id is required")

	// ErrMissingEditData indicates an edit without a content payload.
	ErrMissingEditData = errors.New("no edit data provided")

	// ErrMissingConsultRequest indicates a consult without request or content.
	ErrMissingConsultRequest = errors.New("no consultation request or content provided")

	// ErrNoContent indicates a publish of a subtopic that has no content.
	ErrNoContent = errors.New("no content available to publish")

	// ErrIndexOutOfRange indicates a subtopic index outside [0, total).
	ErrIndexOutOfRange = errors.New("subtopic index out of range")

	// ErrLastSubtopic indicates next was requested on the final subtopic.
	ErrLastSubtopic = errors.New("already at the last subtopic")

	// ErrUnknownAction indicates an action name outside the closed action set.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidChunkType indicates a chunk type outside the known set.
	ErrInvalidChunkType = errors.New("invalid chunk type")

	// ErrAnswerCountMismatch indicates a quiz answer list of the wrong length.
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
)

// ErrorKind classifies failures so that callers can map them to distinct responses.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindTransient
	KindConfiguration
	KindModelCall
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindConfiguration:
		return "configuration"
	case KindModelCall:
		return "model_call"
	}
	return "unknown"
}

// ValidationError reports bad input. It is surfaced immediately and never retried.
type ValidationError struct {
	Op  string
	Err error
}

func NewValidationError(op string, err error) *ValidationError {
	return &ValidationError{Op: op, Err: err}
}

func (e *ValidationError) Error() string { return format("validation", e.Op, e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports an absent session, topic, subtopic or checkpoint.
type NotFoundError struct {
	Op       string
	Resource string
	Key      string
	Err      error
}

func NewNotFoundError(op, resource, key string, err error) *NotFoundError {
	return &NotFoundError{Op: op, Resource: resource, Key: key, Err: err}
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %s not found", e.Resource, e.Key)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}
func (e *NotFoundError) Unwrap() error { return e.Err }

// TransientError reports a connectivity failure that may succeed on retry.
type TransientError struct {
	Op  string
	Err error
}

func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

func (e *TransientError) Error() string { return format("transient", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// ConfigurationError reports a defect in wiring, such as a routing target with
// no handler. It is never retried.
type ConfigurationError struct {
	Op  string
	Err error
}

func NewConfigurationError(op string, err error) *ConfigurationError {
	return &ConfigurationError{Op: op, Err: err}
}

func (e *ConfigurationError) Error() string { return format("configuration", e.Op, e.Err) }
func (e *ConfigurationError) Unwrap() error { return e.Err }

// ModelCallError reports a failed embedding or generation API call.
type ModelCallError struct {
	Op    string
	Model string
	Err   error
}

func NewModelCallError(op, model string, err error) *ModelCallError {
	return &ModelCallError{Op: op, Model: model, Err: err}
}

func (e *ModelCallError) Error() string {
	op := e.Op
	if e.Model != "" {
		op = fmt.Sprintf("%s (%s)", e.Op, e.Model)
	}
	return format("model call", op, e.Err)
}
func (e *ModelCallError) Unwrap() error { return e.Err }

func format(kind, op string, err error) string {
	switch {
	case op == "" && err == nil:
		return kind + " error"
	case op == "":
		return fmt.Sprintf("%s error: %v", kind, err)
	case err == nil:
		return fmt.Sprintf("%s: %s error", op, kind)
	}
	return fmt.Sprintf("%s: %v", op, err)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsTransient reports whether err is or wraps a *TransientError.
func IsTransient(err error) bool {
	var target *TransientError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err is or wraps a *ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsModelCall reports whether err is or wraps a *ModelCallError.
func IsModelCall(err error) bool {
	var target *ModelCallError
	return errors.As(err, &target)
}

// Kind returns the taxonomy class of err. The outermost typed error wins.
func Kind(err error) ErrorKind {
	for err != nil {
		switch err.(type) {
		case *ValidationError:
			return KindValidation
		case *NotFoundError:
			return KindNotFound
		case *TransientError:
			return KindTransient
		case *ConfigurationError:
			return KindConfiguration
		case *ModelCallError:
			return KindModelCall
		}
		err = errors.Unwrap(err)
	}
	return KindUnknown
}
