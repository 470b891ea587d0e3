// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package workspace

import (
	"context"
	"errors"
)

// CloneError wraps a failed clone.
type CloneError struct{ Err error }

func (e *CloneError) Error() string { return "clone: " + e.Err.Error() }
func (e *CloneError) Unwrap() error { return e.Err }

// FetchError wraps a failed base-ref fetch that could not be downgraded.
type FetchError struct{ Err error }

func (e *FetchError) Error() string { return "fetch: " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// CheckoutError wraps a failed checkout.
type CheckoutError struct{ Err error }

func (e *CheckoutError) Error() string { return "checkout: " + e.Err.Error() }
func (e *CheckoutError) Unwrap() error { return e.Err }

// DiffError wraps a failed diff, including diffs against unresolvable refs.
type DiffError struct{ Err error }

func (e *DiffError) Error() string { return "diff: " + e.Err.Error() }
func (e *DiffError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a git failure worth retrying. These
// are most often passing network problems. Cancellation is never transient,
// even when it surfaces wrapped inside a git error.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var (
		cloneErr    *CloneError
		fetchErr    *FetchError
		checkoutErr *CheckoutError
		diffErr     *DiffError
	)
	return errors.As(err, &cloneErr) || errors.As(err, &fetchErr) ||
		errors.As(err, &checkoutErr) || errors.As(err, &diffErr)
}
