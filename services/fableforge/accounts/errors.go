// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package accounts

import "errors"

var (
	// ErrAlreadyExists is returned when registering a username that is taken.
	ErrAlreadyExists = errors.New("an account with this username already exists")

	// ErrInvalidUsername is returned when a username does not satisfy the
	// collection naming rules (word characters, 3-32 runes).
	ErrInvalidUsername = errors.New("username may only contain letters, digits and underscores (3-32 characters)")

	// ErrNotFound is returned when no account matches the given username.
	ErrNotFound = errors.New("account not found")

	// ErrResetMismatch is returned when the username/email pair does not
	// match a stored account on password reset.
	ErrResetMismatch = errors.New("username and email do not match any account")

	// ErrStoreUnavailable is returned when the backing document store
	// cannot be reached. The current operation is aborted; there is no retry.
	ErrStoreUnavailable = errors.New("account store is not reachable")
)
