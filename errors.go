// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import "errors"

var (
	ErrUnauthorized           = errors.New("caller lacks the required role")
	ErrReentrancyBlocked      = errors.New("vault operation already in progress")
	ErrPaused                 = errors.New("vault is paused")
	ErrForbiddenAssetRecovery = errors.New("cannot recover the deposit asset")
)
