// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package valuation

import "errors"

// ErrRulesetNotFound is returned when a listing's static ruleset_id
// override names an inactive ruleset. An override naming a ruleset that
// does not exist returns the Provider's own lookup error instead.
var ErrRulesetNotFound = errors.New("valuation: overridden ruleset is missing or inactive")
