package store

import "errors"

// Storage-level error sentinels. Services translate these into apperr types.
var (
	// Keyword rule errors
	ErrRuleNotFound     = errors.New("keyword rule not found")
	ErrDuplicateKeyword = errors.New("an active rule with this keyword already exists")

	// Flag errors
	ErrFlagNotFound   = errors.New("flag not found")
	ErrFlagNotPending = errors.New("flag already processed")

	// Company errors
	ErrCompanyNotFound = errors.New("company not found")
)
