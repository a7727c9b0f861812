package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound          = errors.New("campaign not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoRules           = errors.New("campaign has no pricing rules")
	ErrInvalidRule       = errors.New("invalid pricing rule")
)
