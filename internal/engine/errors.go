package engine

import "errors"

// Sentinel errors for the engine.
var (
	// ErrStateNotFound means no rule execution state exists yet for a
	// (campaign, rule, variant) triple, i.e. the first evaluation.
	ErrStateNotFound = errors.New("rule execution state not found")

	// ErrUnsupportedTopic means the event kind carries no variant
	// information the engine can act on. Logged as a warning, then the
	// event is acknowledged.
	ErrUnsupportedTopic = errors.New("unsupported webhook topic")

	// ErrNoVariant means the payload did not yield a usable variant.
	ErrNoVariant = errors.New("no variant in payload")
)
