// Package domain defines the core business types for the IGNITE repricing engine.
//
// Types in this package are pure value objects with no behavior beyond
// validation and small pure helpers. They are the shared language between
// handlers, the rule engine, and repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
