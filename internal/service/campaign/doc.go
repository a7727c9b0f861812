// Package campaign implements pricing campaign lifecycle management.
//
// The service layer contains the business logic for creating, activating,
// pausing, and archiving campaigns and for validating their pricing rules.
// It depends on the repository interface defined in this package and should
// never import from api/.
//
// Repository implementations live in repository/postgres/.
package campaign
