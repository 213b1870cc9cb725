// Package application provides the application registry and its
// configuration documents.
//
// An Application is a named consumer of the config store; each one owns a
// single Configuration, a free-form JSON document seeded with a default at
// registration. Names are unique, IDs are ULIDs, and configuration reads
// by name are the hot path for services fetching their settings at boot.
//
// The package defines Repository and ConfigurationRepository interfaces
// with PostgreSQL implementations over the shared connection pool, plus
// the validation rules enforced before anything reaches the database.
//
// # Thread Safety
//
// The repositories are safe for concurrent use; all state lives in the
// database and every call borrows a pooled connection only for its own
// duration.
package application
