package application

import "errors"

var (
	// ErrApplicationNotFound is returned when an application ID or name does not exist.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrApplicationExists is returned when creating or renaming an
	// application to a name that is already taken.
	ErrApplicationExists = errors.New("application name already exists")

	// ErrConfigurationNotFound is returned when an application has no
	// configuration document.
	ErrConfigurationNotFound = errors.New("configuration not found")
)

// Validation sentinels. Wrapped errors carry the specific failure detail.
var (
	// ErrInvalidID is returned for identifiers that are not well-formed ULIDs.
	ErrInvalidID = errors.New("invalid application id")

	// ErrInvalidName is returned for names that are empty, too long, or
	// contain characters outside [A-Za-z0-9_-].
	ErrInvalidName = errors.New("invalid application name")

	// ErrInvalidDescription is returned for descriptions over the length limit.
	ErrInvalidDescription = errors.New("invalid description")

	// ErrInvalidConfig is returned for configuration documents that are
	// empty or exceed the serialised size limit.
	ErrInvalidConfig = errors.New("invalid configuration")
)
