package domain

import "errors"

// Configuration errors. They are raised while the plan is built, before any
// resource is declared, and are always wrapped with the offending key.
var (
	ErrEmptyDomainName  = errors.New("domain name is empty")
	ErrMissingZone      = errors.New("domain has no hosted zone id")
	ErrDuplicateDomain  = errors.New("domain is registered more than once")
	ErrUnknownDomain    = errors.New("domain is not in the registry")
	ErrInvalidChunkSize = errors.New("invalid certificate chunk size")

	ErrEmptyBundle        = errors.New("site bundle is empty")
	ErrEmptySiteName      = errors.New("site name is empty")
	ErrDuplicateSite      = errors.New("site is assigned more than once")
	ErrBackendCollision   = errors.New("backend identifier is used by more than one backend")
	ErrUnknownEnvironment = errors.New("environment is empty")

	ErrDuplicateLegacySite = errors.New("legacy site is listed more than once")
)
