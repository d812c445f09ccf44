// Package store owns the on-disk cache directory: the .db_version
// contract, chunk discovery, atomic chunk replacement, and the tidy
// pass that reclaims cache entries no longer backed by any configured
// repo.
package store
