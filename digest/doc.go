// Package digest maps algorithm names to hash primitives and provides State,
// the single-use running hash every hashing operation folds its input into.
//
// The set of algorithms is closed: Resolve accepts md5, sha1, sha256 and
// sha512 (case-insensitively) and rejects everything else with
// ErrUnsupportedAlgorithm. A State is created with New, fed with Update or
// Stream, and closed exactly once with Finalize, which renders the digest as
// lower-case hexadecimal.
package digest
