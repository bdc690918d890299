// Package bucket hashes objects stored in S3 or an S3 compatible store. A
// single object hashes like a file; every object under a key prefix hashes
// like a folder, with keys taken relative to the prefix, so a prefix and
// the same tree on disk share one digest.
package bucket
