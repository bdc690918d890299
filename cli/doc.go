// Package cli implements the hasher command line. The root command hashes
// a file or folder and optionally compares the digest with an expected
// value; sub-commands list algorithms, serve the web front end, build and
// check manifests, and hash S3 objects.
package cli
