// Package manifest records the digest of every file of a folder next to
// the folder digest itself. A stored manifest can later be checked against
// the tree to tell which files were added, removed or changed.
package manifest
