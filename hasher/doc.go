// Package hasher computes digests of files and directory trees and
// verifies them against expected values.
//
// HashFile digests the content of one file. HashFolder enumerates every
// regular file below a root, sorts the entries by their slash-separated
// relative path and folds, for each entry, the path bytes followed by the
// file content into a single digest.State. The result commits to both the
// structure and the content of the tree and does not depend on the order
// in which the filesystem lists directories. Verify dispatches to either
// operation and compares the result with an expected digest, ignoring
// case.
//
// Folder hashing accepts an optional Progress sink that observes file and
// byte counters; it never changes the resulting digest.
package hasher
