// Package archive expands ZIP archives into directory trees so that their
// content can be hashed as a folder.
package archive
