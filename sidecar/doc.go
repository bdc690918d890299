// Package sidecar stores digests in companion files next to the hashed
// file or folder. A sidecar for "data.bin" hashed with sha256 is
// "data.bin.sha256" and holds one "<digest>  <name>" line, the layout
// read by sha256sum -c.
package sidecar
