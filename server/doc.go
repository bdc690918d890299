// Package server is the web front end of the hasher. It serves an HTML
// form and a small JSON API that hash a local path, an uploaded file, an
// uploaded ZIP archive of a folder, or a set of uploaded files treated as
// one folder.
package server
