// Package render formats digest results for people and for programs. Text
// output substitutes single-brace {name} placeholders in a format string;
// JSON output encodes the Result as an object.
package render
