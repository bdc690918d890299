// Package config holds the settings shared by the hasher front ends. A
// Config starts from Default and may be overlaid by a YAML file with Load;
// command-line flags are applied on top by the caller.
package config
