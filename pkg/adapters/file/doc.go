// Package file provides filesystem adapters: a graph loader for .json, .yaml
// and .hcl graph files, and a JSON state store.
package file
