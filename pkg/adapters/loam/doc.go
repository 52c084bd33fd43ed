// Package loam loads graphs from a Loam document repository and watches it for changes.
package loam
