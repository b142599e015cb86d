// Package migrations holds the store's schema history. Each file registers
// its steps from init(); cmd/bytek imports the package for that side effect.
package migrations
