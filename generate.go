//go:build generate
// +build generate

// Package main is the entry point for regenerating the schema bundle.
//
// It compiles the YAML sources under src/, rewrites and dereferences every
// schema in dist/, and bundles dist/bundle/schemas.bundle.js.
//
// Usage:
//   go generate -tags generate ./...
//
// The same steps can be run one at a time with the schemata sub-commands
// (compile, rewrite-refs, deref, build).
package main

//go:generate go run ./cmd/schemata all --check
