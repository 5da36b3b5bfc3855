// Package cli defines the Cobra command tree for the typepub CLI. Each file
// in this package registers one top-level command (publish, generate,
// validate, version) with the root command. Command implementations delegate
// to internal packages for business logic and only handle flag parsing and
// collaborator wiring.
package cli
