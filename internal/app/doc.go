// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle (single
// deployment, batch deployment from a config file, or build-only bundling),
// decoupled from any specific entrypoint like a CLI.
package app
