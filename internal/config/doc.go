// Package config loads named deployment configurations from an HCL file.
// Each `deployment "name" { ... }` block maps onto one deployment request;
// entries are validated independently so a bad entry is reported by name.
package config
