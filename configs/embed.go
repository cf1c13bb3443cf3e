// Package configs holds the configuration templates embedded in the binary.
//
// Templates are used by `artifactindex config init`:
//   - project-config.example.yaml: .artifactindex.yaml next to the index
//   - user-config.example.yaml: $XDG_CONFIG_HOME/artifactindex/config.yaml
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults
//  2. User config
//  3. Project config (.artifactindex.yaml)
//  4. Environment variables (ARTIFACTINDEX_*)
package configs

import _ "embed"

// UserConfigTemplate is the template for machine-wide settings.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for a project's .artifactindex.yaml.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
