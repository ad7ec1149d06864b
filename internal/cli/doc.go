// Package cli translates command-line arguments and the optional TOML
// configuration file into an app.Config.
package cli
