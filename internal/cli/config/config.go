// Package config carries the flag state shared by every subcommand.
package config

// RootConfig holds the persistent flags of the root command.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
}
