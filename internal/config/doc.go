// Package config loads gitzen configuration from local and global YAML files.
// Resolution order is CLI flag, then repository-local file, then global file;
// the CLI applies that order with the accessors defined here.
package config
