// Package confloader loads configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (BINDPLAN_ prefix, "__" between levels)
//  3. YAML configuration file
//  4. Values already set on the target struct
//
// Watcher reports changes to the configuration file so that settings
// such as the log level can be applied without a restart.
package confloader
