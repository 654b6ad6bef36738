// Package config implements the configuration store for the Camera Cloud Server.
//
// Configuration is assembled from built-in defaults, an optional YAML file
// (config/default.yaml or the file named by CCS_CONFIG), and CCS_* environment
// variable overrides, then validated before the server starts.
package config
