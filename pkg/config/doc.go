// Package config loads engine configuration from GATEHOUSE_* environment
// variables with sane defaults, and validates the result before anything is
// constructed from it.
package config
