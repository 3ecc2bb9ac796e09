// Package config provides configuration structures and utilities for pagebinder.
// It defines the runtime options for crawling, document synthesis, size
// reduction and delivery, and the YAML file that maps target domains to
// upload destinations.
package config
