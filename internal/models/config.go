// Package models contains the data structures used throughout dbbackup.
package models

// GlobalSection is the reserved section merged into every backup section.
const GlobalSection = "Global"

// Config holds the parsed configuration file.
type Config struct {
	Global   map[string]string
	Sections []Section // in file order, Global excluded
}

// Section is one backup job.
type Section struct {
	Name     string
	Settings map[string]string
}
