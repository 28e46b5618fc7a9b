// Package model defines shared data structures.
package model

import "time"

// Config defines roller settings.
type Config struct {
	Notation string
	Color    string
	User     string
	Instance string
	MaxDice  int
	LogLevel string
}

// HistoryConfig defines filters and options for history output.
type HistoryConfig struct {
	Instance string
	Since    *time.Time
	Last     int
	Window   int
}

// RollRecord captures a completed roll.
type RollRecord struct {
	ID        int64     `json:"id" yaml:"id"`
	Instance  string    `json:"instance" yaml:"instance"`
	User      string    `json:"user" yaml:"user"`
	Raw       string    `json:"raw" yaml:"raw"`
	Count     int       `json:"count" yaml:"count"`
	Kind      string    `json:"kind" yaml:"kind"`
	Faces     int       `json:"faces" yaml:"faces"`
	Modifier  int       `json:"modifier" yaml:"modifier"`
	Values    []int     `json:"values" yaml:"values,flow"`
	Aggregate int       `json:"aggregate" yaml:"aggregate"`
	RolledAt  time.Time `json:"rolledAt" yaml:"rolled_at"`
}

// ValueAggregate counts how often a die value came up for one die type.
type ValueAggregate struct {
	Die   string
	Value int
	Count int
}
