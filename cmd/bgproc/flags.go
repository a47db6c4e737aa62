package main

import "time"

// Flag structs decouple cobra from command logic for testing.

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
	APIUrl     string
	APITimeout time.Duration
}

// StartFlags holds flags for the start command.
type StartFlags struct {
	Name    string
	Command string
	WorkDir string
	EnvKVs  []string
	// Three-state alert flags: unset means "use the default".
	AlertOnSuccess bool
	AlertOnFailure bool
	AlertOnKill    bool
	SuccessChanged bool
	FailureChanged bool
	KillChanged    bool
}

// ListFlags holds flags for the list command.
type ListFlags struct {
	JSON bool
}

// TargetFlags address one process by id or name pattern.
type TargetFlags struct {
	Target string
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Listen     string
	LogDir     string
}
