// Package sprintplan carries module-wide metadata.
package sprintplan

// Version is the module version reported by the CLI. Overridable at build
// time through -ldflags "-X ...sprintplan.Version=...".
var Version = "0.1.0"
