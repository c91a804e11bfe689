// Package config holds this node's runtime configuration. It has no flag
// parsing of its own (out of scope, per spec.md §1): a supervisor outside
// this module constructs a Config value and passes it to node.New. The
// shape follows watchtower.Config in the teacher stack — plain exported
// fields, injected collaborators instead of the concrete types that back
// them.
package config

import (
	"fmt"

	"github.com/pandoraboxchain/rustheus/params"
)

// DefaultTelnetPort is the base CLI shell port; the effective port is
// DefaultTelnetPort + NodeNumber, letting several local nodes run side by
// side during development (mirrors rustheus's config.rs).
const DefaultTelnetPort = 18900

// Config is this node's full runtime configuration.
type Config struct {
	// NodeNumber distinguishes multiple local nodes sharing a machine; it
	// offsets both the telnet port and the on-disk database path.
	NodeNumber int

	// DBPath is the block database root; when empty it defaults to
	// fmt.Sprintf("./db%d/", NodeNumber), matching rustheus's
	// "./db<number>/" convention.
	DBPath string

	// Params selects the network (magic bytes, genesis) this node runs.
	Params params.Params

	// MaxPoolTransactions is carried on Config, but nothing in this module
	// reads it: the memory pool node.New builds has no size bound.
	MaxPoolTransactions int

	// WorkerPoolSize sizes the verification worker pool accept/ offloads
	// block and transaction acceptance onto.
	WorkerPoolSize int
}

// TelnetPort returns the effective CLI shell port for this config.
func (c *Config) TelnetPort() int {
	return DefaultTelnetPort + c.NodeNumber
}

// DatabasePath returns the configured DBPath, or the node-numbered default.
func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return fmt.Sprintf("./db%d/", c.NodeNumber)
}

// Validate reports whether c is well-formed enough to build a node from.
func (c *Config) Validate() error {
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("config: WorkerPoolSize must be positive, got %d", c.WorkerPoolSize)
	}
	if c.Params.Magic == 0 {
		return fmt.Errorf("config: Params.Magic must be configured")
	}
	return nil
}
