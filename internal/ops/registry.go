/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package ops classifies preprint's commands for grouped help output.
package ops

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupAssemble CommandGroup = "assemble" // flatten, package, diff
	GroupWorkflow CommandGroup = "workflow" // make, watch
	GroupSupport  CommandGroup = "support"  // init, version
)

// Groups lists the command groups in help order.
var Groups = []CommandGroup{GroupAssemble, GroupWorkflow, GroupSupport}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name        string
	Group       CommandGroup
	Command     *cobra.Command
	Description string
}

// Registry manages command classifications and registrations
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

var globalRegistry = NewRegistry()

// GetRegistry returns the global command registry
func GetRegistry() *Registry {
	return globalRegistry
}

// RegisterCommand registers a command with its operational classification
func RegisterCommand(name string, group CommandGroup, cmd *cobra.Command, description string) error {
	return GetRegistry().Register(name, group, cmd, description)
}

// Register adds a command to the registry
func (r *Registry) Register(name string, group CommandGroup, cmd *cobra.Command, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}
	if !knownGroup(group) {
		return fmt.Errorf("command %s: unknown group %q", name, group)
	}

	registration := &CommandRegistration{
		Name:        name,
		Group:       group,
		Command:     cmd,
		Description: description,
	}
	r.commands[name] = registration
	r.groupIndex[group] = append(r.groupIndex[group], registration)
	return nil
}

// GetCommand returns a registered command by name
func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns the commands in group, sorted by name
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]*CommandRegistration(nil), r.groupIndex[group]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unregistered returns the names of root's subcommands that carry no
// classification. Cobra's generated help and completion commands are
// exempt.
func (r *Registry) Unregistered(root *cobra.Command) []string {
	var missing []string
	for _, c := range root.Commands() {
		name := c.Name()
		if name == "help" || name == "completion" {
			continue
		}
		if _, ok := r.GetCommand(name); !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func knownGroup(g CommandGroup) bool {
	for _, known := range Groups {
		if g == known {
			return true
		}
	}
	return false
}
