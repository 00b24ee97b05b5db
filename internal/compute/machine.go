package compute

import "strings"

// Machine is a cloud compute instance exposed for control through the bot.
// Machines are fetched fresh from the compute API on every request and never
// cached or mutated locally.
type Machine struct {
	ID        string
	Name      string
	Status    string
	FlavorID  string
	ProjectID string
}

// State returns the display bucket for the machine's current status.
func (m Machine) State() State { return StateOf(m.Status) }

// Flavor is the resource-sizing template attached to a machine.
type Flavor struct {
	ID    string
	Name  string
	VCPUs int
	RAM   int // MiB
	Disk  int // GiB
}

// State is the display bucket for a machine status. The cloud reports an
// open set of status strings; everything outside the three named buckets
// renders as neutral.
type State int

const (
	StateNeutral State = iota
	StateActive
	StateShutoff
	StateBuilding
)

// StateOf buckets a compute status string into a display state.
func StateOf(status string) State {
	switch strings.ToUpper(status) {
	case "ACTIVE":
		return StateActive
	case "SHUTOFF":
		return StateShutoff
	case "BUILD", "REBUILD":
		return StateBuilding
	default:
		return StateNeutral
	}
}

// Glyph returns the dot shown next to a machine in chat.
func (s State) Glyph() string {
	switch s {
	case StateActive:
		return "🟢"
	case StateShutoff:
		return "🔴"
	case StateBuilding:
		return "🟡"
	default:
		return "⚪"
	}
}

// String names the state for metrics labels and logs.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateShutoff:
		return "shutoff"
	case StateBuilding:
		return "building"
	default:
		return "other"
	}
}

// Summary aggregates machine statuses for the status views. Building
// machines count as Other, so Total is always Active + Shutoff + Other.
type Summary struct {
	Total   int
	Active  int
	Shutoff int
	Other   int
}

// Summarize buckets the given machines into a Summary.
func Summarize(machines []Machine) Summary {
	var s Summary
	for _, m := range machines {
		s.Total++
		switch m.State() {
		case StateActive:
			s.Active++
		case StateShutoff:
			s.Shutoff++
		default:
			s.Other++
		}
	}
	return s
}
