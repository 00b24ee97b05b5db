package compute

// Allowlist is the static set of machine or project names eligible for
// control actions. It is built once at startup and read-only afterwards.
// An empty list admits every machine.
type Allowlist struct {
	names map[string]struct{}
}

// NewAllowlist builds an Allowlist from the configured names.
func NewAllowlist(names []string) Allowlist {
	if len(names) == 0 {
		return Allowlist{}
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return Allowlist{names: set}
}

// Empty reports whether the allow-list imposes no restriction.
func (a Allowlist) Empty() bool { return len(a.names) == 0 }

// Allows reports whether the machine may be listed or acted on. A machine
// passes when its name or its project id is in the set.
func (a Allowlist) Allows(m Machine) bool {
	if a.Empty() {
		return true
	}
	if _, ok := a.names[m.Name]; ok {
		return true
	}
	_, ok := a.names[m.ProjectID]
	return ok
}
