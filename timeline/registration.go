package timeline

import "fmt"

// IDGenerator derives a timeline id from a registration name.
type IDGenerator func(name string) []byte

// Registration describes one timeline for AddTimelines.
type Registration struct {
	Timeline Handle
	// Name is passed to the IDGenerator when ID is empty.
	Name string
	// ID is assigned before registering when set.
	ID    []byte
	Tags  []string
	Owner any
	// Ignore skips the registration entirely.
	Ignore bool
}

// AddTimelines registers every non ignored timeline, assigning ids, tags and
// owners first. Registration stops at the first error; timelines added
// before it stay registered.
func (m *Manager) AddTimelines(gen IDGenerator, regs ...Registration) ([]Handle, error) {
	added := make([]Handle, 0, len(regs))
	for i, reg := range regs {
		if reg.Ignore {
			continue
		}
		if reg.Timeline == nil {
			return added, fmt.Errorf("registration %d (%q): nil timeline", i, reg.Name)
		}
		id := reg.ID
		if len(id) == 0 && gen != nil && reg.Name != "" {
			id = gen(reg.Name)
		}
		if len(id) > 0 {
			if err := reg.Timeline.SetID(id); err != nil {
				return added, fmt.Errorf("registration %d (%q): %w", i, reg.Name, err)
			}
		}
		reg.Timeline.AddTags(reg.Tags...)
		if reg.Owner != nil {
			reg.Timeline.SetOwner(reg.Owner)
		}
		if err := m.Add(reg.Timeline); err != nil {
			return added, fmt.Errorf("registration %d (%q): %w", i, reg.Name, err)
		}
		added = append(added, reg.Timeline)
	}
	return added, nil
}
