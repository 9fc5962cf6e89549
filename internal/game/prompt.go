package game

import (
	"fmt"
	"strings"
)

func (m *Master) turnPrompt(c *Character, feedback []string) string {
	var b strings.Builder
	if !c.introduced {
		m.writeIntroduction(&b, c)
		c.introduced = true
	}
	fmt.Fprintf(&b, "Round %d of %d. You have %d action points.\n", m.round, m.world.settings.Rounds, c.ActionPoints)
	writeSection(&b, "Results of your last actions:", feedback)

	observations := m.events.Drain(c.ID)
	if len(observations) > 0 {
		lines := make([]string, 0, len(observations))
		for _, ev := range observations {
			lines = append(lines, ev.Message)
		}
		writeSection(&b, "Since your last prompt:", lines)
	}

	b.WriteString("\n")
	b.WriteString(m.world.Describe(c))
	b.WriteString("\nReply with one action per line, for example \"move north\". Write \"end turn\" when you are done.\n")
	return b.String()
}

func (m *Master) writeIntroduction(b *strings.Builder, c *Character) {
	if rules := strings.TrimSpace(m.world.settings.Rules); rules != "" {
		b.WriteString(rules)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(b, "You are playing %s.", c.Name)
	if c.Motive != "" {
		fmt.Fprintf(b, " Your motive: %s", c.Motive)
	}
	b.WriteString("\n\nAvailable actions:\n")
	for _, action := range m.world.Actions() {
		b.WriteString("- ")
		b.WriteString(action.Usage())
		fmt.Fprintf(b, " (%d AP)", action.Cost)
		if action.Description != "" {
			b.WriteString(": ")
			b.WriteString(action.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m *Master) confirmationPrompt(c *Character, feedback []string) string {
	var b strings.Builder
	writeSection(&b, "Results of your last actions:", feedback)
	fmt.Fprintf(&b, "Your turn is over, %s. Reply \"continue\" to play on next round or \"quit\" to leave the game for good.\n", c.Name)
	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(title)
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// Usage renders the action as a player would type it.
func (a *ActionDefinition) Usage() string {
	parts := []string{a.ID}
	for _, p := range a.Parameters {
		if p.Optional {
			parts = append(parts, "["+p.Name+"]")
		} else {
			parts = append(parts, "<"+p.Name+">")
		}
	}
	return strings.Join(parts, " ")
}

// Describe renders what the character can see from where they stand.
func (w *World) Describe(c *Character) string {
	room, ok := w.Room(c.Room)
	if !ok {
		return "You are nowhere.\n"
	}
	var b strings.Builder
	b.WriteString(room.Title)
	b.WriteString("\n")
	if room.Description != "" {
		b.WriteString(room.Description)
		b.WriteString("\n")
	}

	exits := w.VisibleExits(room.ID)
	if len(exits) == 0 {
		b.WriteString("Exits: none\n")
	} else {
		labels := make([]string, len(exits))
		for i, dir := range exits {
			labels[i] = dir
			if name := room.Exits[dir].DisplayName(dir); name != dir {
				labels[i] = fmt.Sprintf("%s (%s)", dir, name)
			}
		}
		fmt.Fprintf(&b, "Exits: %s\n", strings.Join(labels, ", "))
	}

	if objects := sortedObjects(room.Objects); len(objects) > 0 {
		fmt.Fprintf(&b, "You see: %s\n", objectNames(objects))
	}

	var others []string
	for _, other := range w.CharactersIn(room.ID) {
		if other.ID != c.ID {
			others = append(others, other.Name)
		}
	}
	if len(others) > 0 {
		fmt.Fprintf(&b, "Also here: %s\n", strings.Join(others, ", "))
	}
	b.WriteString(w.DescribeInventory(c))
	return b.String()
}

// DescribeInventory lists what the character carries.
func (w *World) DescribeInventory(c *Character) string {
	objects := sortedObjects(c.Inventory)
	if len(objects) == 0 {
		return "You carry nothing.\n"
	}
	return fmt.Sprintf("You carry: %s\n", objectNames(objects))
}

func objectNames(objects []*Object) string {
	names := make([]string, len(objects))
	for i, o := range objects {
		names[i] = o.Name
	}
	return strings.Join(names, ", ")
}
