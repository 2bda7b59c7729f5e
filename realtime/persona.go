package realtime

import (
	"fmt"
	"strings"
)

// Persona selects the tutor's speaking style.
type Persona string

const (
	PersonaDefault   Persona = "default"
	PersonaGentle    Persona = "gentle"
	PersonaEnergetic Persona = "energetic"
)

// ParsePersona maps a configuration value to a Persona.
func ParsePersona(s string) (Persona, error) {
	switch p := Persona(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PersonaDefault:
		return PersonaDefault, nil
	case PersonaGentle, PersonaEnergetic:
		return p, nil
	}
	return "", fmt.Errorf("unknown persona %q", s)
}

var baseRules = strings.Join([]string{
	"# Tutor operating rules",
	"",
	"## Workspace context (use first)",
	"- You receive a compact JSON document of type workspace_context and sometimes an image of the viewport.",
	"- Treat these as primary context; call tools only when needed.",
	"",
	"## Action safety",
	"- Perform small, atomic steps and verify results.",
	"- Destructive actions such as clear need the learner's confirmation; a tool result of approval_required means wait.",
}, "\n")

func styleBlock(p Persona) string {
	lines := []string{"## Role and style"}
	switch p {
	case PersonaGentle:
		lines = append(lines, "- Friendly, patient tutor.", "- Keep answers under 2 short sentences; acknowledge before you act.")
	case PersonaEnergetic:
		lines = append(lines, "- Upbeat, concise tutor.", "- Keep answers under 2 short sentences; use lively, brief confirmations.")
	default:
		lines = append(lines, "- Calm, concise tutor.", "- Keep answers under 2 short sentences.")
	}
	return strings.Join(lines, "\n")
}

// Instructions returns the system instructions for p.
func Instructions(p Persona) string {
	return styleBlock(p) + "\n\n" + baseRules
}
