package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kayz/tokenbrush/internal/character"
)

// Fallback text for absent sheet fields. A built description never contains
// an empty slot.
const (
	FallbackClass     = "adventurer"
	FallbackRace      = "humanoid"
	FallbackGender    = "unspecified gender"
	FallbackAge       = "unknown age"
	FallbackHeight    = "unknown height"
	FallbackWeight    = "unknown weight"
	FallbackAlignment = "neutral"
	FallbackEquipment = "no visible equipment"
	FallbackBiography = "No additional description."
)

// MaxEquipmentItems caps how many equipment entries are surfaced in the
// description. Items beyond the cap are dropped silently.
const MaxEquipmentItems = 5

const header = "Highly detailed digital portrait of a fantasy RPG character."

var htmlTagPattern = regexp.MustCompile(`<[^>]*>?`)

// Build renders a character record into a deterministic field-by-field
// description. Absent fields resolve to their documented fallbacks; the
// output never contains an empty slot.
func Build(rec *character.Record) string {
	var lines []string
	lines = append(lines, header)
	lines = append(lines, "Name: "+fallback(rec.Name, "Unknown"))
	lines = append(lines, "Class: "+classLine(rec.Class))
	lines = append(lines, "Race: "+fallback(rec.Race, FallbackRace))

	d := rec.Demographics
	lines = append(lines, fmt.Sprintf("Gender: %s, Age: %s, Height: %s, Weight: %s",
		fallback(d.Gender, FallbackGender),
		fallback(d.Age, FallbackAge),
		fallback(d.Height, FallbackHeight),
		fallback(d.Weight, FallbackWeight)))
	lines = append(lines, fmt.Sprintf("Level: %d, Alignment: %s",
		level(rec.Class), fallback(d.Alignment, FallbackAlignment)))

	if features := featureLine(d); features != "" {
		lines = append(lines, "Features: "+features)
	}
	lines = append(lines, "Background: "+fallback(rec.Background, "none"))

	n := rec.Narrative
	if n.Faith != "" {
		lines = append(lines, "Faith: "+n.Faith)
	}
	if n.Kin != "" {
		lines = append(lines, "Kin: "+n.Kin)
	}
	if traits := narrativeLine(n); traits != "" {
		lines = append(lines, "Personality: "+traits)
	}
	if n.Appearance != "" {
		lines = append(lines, "Appearance: "+strings.TrimSpace(n.Appearance))
	}

	lines = append(lines, "Visible Equipment: "+EquipmentLine(rec.Equipment))
	lines = append(lines, "Description: "+biography(rec.BiographyHTML))

	return strings.Join(lines, "\n")
}

func fallback(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

func classLine(c *character.ClassAttributes) string {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return FallbackClass
	}
	if sub := strings.TrimSpace(c.Subclass); sub != "" {
		return fmt.Sprintf("%s (%s)", strings.TrimSpace(c.Name), sub)
	}
	return strings.TrimSpace(c.Name)
}

func level(c *character.ClassAttributes) int {
	if c == nil || c.Level <= 0 {
		return 1
	}
	return c.Level
}

func featureLine(d character.Demographics) string {
	var parts []string
	if d.Eyes != "" {
		parts = append(parts, d.Eyes+" eyes")
	}
	if d.Hair != "" {
		parts = append(parts, d.Hair+" hair")
	}
	if d.Skin != "" {
		parts = append(parts, d.Skin+" skin")
	}
	return strings.Join(parts, ", ")
}

func narrativeLine(n character.Narrative) string {
	var parts []string
	for _, v := range []string{n.PersonalityTraits, n.Ideals, n.Bonds, n.Flaws} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "; ")
}

// EquipmentLine joins up to MaxEquipmentItems item names in sheet order.
func EquipmentLine(items []character.Item) string {
	var names []string
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
		if len(names) == MaxEquipmentItems {
			break
		}
	}
	if len(names) == 0 {
		return FallbackEquipment
	}
	return strings.Join(names, ", ")
}

// StripHTML removes markup tags from biography text. Malformed markup is
// stripped best-effort and whatever remains is kept as-is.
func StripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

func biography(html string) string {
	text := StripHTML(html)
	if text == "" {
		return FallbackBiography
	}
	return text
}
