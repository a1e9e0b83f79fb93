package character

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Record is a read-only snapshot of a character sheet. Every field except
// Name may be absent; consumers apply their own fallbacks.
type Record struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`

	Class *ClassAttributes `json:"class,omitempty"`

	Race       string `json:"race,omitempty"`
	Background string `json:"background,omitempty"`

	Demographics Demographics `json:"demographics,omitempty"`
	Narrative    Narrative    `json:"narrative,omitempty"`

	// BiographyHTML is free-form markup from the sheet editor. Tags are
	// stripped before the text reaches any prompt.
	BiographyHTML string `json:"biography_html,omitempty"`

	Equipment []Item `json:"equipment,omitempty"`

	// PortraitPath and TokenPath point at the character's current artwork,
	// including any cache-busting query suffix.
	PortraitPath string `json:"portrait_path,omitempty"`
	TokenPath    string `json:"token_path,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type ClassAttributes struct {
	Name     string `json:"name"`
	Subclass string `json:"subclass,omitempty"`
	Level    int    `json:"level,omitempty"`
}

type Demographics struct {
	Gender    string `json:"gender,omitempty"`
	Age       string `json:"age,omitempty"`
	Height    string `json:"height,omitempty"`
	Weight    string `json:"weight,omitempty"`
	Alignment string `json:"alignment,omitempty"`
	Eyes      string `json:"eyes,omitempty"`
	Hair      string `json:"hair,omitempty"`
	Skin      string `json:"skin,omitempty"`
}

type Narrative struct {
	Faith             string `json:"faith,omitempty"`
	Kin               string `json:"kin,omitempty"`
	PersonalityTraits string `json:"personality_traits,omitempty"`
	Ideals            string `json:"ideals,omitempty"`
	Bonds             string `json:"bonds,omitempty"`
	Flaws             string `json:"flaws,omitempty"`
	Appearance        string `json:"appearance,omitempty"`
}

type Item struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// LoadRecord reads a character sheet from a JSON file.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid character file %s: %w", path, err)
	}
	if strings.TrimSpace(rec.Name) == "" {
		return nil, fmt.Errorf("character file %s has no name", path)
	}
	return &rec, nil
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func fromJSON(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}
