package narrative

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neutantr-dot/dual-narrative/internal/rules"
)

// #region load-grammar
// LoadGrammar reads the emotional grammar map. The file is JSON or YAML; each
// value is either {tone, modulation} or a bare modulation string. A missing
// file yields an empty grammar and no error.
func LoadGrammar(path string) (Grammar, error) {
	if path == "" {
		return Grammar{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Grammar{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	return ParseGrammar(data)
}

// ParseGrammar decodes grammar bytes.
func ParseGrammar(data []byte) (Grammar, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	g := make(Grammar, len(raw))
	for key, node := range raw {
		var entry Tone
		switch node.Kind {
		case yaml.ScalarNode:
			entry.Modulation = node.Value
		case yaml.MappingNode:
			if err := node.Decode(&entry); err != nil {
				return nil, fmt.Errorf("parse grammar %q: %w", key, err)
			}
		default:
			continue
		}
		g[normalizeKey(key)] = entry
	}
	return g, nil
}
// #endregion load-grammar

// #region tone
// Line renders the tone line for a wheel state.
func (g Grammar) Line(wheelState string) string {
	key := normalizeKey(wheelState)
	entry, ok := g[key]
	if !ok || key == "" {
		return ToneFallback
	}
	tone := strings.TrimSpace(entry.Tone)
	if tone == "" {
		tone = key
	}
	return fmt.Sprintf("[Tone: %s] %s", tone, strings.TrimSpace(entry.Modulation))
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
// #endregion tone

// #region labels
// LoadLabels reads display labels from a headers table with columns
// Input_file, Field and Label. Unlisted slots keep their defaults.
func LoadLabels(table *rules.Table) Labels {
	l := DefaultLabels()
	for _, row := range table.All() {
		label := row.Get("Label")
		if label == "" {
			continue
		}
		var slot int
		if _, err := fmt.Sscanf(strings.ToLower(row.Get("Field")), "input%d", &slot); err != nil || slot < 1 {
			continue
		}
		switch {
		case row.Equal("Input_file", "voice_input") && slot <= VoiceSlots:
			l.Voice[slot-1] = label
		case row.Equal("Input_file", "background") && slot <= BackgroundSlots:
			l.Background[slot-1] = label
		}
	}
	return l
}
// #endregion labels
