// Package prompts loads the LLM prompt templates embedded from JSON files.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

//go:embed *.json
var files embed.FS

// Set maps prompt keys to template text for one embedded file.
type Set map[string]string

var (
	sets   = make(map[string]Set)
	setsMu sync.Mutex
)

// Load returns the parsed prompt set stored in filename (for example "summarize.json").
// Files are parsed once per process.
func Load(filename string) (Set, error) {
	setsMu.Lock()
	defer setsMu.Unlock()

	if set, ok := sets[filename]; ok {
		return set, nil
	}

	data, err := files.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	sets[filename] = set
	return set, nil
}

// Keys returns the prompt keys of the set in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Get returns the template stored under key in filename.
func Get(filename, key string) (string, error) {
	set, err := Load(filename)
	if err != nil {
		return "", err
	}
	template, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return template, nil
}

// MustGet is Get for prompts that must exist at startup. It panics on a missing prompt.
func MustGet(filename, key string) string {
	template, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return template
}

// Render substitutes {{.Name}} placeholders with values from data in a single pass,
// so substituted text is never expanded again. Unknown placeholders are left as is.
func Render(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, 2*len(data))
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func reset() {
	setsMu.Lock()
	sets = make(map[string]Set)
	setsMu.Unlock()
}
