package types

import (
	"encoding/json"
	"sort"
)

// LocalizedText is a string that may carry per-language variants.
// It unmarshals from either a plain JSON string or an object like
// {"fr": "...", "en": "..."}.
type LocalizedText map[string]string

// UnmarshalJSON accepts a bare string or a language-keyed object.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = LocalizedText{"": s}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*t = m
	return nil
}

// MarshalJSON emits a bare string for unlocalized values.
func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if s, ok := t[""]; ok && len(t) == 1 {
		return json.Marshal(s)
	}
	return json.Marshal(map[string]string(t))
}

// Resolve returns the variant for lang, falling back to the unlocalized
// value, then to any variant in deterministic key order.
func (t LocalizedText) Resolve(lang string) string {
	if s, ok := t[lang]; ok {
		return s
	}
	if s, ok := t[""]; ok {
		return s
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		return t[keys[0]]
	}
	return ""
}

// LocalizedList is a string list that may carry per-language variants,
// used for project achievements that exist in both French and English.
type LocalizedList map[string][]string

// UnmarshalJSON accepts a bare array or a language-keyed object of arrays.
func (l *LocalizedList) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = LocalizedList{"": items}
		return nil
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*l = m
	return nil
}

// MarshalJSON emits a bare array for unlocalized values.
func (l LocalizedList) MarshalJSON() ([]byte, error) {
	if items, ok := l[""]; ok && len(l) == 1 {
		return json.Marshal(items)
	}
	return json.Marshal(map[string][]string(l))
}

// Resolve returns the variant for lang, falling back to the unlocalized
// list, then to English, then to any variant in deterministic key order.
func (l LocalizedList) Resolve(lang string) []string {
	if items, ok := l[lang]; ok {
		return items
	}
	if items, ok := l[""]; ok {
		return items
	}
	if items, ok := l[LanguageEnglish]; ok {
		return items
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		return l[keys[0]]
	}
	return nil
}

// Project is one entry of the user's project inventory. Projects are
// supplied per request and immutable for the duration of a pipeline run.
type Project struct {
	Name           string        `json:"name"`
	Company        string        `json:"company,omitempty"`
	Location       LocalizedText `json:"location,omitempty"`
	StartDate      string        `json:"start_date,omitempty"`
	EndDate        string        `json:"end_date,omitempty"`
	Context        string        `json:"context"`
	Technologies   []string      `json:"technologies"`
	Achievements   LocalizedList `json:"achievements"`
	AvailableRoles []string      `json:"available_roles,omitempty"`
	Domains        []string      `json:"domains,omitempty"`
	Priority       float64       `json:"priority,omitempty"`
}

// ProjectInventory maps project name (the unique key) to project data.
type ProjectInventory map[string]Project

// Names returns all project names in sorted order for deterministic
// prompt construction.
func (inv ProjectInventory) Names() []string {
	names := make([]string, 0, len(inv))
	for name := range inv {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
