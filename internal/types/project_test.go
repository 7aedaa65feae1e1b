// Package types provides type definitions for structured data used throughout the resume-pipeline system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizedText_UnmarshalBareString(t *testing.T) {
	var lt LocalizedText
	err := json.Unmarshal([]byte(`"Paris, France"`), &lt)
	require.NoError(t, err)
	assert.Equal(t, "Paris, France", lt.Resolve("fr"))
	assert.Equal(t, "Paris, France", lt.Resolve("en"))
}

func TestLocalizedText_UnmarshalLanguageKeyed(t *testing.T) {
	var lt LocalizedText
	err := json.Unmarshal([]byte(`{"fr": "Ingénieur logiciel", "en": "Software Engineer"}`), &lt)
	require.NoError(t, err)
	assert.Equal(t, "Ingénieur logiciel", lt.Resolve("fr"))
	assert.Equal(t, "Software Engineer", lt.Resolve("en"))
}

func TestLocalizedText_ResolveFallsBackDeterministically(t *testing.T) {
	lt := LocalizedText{"en": "Lead Developer"}
	assert.Equal(t, "Lead Developer", lt.Resolve("fr"))

	empty := LocalizedText{}
	assert.Equal(t, "", empty.Resolve("fr"))
}

func TestLocalizedText_MarshalRoundTrip(t *testing.T) {
	bare := LocalizedText{"": "Remote"}
	data, err := json.Marshal(bare)
	require.NoError(t, err)
	assert.Equal(t, `"Remote"`, string(data))

	keyed := LocalizedText{"fr": "Télétravail", "en": "Remote"}
	data, err = json.Marshal(keyed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fr": "Télétravail", "en": "Remote"}`, string(data))
}

func TestLocalizedList_UnmarshalBareArray(t *testing.T) {
	var ll LocalizedList
	err := json.Unmarshal([]byte(`["Cut latency by 40%", "Migrated billing to Kafka"]`), &ll)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cut latency by 40%", "Migrated billing to Kafka"}, ll.Resolve("fr"))
}

func TestLocalizedList_UnmarshalLanguageKeyed(t *testing.T) {
	var ll LocalizedList
	err := json.Unmarshal([]byte(`{"fr": ["Réduction de 40% de la latence"], "en": ["Cut latency by 40%"]}`), &ll)
	require.NoError(t, err)
	assert.Equal(t, []string{"Réduction de 40% de la latence"}, ll.Resolve("fr"))
	assert.Equal(t, []string{"Cut latency by 40%"}, ll.Resolve("en"))
}

func TestLocalizedList_ResolveFallsBackToEnglish(t *testing.T) {
	ll := LocalizedList{"en": []string{"Shipped v2 of the API"}}
	assert.Equal(t, []string{"Shipped v2 of the API"}, ll.Resolve("fr"))
}

func TestProject_UnmarshalMixedLocalization(t *testing.T) {
	jsonInput := `{
		"name": "payments-platform",
		"company": "Acme Corp",
		"location": {"fr": "Lyon", "en": "Lyon, France"},
		"context": "Payment processing overhaul",
		"technologies": ["Go", "PostgreSQL", "Kafka"],
		"achievements": ["Processed 2M transactions/day"],
		"available_roles": ["Backend Engineer", "Tech Lead"],
		"priority": 0.9
	}`

	var p Project
	err := json.Unmarshal([]byte(jsonInput), &p)
	require.NoError(t, err)
	assert.Equal(t, "payments-platform", p.Name)
	assert.Equal(t, "Lyon", p.Location.Resolve("fr"))
	assert.Equal(t, "Lyon, France", p.Location.Resolve("en"))
	assert.Equal(t, []string{"Processed 2M transactions/day"}, p.Achievements.Resolve("fr"))
	assert.Equal(t, 0.9, p.Priority)
}

func TestProjectInventory_NamesSorted(t *testing.T) {
	inv := ProjectInventory{
		"zeta-search":       {Name: "zeta-search"},
		"alpha-billing":     {Name: "alpha-billing"},
		"mid-observability": {Name: "mid-observability"},
	}
	assert.Equal(t, []string{"alpha-billing", "mid-observability", "zeta-search"}, inv.Names())
}
