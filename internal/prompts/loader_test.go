package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownPrompts(t *testing.T) {
	ClearCache()

	system, err := Get("structuring.json", "system")
	require.NoError(t, err)
	assert.Contains(t, system, "structured information from job descriptions")

	coord, err := Get("coordination.json", "system")
	require.NoError(t, err)
	assert.Contains(t, coord, "NO PROJECT can be used in more than one experience")
}

func TestGet_MissingKeyAndFile(t *testing.T) {
	_, err := Get("structuring.json", "nope")
	assert.Error(t, err)

	_, err = Get("missing.json", "system")
	assert.Error(t, err)
}

func TestGetLang_FallsBackToBareKey(t *testing.T) {
	// Language-specific variant exists.
	fr, err := GetLang("cover_letter.json", "system", "fr")
	require.NoError(t, err)
	assert.Contains(t, fr, "lettres de motivation")

	// No system_fr in coordination.json, falls back to "system".
	base, err := GetLang("coordination.json", "system", "fr")
	require.NoError(t, err)
	assert.Contains(t, base, "resume strategist")
}

func TestFormat(t *testing.T) {
	out := Format("Generate {{.Count}} bullets for {{.Project}}.", map[string]string{
		"Count":   "4",
		"Project": "payments-platform",
	})
	assert.Equal(t, "Generate 4 bullets for payments-platform.", out)

	// Unknown placeholders are left intact.
	out = Format("Hello {{.Nobody}}", map[string]string{"Name": "x"})
	assert.Equal(t, "Hello {{.Nobody}}", out)
}

func TestList(t *testing.T) {
	keys, err := List("bullets.json")
	require.NoError(t, err)
	assert.Contains(t, keys, "system")
	assert.Contains(t, keys, "enhancement_moderate")
	assert.Contains(t, keys, "examples_fr")
}
