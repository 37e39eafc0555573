package tag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Property 7: Tag construction accepts (k, v) iff k is non-empty, contains
// at least one non-whitespace non-replacement character, and does not
// begin with ':'.
func TestNewValidation(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"empty key", "", true},
		{"whitespace only", "   ", true},
		{"replacement char only", "�", true},
		{"whitespace and replacement", " � ", true},
		{"leading colon", ":env", true},
		{"plain key", "env", false},
		{"trailing colon in key is fine", "env:", false},
		{"leading whitespace then valid char", "  env", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(c.key, "value")
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStringDisplay(t *testing.T) {
	tg, err := New("sound", "woof")
	require.NoError(t, err)
	assert.Equal(t, "sound:woof", tg.String())

	keyOnly, err := New("sound", "")
	require.NoError(t, err)
	assert.Equal(t, "sound", keyOnly.String())
}

func TestParseChunkAbsentColonIsKeyOnly(t *testing.T) {
	tg, err := ParseChunk("standalone")
	require.NoError(t, err)
	assert.Equal(t, "standalone", tg.Key())
	assert.Equal(t, "", tg.Value())
}

func TestParseChunkOnlyFirstColonSplits(t *testing.T) {
	tg, err := ParseChunk("env:staging:east")
	require.NoError(t, err)
	assert.Equal(t, "env", tg.Key())
	assert.Equal(t, "staging:east", tg.Value())
}

func TestParseChunkLeadingColonIsError(t *testing.T) {
	_, err := ParseChunk(":leading")
	assert.Error(t, err)
}

// S5 -- tag parsing.
func TestParseStringSingleTagNoColonSplit(t *testing.T) {
	tags, err := ParseString("env:staging:east")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "env", tags[0].Key())
	assert.Equal(t, "staging:east", tags[0].Value())
}

func TestParseStringLeadingColonAggregatesError(t *testing.T) {
	tags, err := ParseString(":leading")
	assert.Empty(t, tags)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Errors while parsing tags: "))
}

// Property 8: parse_tags is stable under separator collisions.
func TestParseStringSeparatorCollisionsAreEquivalent(t *testing.T) {
	a, errA := ParseString("a:1,,b:2")
	b, errB := ParseString("a:1 b:2")
	require.NoError(t, errA)
	require.NoError(t, errB)
	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.Equal(t, a[0].String(), b[0].String())
	assert.Equal(t, a[1].String(), b[1].String())
	assert.Equal(t, "a:1", a[0].String())
	assert.Equal(t, "b:2", a[1].String())
}
