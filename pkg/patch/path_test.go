package patch_test

import (
	"testing"

	"github.com/aretw0/vibecam/pkg/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want patch.Path
	}{
		{"title", patch.Path{patch.Key("title")}},
		{"metadata.title", patch.Path{patch.Key("metadata"), patch.Key("title")}},
		{"subjects[2].name", patch.Path{patch.IndexedKey("subjects", 2), patch.Key("name")}},
		{"a.b[0]", patch.Path{patch.Key("a"), patch.IndexedKey("b", 0)}},
		{"environment.lighting.type", patch.Path{patch.Key("environment"), patch.Key("lighting"), patch.Key("type")}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := patch.ParsePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParsePath_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"subjects[",
		"subjects[1",
		"subjects[x]",
		"subjects[-1]",
		"subjects[]",
		"subjects[1]name",
		"subjects[1][2]",
		"[0]",
		"a..b",
		"a]",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := patch.ParsePath(in)
			var malformed *patch.MalformedPathError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, in, malformed.Path)
		})
	}
}
