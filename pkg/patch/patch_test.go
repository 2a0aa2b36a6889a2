package patch_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDoc(t *testing.T, raw string) *domain.Object {
	t.Helper()
	doc, err := domain.DecodeObject([]byte(raw))
	require.NoError(t, err)
	return doc
}

func decodePatch(t *testing.T, raw string) patch.Patch {
	t.Helper()
	p, err := patch.Decode([]byte(raw))
	require.NoError(t, err)
	return p
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestDecode_KeepsOrder(t *testing.T) {
	p := decodePatch(t, `{"z.a": 1, "a.z": 2, "m": {"x": 1}}`)
	assert.Equal(t, []string{"z.a", "a.z", "m"}, p.Paths())

	_, err := patch.Decode([]byte(`["not", "a", "mapping"]`))
	assert.ErrorIs(t, err, patch.ErrNotAMapping)

	_, err = patch.Decode([]byte(`{broken`))
	assert.Error(t, err)
}

func TestApply_AutoExtension(t *testing.T) {
	doc := decodeDoc(t, `{"subjects": []}`)

	n, err := patch.Apply(doc, decodePatch(t, `{"subjects[2].name": "X"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, `{"subjects":[{},{},{"name":"X"}]}`, jsonOf(t, doc))
}

func TestApply_CreatesMissingContainers(t *testing.T) {
	doc := domain.NewObject()

	_, err := patch.Apply(doc, decodePatch(t, `{"environment.lighting.type": "neon", "gallery[1]": "b"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"environment":{"lighting":{"type":"neon"}},"gallery":[{},"b"]}`, jsonOf(t, doc))
}

func TestApply_Additivity(t *testing.T) {
	doc := domain.NewDocument()
	before := doc.Clone()

	_, err := patch.Apply(doc, decodePatch(t, `{"scene.theme": "rainy night", "metadata.title": "Neon"}`))
	require.NoError(t, err)

	scene, _ := doc.Object("scene")
	assert.Equal(t, "rainy night", scene.String("theme"))
	metadata, _ := doc.Object("metadata")
	assert.Equal(t, "Neon", metadata.String("title"))

	// Restore the two leaves and the document must equal the original byte for byte.
	scene.Set("theme", "")
	metadata.Set("title", "")
	assert.Equal(t, jsonOf(t, before), jsonOf(t, doc))
}

func TestApply_Idempotent(t *testing.T) {
	p := decodePatch(t, `{"subjects[1].name": "Ana", "subjects[1].pose": {"hands": "up"}, "story.emotion": ["calm"]}`)

	once := domain.NewDocument()
	_, err := patch.Apply(once, p)
	require.NoError(t, err)

	twice := domain.NewDocument()
	_, err = patch.Apply(twice, p)
	require.NoError(t, err)
	_, err = patch.Apply(twice, p)
	require.NoError(t, err)

	assert.Equal(t, jsonOf(t, once), jsonOf(t, twice))
}

func TestApply_TerminalOverwritesType(t *testing.T) {
	doc := decodeDoc(t, `{"camera": {"lens": "35mm"}}`)

	_, err := patch.Apply(doc, decodePatch(t, `{"camera.lens": {"focal": "50mm", "aperture": "f/1.4"}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"camera":{"lens":{"focal":"50mm","aperture":"f/1.4"}}}`, jsonOf(t, doc))

	_, err = patch.Apply(doc, decodePatch(t, `{"camera": "Leica M6"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"camera":"Leica M6"}`, jsonOf(t, doc))
}

func TestApply_PartialOnFailure(t *testing.T) {
	doc := domain.NewObject()
	p := patch.Patch{
		{Path: "a.b", Value: json.Number("1")},
		{Path: "a.b[0]", Value: json.Number("2")},
		{Path: "c", Value: "never"},
	}

	n, err := patch.Apply(doc, p)

	var applyErr *patch.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, applyErr.Index)
	assert.ErrorIs(t, err, patch.ErrIncompatibleValue)
	assert.Equal(t, `{"a":{"b":1}}`, jsonOf(t, doc))
}

func TestApply_MalformedPathAborts(t *testing.T) {
	doc := domain.NewObject()
	p := decodePatch(t, `{"ok": true, "bad[": 1, "later": 2}`)

	n, err := patch.Apply(doc, p)

	var malformed *patch.MalformedPathError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, n)
	assert.Equal(t, `{"ok":true}`, jsonOf(t, doc))
}

func TestApply_IndexIntoScalarFails(t *testing.T) {
	doc := decodeDoc(t, `{"title": "x"}`)

	_, err := patch.Apply(doc, decodePatch(t, `{"title.sub": 1}`))
	assert.ErrorIs(t, err, patch.ErrIncompatibleValue)

	_, err = patch.Apply(doc, decodePatch(t, `{"title[0].sub": 1}`))
	assert.ErrorIs(t, err, patch.ErrIncompatibleValue)
	assert.Equal(t, `{"title":"x"}`, jsonOf(t, doc))
}

func TestApply_ValuesAreCopied(t *testing.T) {
	doc := domain.NewObject()
	p := decodePatch(t, `{"scene": {"theme": "dawn"}, "scene.theme": "dusk"}`)

	_, err := patch.Apply(doc, p)
	require.NoError(t, err)
	assert.Equal(t, `{"scene":{"theme":"dusk"}}`, jsonOf(t, doc))

	original, _ := p[0].Value.(*domain.Object)
	assert.Equal(t, "dawn", original.String("theme"), "patch values must not be mutated by later entries")
}

func TestApplyAtomic(t *testing.T) {
	doc := decodeDoc(t, `{"a": {}}`)
	p := patch.Patch{
		{Path: "a.b", Value: json.Number("1")},
		{Path: "a.b[0]", Value: json.Number("2")},
	}

	n, err := patch.ApplyAtomic(doc, p)
	assert.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, `{"a":{}}`, jsonOf(t, doc))

	n, err = patch.ApplyAtomic(doc, decodePatch(t, `{"a.b": 1, "a.c[1]": true}`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, `{"a":{"b":1,"c":[{},true]}}`, jsonOf(t, doc))
}

func TestApply_StructuralRoundTrip(t *testing.T) {
	doc := domain.NewDocument()
	_, err := patch.Apply(doc, decodePatch(t, `{
		"subjects[0].name": "Mika",
		"subjects[0].wardrobe": ["coat", "scarf"],
		"environment.coordinates": "35.6,139.7",
		"technical.style_keywords": ["grain", 1, null, false]
	}`))
	require.NoError(t, err)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	back, err := domain.DecodeObject(data)
	require.NoError(t, err)

	assert.True(t, domain.Equal(doc, back))
	assert.Equal(t, string(data), jsonOf(t, back))
}

func TestApply_NullIntermediateFails(t *testing.T) {
	doc := decodeDoc(t, `{"a": null, "l": null}`)

	n, err := patch.Apply(doc, decodePatch(t, `{"a.b": "x", "l[1].c": 1}`))
	var applyErr *patch.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.ErrorIs(t, err, patch.ErrIncompatibleValue)
	assert.Equal(t, 0, n)
	assert.Equal(t, "a.b", applyErr.Path)
	assert.Equal(t, `{"a":null,"l":null}`, jsonOf(t, doc))
}

func TestApply_NullListIsReplaced(t *testing.T) {
	doc := decodeDoc(t, `{"l": null}`)

	_, err := patch.Apply(doc, decodePatch(t, `{"l[1].c": 1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"l":[{},{"c":1}]}`, jsonOf(t, doc))
}

func TestApply_MaxIndex(t *testing.T) {
	doc := domain.NewObject()

	n, err := patch.Apply(doc, decodePatch(t, `{"a": 1, "subjects[100000000].x": 1}`), patch.WithMaxIndex(64))
	assert.ErrorIs(t, err, patch.ErrIndexLimit)
	assert.Equal(t, 1, n)
	assert.Equal(t, `{"a":1}`, jsonOf(t, doc))

	_, err = patch.Apply(doc, decodePatch(t, `{"subjects[64].x": 1}`), patch.WithMaxIndex(64))
	require.NoError(t, err)
	list, _ := doc.Get("subjects")
	assert.Len(t, list, 65)

	_, err = patch.ApplyAtomic(doc, decodePatch(t, `{"b": 1, "deep.l[2].m[65]": 1}`), patch.WithMaxIndex(64))
	assert.ErrorIs(t, err, patch.ErrIndexLimit)
	_, ok := doc.Get("b")
	assert.False(t, ok)
}
