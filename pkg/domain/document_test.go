package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObject_PreservesOrder(t *testing.T) {
	raw := `{"zeta":1,"alpha":{"y":true,"b":null},"mid":[{"k":"v"},2.5,"s"]}`

	obj, err := domain.DecodeObject([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, obj.Keys())

	nested, ok := obj.Object("alpha")
	require.True(t, ok)
	assert.Equal(t, []string{"y", "b"}, nested.Keys())

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestDecodeObject_Rejects(t *testing.T) {
	_, err := domain.DecodeObject([]byte(`[1,2]`))
	assert.ErrorIs(t, err, domain.ErrNotObject)

	_, err = domain.DecodeObject([]byte(`{"a":1} trailing`))
	assert.Error(t, err)

	_, err = domain.DecodeObject([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestNewDocument_RoundTrip(t *testing.T) {
	doc := domain.NewDocument()
	assert.Equal(t, []string{
		"metadata", "story", "scene", "subjects", "environment", "camera", "technical", "full_prompt_string",
	}, doc.Keys())

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	back, err := domain.DecodeObject(data)
	require.NoError(t, err)
	assert.True(t, domain.Equal(doc, back))

	again, err := json.Marshal(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestObject_CloneIsDeep(t *testing.T) {
	doc := domain.NewDocument()
	clone := doc.Clone()

	env, _ := clone.Object("environment")
	env.Set("coordinates", "40.7,-74.0")
	clone.Set("subjects", []any{domain.NewObject()})

	origEnv, _ := doc.Object("environment")
	assert.Equal(t, "", origEnv.String("coordinates"))
	subjects, _ := doc.Get("subjects")
	assert.Empty(t, subjects)
	assert.False(t, domain.Equal(doc, clone))
}

func TestEqual(t *testing.T) {
	a, _ := domain.DecodeObject([]byte(`{"a":1,"b":[1,{"c":"d"}]}`))
	b, _ := domain.DecodeObject([]byte(`{"b":[1,{"c":"d"}],"a":1}`))
	c, _ := domain.DecodeObject([]byte(`{"a":1,"b":[1,{"c":"e"}]}`))

	assert.True(t, domain.Equal(a, b), "key order is not significant")
	assert.False(t, domain.Equal(a, c))
	assert.False(t, domain.Equal(a, nil))
	assert.True(t, domain.Equal(nil, nil))
}
