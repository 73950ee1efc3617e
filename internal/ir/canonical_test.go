package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"b": 1, "a": true, "c": "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":true,"b":1,"c":"x"}`, string(out))
}

func TestMarshalCanonical_UTF16Order(t *testing.T) {
	// U+1F600 encodes as the surrogate pair D83D DE00, which sorts before
	// U+E000 in UTF-16 even though it sorts after it in UTF-8.
	out, err := MarshalCanonical(map[string]any{"\uE000": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uE000\":1}", string(out))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	out, err := MarshalCanonical("<a & b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(out))
}

func TestMarshalCanonical_Escapes(t *testing.T) {
	out, err := MarshalCanonical("q\"b\\n\nt\tc\x01")
	require.NoError(t, err)
	assert.Equal(t, `"q\"b\\n\nt\tc\u0001"`, string(out))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed := "e\u0301" // e + combining acute
	out, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(out))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.ErrorContains(t, err, "null")

	_, err = MarshalCanonical(1.5)
	assert.ErrorContains(t, err, "floats")

	_, err = MarshalCanonical(map[string]any{"x": []any{1, struct{}{}}})
	assert.ErrorContains(t, err, `value for key "x": array[1]`)
}

func TestDocument_ToCanonicalMap(t *testing.T) {
	doc := &Document{
		Title: "T",
		Date:  "2024-01-02",
		Pages: []Page{{Number: 1, Lines: []string{"a", ""}}},
	}

	out, err := MarshalCanonical(doc.ToCanonicalMap())
	require.NoError(t, err)
	assert.Equal(t,
		`{"date":"2024-01-02","format":"folio/1","pages":[{"lines":["a",""],"number":1}],"title":"T"}`,
		string(out))
	assert.Equal(t, 1, doc.PageCount())
	assert.Equal(t, 2, doc.LineCount())

	var nilDoc *Document
	assert.Equal(t, 0, nilDoc.PageCount())
}
