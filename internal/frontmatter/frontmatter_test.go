package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, nl, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
	require.Equal(t, "\n", nl)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, _, err := Split([]byte("---\nkey: value\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_CRLF(t *testing.T) {
	fm, body, had, nl, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "\r\n", nl)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyBlockAndMissingClose(t *testing.T) {
	fm, body, had, _, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)

	_, _, had, _, err = Split([]byte("---\nkey: value\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestParseAndBytes_RoundTrip(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: Overview\nweight: 3\n---\n# Overview\n"))
	require.NoError(t, err)
	assert.Equal(t, "Overview", doc.Fields["title"])
	assert.Equal(t, 3, doc.Fields["weight"])

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Overview\nweight: 3\n---\n# Overview\n", string(out))
}

func TestBytes_NoFields(t *testing.T) {
	doc := &Document{Fields: map[string]any{}, Body: []byte("# Plain\n")}
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "# Plain\n", string(out))
}

func TestSerializeYAML_SortsKeys(t *testing.T) {
	out, err := SerializeYAML(map[string]any{
		"zeta":  "last",
		"alpha": []string{"a", "b"},
		"mid":   map[string]any{"on_ci": true, "ratio": 1.5},
	}, "\n")
	require.NoError(t, err)
	assert.Equal(t, "alpha:\n  - a\n  - b\nmid:\n  on_ci: true\n  ratio: 1.5\nzeta: last\n", string(out))

	out, err = SerializeYAML(map[string]any{}, "\n")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestComputeFingerprint_IgnoresVolatileFields(t *testing.T) {
	body := []byte("hello\n")
	a, err := ComputeFingerprint(map[string]any{"title": "T"}, body)
	require.NoError(t, err)
	b, err := ComputeFingerprint(map[string]any{"title": "T", FieldFingerprint: "x", FieldLastmod: "2020-01-01"}, body)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)

	c, err := ComputeFingerprint(map[string]any{"title": "Other"}, body)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = ComputeFingerprint(nil, body)
	require.Error(t, err)
}

func TestUpsert_PreservesLastmodWhenUnchanged(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	first := &Document{Fields: map[string]any{"title": "Report"}, Body: []byte("# Report\n")}
	fp, err := first.Upsert(nil, now)
	require.NoError(t, err)
	assert.Equal(t, fp, first.Fingerprint())
	assert.Equal(t, "2026-10-14", first.Fields[FieldLastmod])

	raw, err := first.Bytes()
	require.NoError(t, err)
	previous, err := Parse(raw)
	require.NoError(t, err)

	later := now.AddDate(0, 0, 3)
	same := &Document{Fields: map[string]any{"title": "Report"}, Body: []byte("# Report\n")}
	_, err = same.Upsert(previous, later)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", same.Fields[FieldLastmod])

	changed := &Document{Fields: map[string]any{"title": "Report"}, Body: []byte("# Report v2\n")}
	_, err = changed.Upsert(previous, later)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", changed.Fields[FieldLastmod])
}

func TestVerify(t *testing.T) {
	doc := &Document{Fields: map[string]any{"title": "Report"}, Body: []byte("# Report\n")}
	ok, err := doc.Verify()
	require.NoError(t, err)
	assert.False(t, ok, "no fingerprint stored yet")

	_, err = doc.Upsert(nil, time.Now())
	require.NoError(t, err)
	raw, err := doc.Bytes()
	require.NoError(t, err)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	ok, err = parsed.Verify()
	require.NoError(t, err)
	assert.True(t, ok)

	parsed.Body = append(parsed.Body, []byte("hand edit\n")...)
	ok, err = parsed.Verify()
	require.NoError(t, err)
	assert.False(t, ok)
}
