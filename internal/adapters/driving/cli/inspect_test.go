package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

func TestInspectCmd_Text(t *testing.T) {
	setupTestServices(t, nil)
	path := writeDoc(t, t.TempDir(), "pages.txt", textVolcano+"\f"+textPenguin)

	stdout, _, err := execute(t, "inspect", path)

	require.NoError(t, err)
	assert.Contains(t, stdout, "pages.txt")
	assert.Contains(t, stdout, "Format:   txt")
	assert.Contains(t, stdout, "Language: english")
	assert.Contains(t, stdout, "Pages:    2")
	assert.Contains(t, stdout, "p.1 l.1")
	assert.Contains(t, stdout, "p.2 l.1")
}

func TestInspectCmd_JSON(t *testing.T) {
	setupTestServices(t, nil)
	path := writeDoc(t, t.TempDir(), "pages.txt", textVolcano+"\f"+textPenguin)

	stdout, _, err := execute(t, "inspect", path, "--json")
	require.NoError(t, err)

	var out inspectOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "pages.txt", out.Document.Filename)
	assert.Equal(t, 2, out.Document.PageCount)
	require.NotEmpty(t, out.Chunks)
	assert.Equal(t, len(out.Chunks), out.Document.Chunks)

	first, last := out.Chunks[0], out.Chunks[len(out.Chunks)-1]
	assert.Equal(t, domain.Span{Page: 1, LineStart: 1, LineEnd: 1}, first.Spans[0])
	assert.Equal(t, 2, last.Spans[len(last.Spans)-1].Page)
	for i, c := range out.Chunks {
		assert.Equal(t, i, c.Position)
		assert.Less(t, c.NormalisedStart, c.NormalisedEnd)
	}
}

func TestInspectCmd_Errors(t *testing.T) {
	setupTestServices(t, nil)
	dir := t.TempDir()

	_, _, err := execute(t, "inspect")
	assert.Error(t, err)

	_, _, err = execute(t, "inspect", dir+"/missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")

	fake := writeDoc(t, dir, "fake.pdf", "%PDF-1.4 truncated")
	_, _, err = execute(t, "inspect", fake)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
