package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRecordAndIsSaved(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	set := "abc123"
	id := "oai:deutsche-digitale-bibliothek.de:XYZ"

	assert.False(t, m.IsSaved(set, id))

	payload := `<OAI-PMH><GetRecord/></OAI-PMH>`
	require.NoError(t, m.SaveRecord(strings.NewReader(payload), set, id))

	assert.True(t, m.IsSaved(set, id))
	assert.Equal(t, 1, m.SavedCount())

	data, err := os.ReadFile(m.RecordPath(set, id))
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	// No temp file left behind
	_, err = os.Stat(m.RecordPath(set, id) + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestRecordPathSanitization(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	path := m.RecordPath("abc:sub/set", "oai:example.org/items?id=1")

	rel, err := filepath.Rel(m.BaseDir(), path)
	require.NoError(t, err)

	// Exactly one directory level, with every unsafe rune replaced
	assert.Equal(t, filepath.Join("abc_sub_set", "oai_example.org_items_id_1.xml"), rel)
}

func TestScanExistingFilesOnStartup(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManager(dir, false)
	require.NoError(t, err)
	require.NoError(t, m.SaveRecord(strings.NewReader("<r/>"), "abc123", "oai:1"))
	require.NoError(t, m.SaveRecord(strings.NewReader("<r/>"), "abc123", "oai:2"))

	// A fresh manager over the same directory picks the files up
	m2, err := NewManager(dir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, m2.SavedCount())
	assert.True(t, m2.IsSaved("abc123", "oai:1"))
	assert.False(t, m2.IsSaved("abc123", "oai:3"))
}

func TestIsSavedFindsFileNotInMap(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	// File written behind the manager's back
	setDir := filepath.Join(dir, "abc123")
	require.NoError(t, os.MkdirAll(setDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(setDir, "oai_9.xml"), []byte("<r/>"), 0644))

	assert.True(t, m.IsSaved("abc123", "oai:9"))
}

func TestOverwriteModeNeverSkips(t *testing.T) {
	m, err := NewManager(t.TempDir(), true)
	require.NoError(t, err)

	require.NoError(t, m.SaveRecord(strings.NewReader("first"), "abc123", "oai:1"))
	assert.False(t, m.IsSaved("abc123", "oai:1"))

	require.NoError(t, m.SaveRecord(strings.NewReader("second"), "abc123", "oai:1"))
	data, err := os.ReadFile(m.RecordPath("abc123", "oai:1"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestNewManagerCreatesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deep", "harvest")
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	info, err := os.Stat(m.BaseDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
