package state

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepOutputsRoundTripThroughDisk(t *testing.T) {
	root := t.TempDir()

	s := NewState()
	s.SetStepOutput("scan-ignore-files", "ignoreFiles:.", `["dist/"]`)
	s.SetStepOutput("scan-file-jsdoc", "isJsdoccommentExists", "true")
	s.SetFile(".eslintrc.json", FileState{Hash: "abc", Syntax: "json", Output: "eslint.config.mjs"})
	require.NoError(t, s.Save(root))

	loaded, err := Load(root)
	require.NoError(t, err)

	value, ok := loaded.StepOutput("scan-ignore-files", "ignoreFiles:.")
	assert.True(t, ok)
	assert.Equal(t, `["dist/"]`, value)
	assert.False(t, loaded.HasChanged(".eslintrc.json", "abc"))
	assert.True(t, loaded.HasChanged(".eslintrc.json", "def"))
	assert.True(t, loaded.HasChanged("other/.eslintrc", "abc"))

	loaded.ResetStep("scan-ignore-files")
	_, ok = loaded.StepOutput("scan-ignore-files", "ignoreFiles:.")
	assert.False(t, ok)
}

func TestLoadMissingState(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, CurrentStateVersion, s.Version)
	assert.Empty(t, s.Files)
}

func TestLoadCorruptState(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, Dir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, Dir, StateFile), []byte("{"), 0o644))

	_, err := Load(root)
	assert.Error(t, err)
}

func TestMigrateStateInitializesMaps(t *testing.T) {
	s := &State{Steps: map[string]StepState{"scan-file-jsdoc": {}}}

	migrateState(s)

	assert.Equal(t, CurrentStateVersion, s.Version)
	assert.NotNil(t, s.Files)
	assert.NotNil(t, s.Steps["scan-file-jsdoc"].Outputs)
}

func TestDeletedFiles(t *testing.T) {
	s := NewState()
	s.SetFile("a/.eslintrc", FileState{Hash: "1"})
	s.SetFile("b/.eslintrc", FileState{Hash: "2"})
	s.SetFile("c/.eslintrc", FileState{Hash: "3"})

	deleted := s.DeletedFiles(map[string]bool{"b/.eslintrc": true})
	assert.Equal(t, []string{"a/.eslintrc", "c/.eslintrc"}, deleted)
}

func TestConcurrentStepOutputs(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SetStepOutput("stage", "key", "value")
			_, _ = s.StepOutput("stage", "key")
		}()
	}
	wg.Wait()

	value, ok := s.StepOutput("stage", "key")
	assert.True(t, ok)
	assert.Equal(t, "value", value)
}
