package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

func TestDefaultVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()

	assert.Len(t, vocab.Skills, 21)
	assert.Contains(t, vocab.Skills, "machine learning")
	for _, name := range models.SectionNames {
		kw, ok := vocab.Sections[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, kw.Headers, name)
		assert.NotEmpty(t, kw.Next, name)
	}
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	content := `skills:
  - Go
  - " Rust "
  - go
  - ""
sections:
  Skills:
    headers: [Toolbox]
    next: [Experience]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	vocab, err := LoadVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "rust"}, vocab.Skills)
	assert.Equal(t, SectionKeywords{Headers: []string{"toolbox"}, Next: []string{"experience"}}, vocab.Sections[models.SectionSkills])
	// sections missing from the file keep their defaults
	assert.Equal(t, DefaultVocabulary().Sections[models.SectionEducation], vocab.Sections[models.SectionEducation])
}

func TestLoadVocabulary_EmptyFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	vocab, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultVocabulary().Skills, vocab.Skills)
}

func TestLoadVocabulary_Errors(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read vocabulary file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skills: [unterminated"), 0644))
	_, err = LoadVocabulary(path)
	assert.ErrorContains(t, err, "failed to parse vocabulary file")
}

func TestNew_UsesLoadedVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.Sections[models.SectionSkills] = SectionKeywords{Headers: []string{"TOOLBOX"}, Next: []string{"projects"}}

	md := New(vocab).Extract("Toolbox\nPython\nProjects\nx")
	assert.Equal(t, "Python", md.Sections[models.SectionSkills])
}
