package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookgenre/internal/app"
	"bookgenre/internal/models"
	"bookgenre/pkg/genre"
)

func init() {
	color.NoColor = true
}

func TestGetAppFromContextMissing(t *testing.T) {
	_, err := GetAppFromContext(context.Background())
	assert.Error(t, err)
}

func TestRenderPrediction(t *testing.T) {
	enc, err := genre.NewLabelEncoder([]string{"Fantasy", "Science Fiction"})
	require.NoError(t, err)
	pred := genre.Normalize(genre.ClassScores{0.2, 0.8}, enc)

	var buf bytes.Buffer
	renderPrediction(&buf, pred)
	out := buf.String()
	assert.Contains(t, out, "Genre: Science Fiction (confidence 0.800)")
	assert.Contains(t, out, "0.8000")
	assert.Less(t, strings.Index(out, "0.8000"), strings.Index(out, "Fantasy"))
}

func TestRenderFallbackPrediction(t *testing.T) {
	var buf bytes.Buffer
	renderPrediction(&buf, genre.Fallback())
	assert.Equal(t, "Genre: Unknown (confidence 0.000)\n", buf.String())
}

func TestRenderBooksShowsEffectiveCategory(t *testing.T) {
	var buf bytes.Buffer
	renderBooks(&buf, []*models.Book{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert", MLCategory: "Science Fiction", UsrCategory: "unknown"},
		{ID: "b2", Title: "Emma", Author: "Jane Austen", MLCategory: "Romance", UsrCategory: "Classics"},
	})
	out := buf.String()
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "Classics")
}

func TestJobStatusString(t *testing.T) {
	assert.Equal(t, "failed", jobStatusString(models.JobStatusFailed))
	assert.Equal(t, "running", jobStatusString(models.JobStatusRunning))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"}, {"predict"}, {"worker"}, {"doctor"},
		{"books", "list"}, {"books", "import"}, {"books", "reclassify"},
		{"jobs", "list"}, {"artifacts", "pull"},
	} {
		c, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
}

func TestCloseActiveAppReleasesOnce(t *testing.T) {
	activeApp = &app.App{}
	closeActiveApp()
	assert.Nil(t, activeApp)
	assert.NotPanics(t, closeActiveApp)
}
