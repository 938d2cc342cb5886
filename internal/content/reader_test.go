package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChapter(t *testing.T, root, folder, markdown string) {
	t.Helper()
	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte(markdown), 0644))
}

func TestChaptersOrderedByFolderPrefix(t *testing.T) {
	root := t.TempDir()
	writeChapter(t, root, "02-scaling", "---\nslug: scaling\n---\n# Scaling\n")
	writeChapter(t, root, "01-intro", "---\nslug: intro\ntitle: Introduction\n---\nbody\n")
	writeChapter(t, root, "10-queues", "---\nslug: queues\n---\n# Queues\n")

	r := NewReader(root)
	chapters, err := r.Chapters()
	require.NoError(t, err)

	require.Len(t, chapters, 3)
	assert.Equal(t, "intro", chapters[0].Slug)
	assert.Equal(t, "Introduction", chapters[0].Title)
	assert.Equal(t, "scaling", chapters[1].Slug)
	assert.Equal(t, "queues", chapters[2].Slug)
}

func TestChaptersOrderFromTitleFallback(t *testing.T) {
	root := t.TempDir()
	writeChapter(t, root, "caching", "---\nslug: caching\n---\n# Chapter 7 Caching\n")
	writeChapter(t, root, "sharding", "---\nslug: sharding\n---\n# Chapter 2 Sharding\n")

	r := NewReader(root)
	chapters, err := r.Chapters()
	require.NoError(t, err)

	require.Len(t, chapters, 2)
	assert.Equal(t, "sharding", chapters[0].Slug)
	assert.Equal(t, "caching", chapters[1].Slug)
}

func TestChaptersSkipFoldersWithoutSlug(t *testing.T) {
	root := t.TempDir()
	writeChapter(t, root, "01-good", "---\nslug: good\n---\n# Good\n")
	writeChapter(t, root, "02-no-frontmatter", "# Just markdown\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "03-empty"), 0755))

	r := NewReader(root)
	chapters, err := r.Chapters()
	require.NoError(t, err)

	require.Len(t, chapters, 1)
	assert.Equal(t, "good", chapters[0].Slug)
}

func TestPageResolvesSlugAndToc(t *testing.T) {
	root := t.TempDir()
	markdown := "---\nslug: caching\nvideo: https://www.youtube.com/watch?v=abc123xyz\npodcast: https://open.spotify.com/episode/4rOoJ6Egrf8K2IrywzwOMk\n---\n" +
		"# Caching\n\nIntro text.\n\n## Cache Invalidation\n\n## Cache Invalidation\n\n### Write-Through\n"
	writeChapter(t, root, "07-caching", markdown)

	r := NewReader(root)
	page, err := r.Page("caching")
	require.NoError(t, err)

	assert.Equal(t, "caching", page.Slug)
	assert.Equal(t, "Caching", page.Title)
	assert.Equal(t, "https://www.youtube.com/embed/abc123xyz", page.Video)
	assert.Equal(t, "https://open.spotify.com/embed/episode/4rOoJ6Egrf8K2IrywzwOMk?theme=0", page.Podcast)

	require.Len(t, page.Toc, 4)
	assert.Equal(t, TocItem{ID: "caching", Text: "Caching", Depth: 1}, page.Toc[0])
	assert.Equal(t, "cache-invalidation", page.Toc[1].ID)
	// Duplicate headings get a numbered anchor.
	assert.Equal(t, "cache-invalidation-1", page.Toc[2].ID)
	assert.Equal(t, TocItem{ID: "write-through", Text: "Write-Through", Depth: 3}, page.Toc[3])
}

func TestPageNotFound(t *testing.T) {
	root := t.TempDir()
	writeChapter(t, root, "01-intro", "---\nslug: intro\n---\n# Intro\n")

	r := NewReader(root)
	_, err := r.Page("missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTitleFallsBackToFolderName(t *testing.T) {
	root := t.TempDir()
	writeChapter(t, root, "load_balancing-basics", "---\nslug: lb\n---\nno headings here\n")

	r := NewReader(root)
	page, err := r.Page("lb")
	require.NoError(t, err)

	assert.Equal(t, "load balancing basics", page.Title)
}

func TestYouTubeEmbedURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/embed/abc123xyz",
		YouTubeEmbedURL("https://youtu.be/abc123xyz"))
	assert.Equal(t, "https://www.youtube.com/embed/abc123xyz",
		YouTubeEmbedURL("https://www.youtube.com/watch?v=abc123xyz"))
	assert.Equal(t, "https://www.youtube.com/embed/abc123xyz",
		YouTubeEmbedURL("https://www.youtube.com/shorts/abc123xyz"))
	assert.Empty(t, YouTubeEmbedURL("https://example.com/video"))
	assert.Empty(t, YouTubeEmbedURL(""))
}
