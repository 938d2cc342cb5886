package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/shydevcorp/codejeet/pkg/logger"
)

// ErrNotFound is returned when no chapter carries the requested slug.
var ErrNotFound = errors.New("chapter not found")

// Chapter is one entry of the system-design library index.
type Chapter struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

// TocItem is one heading of a chapter, with its GitHub-style anchor id.
type TocItem struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Depth int    `json:"depth"`
}

// Page is a fully resolved chapter: raw markdown body plus derived metadata.
type Page struct {
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Toc      []TocItem `json:"toc"`
	Video    string    `json:"video,omitempty"`
	Podcast  string    `json:"podcast,omitempty"`
	Chapters []Chapter `json:"chapters"`
}

type frontmatter struct {
	Slug    string `yaml:"slug"`
	Title   string `yaml:"title"`
	Video   string `yaml:"video"`
	Podcast string `yaml:"podcast"`
}

// Reader serves the static markdown chapter library. Each chapter lives in
// its own folder under root as a single .md file with YAML frontmatter;
// folders without a frontmatter slug are skipped.
type Reader struct {
	root string
}

func NewReader(root string) *Reader {
	return &Reader{root: root}
}

const maxOrder = int(^uint(0) >> 1)

var (
	folderOrderRe  = regexp.MustCompile(`^(\d{1,3})`)
	chapterOrderRe = regexp.MustCompile(`(?i)chapter\s*(\d{1,3})`)
	headingRe      = regexp.MustCompile(`^(#{1,4})\s+(.+)$`)
)

// Chapters lists the library ordered by numeric folder prefix, falling back
// to a "chapter N" match in the title, then title. Unreadable folders are
// skipped, not fatal.
func (r *Reader) Chapters() ([]Chapter, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read content root: %w", err)
	}

	chapters := make([]Chapter, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		folder := entry.Name()
		fm, body, err := r.readChapterFile(folder)
		if err != nil {
			logger.Debug("Skipping content folder", zap.String("folder", folder), zap.Error(err))
			continue
		}
		if fm.Slug == "" {
			continue
		}

		title := chapterTitle(fm, body, folder)
		chapters = append(chapters, Chapter{
			Slug:  fm.Slug,
			Title: title,
			Order: chapterOrder(folder, title),
		})
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		if chapters[i].Order != chapters[j].Order {
			return chapters[i].Order < chapters[j].Order
		}
		return chapters[i].Title < chapters[j].Title
	})
	return chapters, nil
}

// Page resolves one chapter by its frontmatter slug.
func (r *Reader) Page(slug string) (*Page, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read content root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		folder := entry.Name()
		fm, body, err := r.readChapterFile(folder)
		if err != nil || fm.Slug != slug {
			continue
		}

		chapters, err := r.Chapters()
		if err != nil {
			chapters = []Chapter{}
		}

		return &Page{
			Slug:     fm.Slug,
			Title:    chapterTitle(fm, body, folder),
			Content:  body,
			Toc:      buildToc(body),
			Video:    YouTubeEmbedURL(fm.Video),
			Podcast:  SpotifyEmbedURL(fm.Podcast),
			Chapters: chapters,
		}, nil
	}

	return nil, ErrNotFound
}

// readChapterFile finds the first .md file in folder and splits frontmatter
// from body.
func (r *Reader) readChapterFile(folder string) (frontmatter, string, error) {
	dir := filepath.Join(r.root, folder)
	files, err := os.ReadDir(dir)
	if err != nil {
		return frontmatter{}, "", err
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return frontmatter{}, "", err
		}
		fm, body := splitFrontmatter(string(raw))
		return fm, body, nil
	}

	return frontmatter{}, "", fmt.Errorf("no markdown file in %q", folder)
}

func splitFrontmatter(raw string) (frontmatter, string) {
	var fm frontmatter

	rest, found := strings.CutPrefix(raw, "---\n")
	if !found {
		rest, found = strings.CutPrefix(raw, "---\r\n")
	}
	if !found {
		return fm, raw
	}

	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return fm, raw
	}

	header := rest[:idx]
	body := rest[idx+len("\n---"):]
	body = strings.TrimPrefix(strings.TrimPrefix(body, "\r"), "\n")

	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return frontmatter{}, raw
	}

	fm.Slug = strings.TrimSpace(fm.Slug)
	fm.Title = strings.TrimSpace(fm.Title)
	fm.Video = strings.TrimSpace(fm.Video)
	fm.Podcast = strings.TrimSpace(fm.Podcast)
	return fm, body
}

func chapterTitle(fm frontmatter, body, folder string) string {
	if fm.Title != "" {
		return fm.Title
	}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if m := headingRe.FindStringSubmatch(line); m != nil && len(m[1]) <= 2 {
			return strings.TrimSpace(m[2])
		}
	}
	return strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(folder))
}

func chapterOrder(folder, title string) int {
	if m := folderOrderRe.FindStringSubmatch(folder); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := chapterOrderRe.FindStringSubmatch(title); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return maxOrder
}

var tocStripRe = regexp.MustCompile("[#`*_]+")

func buildToc(body string) []TocItem {
	toc := []TocItem{}
	slugs := newSlugger()

	for _, line := range strings.Split(body, "\n") {
		m := headingRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(tocStripRe.ReplaceAllString(m[2], ""))
		toc = append(toc, TocItem{
			ID:    slugs.slug(text),
			Text:  text,
			Depth: len(m[1]),
		})
	}
	return toc
}

// slugger produces GitHub-style heading anchors, deduping repeats with an
// -N suffix.
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: make(map[string]int)}
}

var slugDropRe = regexp.MustCompile(`[^a-z0-9 \-]`)

func (s *slugger) slug(text string) string {
	base := strings.ToLower(text)
	base = slugDropRe.ReplaceAllString(base, "")
	base = strings.ReplaceAll(strings.TrimSpace(base), " ", "-")

	count := s.seen[base]
	s.seen[base] = count + 1
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, count)
}

var (
	youtuBeRe      = regexp.MustCompile(`(?i)^https?://youtu\.be/([\w-]{6,})`)
	youtubeWatchRe = regexp.MustCompile(`(?i)[?&]v=([\w-]{6,})`)
	youtubeShortRe = regexp.MustCompile(`(?i)youtube\.com/shorts/([\w-]{6,})`)
	spotifyRe      = regexp.MustCompile(`(?i)open\.spotify\.com/episode/([a-zA-Z0-9]+)`)
)

// YouTubeEmbedURL converts watch, short-link and shorts URLs to the embed
// form. Unrecognized input yields "".
func YouTubeEmbedURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	for _, re := range []*regexp.Regexp{youtuBeRe, youtubeWatchRe, youtubeShortRe} {
		if m := re.FindStringSubmatch(url); m != nil {
			return "https://www.youtube.com/embed/" + m[1]
		}
	}
	return ""
}

// SpotifyEmbedURL converts an episode URL to the embed form.
func SpotifyEmbedURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if m := spotifyRe.FindStringSubmatch(url); m != nil {
		return "https://open.spotify.com/embed/episode/" + m[1] + "?theme=0"
	}
	return ""
}
