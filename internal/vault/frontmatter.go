package vault

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"notes-retrieval/internal/indexer"
)

var fmDelimiter = []byte("---")

// frontMatter is the YAML header a note may start with. Every field is optional.
type frontMatter struct {
	Title        string       `yaml:"title"`
	Tags         []string     `yaml:"tags"`
	Created      *time.Time   `yaml:"created"`
	Updated      *time.Time   `yaml:"updated"`
	Archived     bool         `yaml:"archived"`
	Published    bool         `yaml:"published"`
	SharedByMe   bool         `yaml:"shared_by_me"`
	SharedWithMe bool         `yaml:"shared_with_me"`
	TaskList     *bool        `yaml:"task_list"`
	Images       []imageEntry `yaml:"images"`
}

type imageEntry struct {
	Src     string `yaml:"src"`
	Caption string `yaml:"caption"`
}

// splitFrontMatter separates a leading "---" delimited YAML block from the
// body. Content without a closed block is returned unchanged with a nil header.
func splitFrontMatter(content []byte) (header, body []byte) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	first, rest, ok := cutLine(content)
	if !ok || !isDelimiter(first) {
		return nil, content
	}

	pos := 0
	for {
		line, next, more := cutLine(rest[pos:])
		if isDelimiter(line) {
			return rest[:pos], next
		}
		if !more {
			return nil, content
		}
		pos += len(line) + 1
	}
}

func isDelimiter(line []byte) bool {
	return bytes.Equal(bytes.TrimSpace(line), fmDelimiter)
}

// cutLine splits b after the first newline. ok is false when b has none.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return b[:i], b[i+1:], true
}

func parseFrontMatter(header []byte) (frontMatter, error) {
	var fm frontMatter
	if len(bytes.TrimSpace(header)) == 0 {
		return fm, nil
	}
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return fm, fmt.Errorf("failed to parse front matter: %w", err)
	}
	return fm, nil
}

func (fm frontMatter) images() []indexer.NoteImage {
	if len(fm.Images) == 0 {
		return nil
	}
	out := make([]indexer.NoteImage, 0, len(fm.Images))
	for _, img := range fm.Images {
		if img.Src == "" {
			continue
		}
		out = append(out, indexer.NoteImage{Src: img.Src, Caption: img.Caption})
	}
	return out
}
