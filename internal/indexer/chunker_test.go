package indexer

import (
	"errors"
	"strings"
	"testing"

	"notes-retrieval/internal/tokenizer"
)

func TestNewMarkdownChunker(t *testing.T) {
	chunker := NewMarkdownChunker()
	if chunker == nil {
		t.Fatal("NewMarkdownChunker() returned nil")
	}
	if chunker.rebalanceFraction != DefaultRebalanceFraction {
		t.Errorf("rebalanceFraction = %v, want %v", chunker.rebalanceFraction, DefaultRebalanceFraction)
	}
	if chunker.maxNodes != DefaultMaxNodes {
		t.Errorf("maxNodes = %v, want %v", chunker.maxNodes, DefaultMaxNodes)
	}
}

func TestMarkdownChunker_Chunk(t *testing.T) {
	chunker := NewMarkdownChunker()
	meta := NoteMeta{NoteID: "note-1", Title: "Test Note"}

	tests := []struct {
		name      string
		content   string
		maxTokens int
		check     func([]Passage) bool
	}{
		{
			name:      "empty content",
			content:   "",
			maxTokens: 100,
			check: func(passages []Passage) bool {
				return len(passages) == 0
			},
		},
		{
			name: "two headings and a subheading",
			content: "# Heading One\n\nFirst short paragraph.\n\n" +
				"## Subheading\n\nSecond short paragraph.\n\n" +
				"# Heading Two\n\nThird short paragraph.\n",
			maxTokens: 100,
			check: func(passages []Passage) bool {
				if len(passages) != 3 {
					return false
				}
				return passages[0].HeadingAnchor == "Heading_One" &&
					passages[1].HeadingAnchor == "Subheading" &&
					passages[2].HeadingAnchor == "Heading_Two"
			},
		},
		{
			name:      "repeated word overflows into four passages",
			content:   strings.Repeat("Apple ", 200),
			maxTokens: 100,
			check: func(passages []Passage) bool {
				return len(passages) == 4
			},
		},
		{
			name: "oversized code block is skipped",
			content: "Short intro paragraph.\n\n```go\n" +
				strings.Repeat("x := 1\n", 100) + "```\n",
			maxTokens: 100,
			check: func(passages []Passage) bool {
				return len(passages) == 1 &&
					strings.Contains(passages[0].ProcessedContent, "Short intro paragraph.") &&
					!strings.Contains(passages[0].ProcessedContent, "x := 1")
			},
		},
		{
			name:      "unbroken long word is split into sub-tokens",
			content:   strings.Repeat("abcdefgh", 200),
			maxTokens: 100,
			check: func(passages []Passage) bool {
				return len(passages) == 2
			},
		},
		{
			name:      "link is reduced to its origin",
			content:   "See [title](https://example.com/long/path?x=1) for details.",
			maxTokens: 100,
			check: func(passages []Passage) bool {
				return len(passages) == 1 &&
					strings.Contains(passages[0].ProcessedContent, "[title](https://example.com)") &&
					!strings.Contains(passages[0].ProcessedContent, "long/path")
			},
		},
		{
			name:      "relative link keeps only its label",
			content:   "Read [the other note](./other.md) next.",
			maxTokens: 100,
			check: func(passages []Passage) bool {
				return len(passages) == 1 &&
					strings.Contains(passages[0].ProcessedContent, "Read [the other note] next.")
			},
		},
		{
			name:      "small code block is kept",
			content:   "Intro.\n\n```\nfmt.Println(1)\n```\n",
			maxTokens: 100,
			check: func(passages []Passage) bool {
				return len(passages) == 1 && strings.Contains(passages[0].ProcessedContent, "fmt.Println(1)")
			},
		},
		{
			name:      "table rows are pipe separated",
			content:   "| Name | Role |\n| --- | --- |\n| Ada | Engineer |\n",
			maxTokens: 100,
			check: func(passages []Passage) bool {
				return len(passages) == 1 && strings.Contains(passages[0].ProcessedContent, "Ada | Engineer")
			},
		},
		{
			name:      "heading-only passage merges into the next section",
			content:   "# Top\n## Sub\n\nbody text here\n",
			maxTokens: 100,
			check: func(passages []Passage) bool {
				return len(passages) == 1 &&
					passages[0].HeadingAnchor == "Sub" &&
					strings.Contains(passages[0].ProcessedContent, "section: Top > Sub")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passages, err := chunker.Chunk(tt.content, meta, tt.maxTokens)
			if err != nil {
				t.Fatalf("Chunk() unexpected error: %v", err)
			}
			if !tt.check(passages) {
				t.Errorf("Chunk() check failed, got %d passages", len(passages))
				for i, p := range passages {
					t.Logf("passage %d (%d tokens): %q", i, p.TokenCount, p.ProcessedContent)
				}
			}
		})
	}
}

func TestMarkdownChunker_Chunk_InvalidBudget(t *testing.T) {
	_, err := NewMarkdownChunker().Chunk("text", NoteMeta{NoteID: "n"}, 0)
	if !errors.Is(err, ErrInvalidBudget) {
		t.Errorf("Chunk() error = %v, want ErrInvalidBudget", err)
	}
}

func TestMarkdownChunker_Chunk_RebalanceFraction(t *testing.T) {
	content := "# Top\n## Sub\n\n" + strings.Repeat("word ", 40)
	meta := NoteMeta{NoteID: "n", Title: "T"}

	tests := []struct {
		name     string
		opts     []ChunkerOption
		wantLen  int
		wantHead string
	}{
		{
			name:     "default fraction keeps the large section apart",
			wantLen:  2,
			wantHead: "Top",
		},
		{
			name:     "higher fraction merges the heading into the section",
			opts:     []ChunkerOption{WithRebalanceFraction(0.9)},
			wantLen:  1,
			wantHead: "Sub",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passages, err := NewMarkdownChunker(tt.opts...).Chunk(content, meta, 100)
			if err != nil {
				t.Fatalf("Chunk() unexpected error: %v", err)
			}
			if len(passages) != tt.wantLen {
				t.Fatalf("Chunk() returned %d passages, want %d", len(passages), tt.wantLen)
			}
			if passages[0].HeadingAnchor != tt.wantHead {
				t.Errorf("HeadingAnchor = %q, want %q", passages[0].HeadingAnchor, tt.wantHead)
			}
			if tt.wantLen == 2 {
				if passages[0].TokenCount != 2 {
					t.Errorf("heading passage TokenCount = %d, want 2", passages[0].TokenCount)
				}
				if got := passages[1].TokenCount; got < 70 || got >= 90 {
					t.Errorf("section passage TokenCount = %d, want between 70 and 90", got)
				}
			}
		})
	}
}

func TestMarkdownChunker_Chunk_TinySectionsStaySeparate(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("## H" + string(rune('a'+i)) + "\n\nshort body\n\n")
	}

	passages, err := NewMarkdownChunker().Chunk(b.String(), NoteMeta{NoteID: "n", Title: "T"}, 100)
	if err != nil {
		t.Fatalf("Chunk() unexpected error: %v", err)
	}
	if len(passages) != 10 {
		t.Fatalf("Chunk() returned %d passages, want 10", len(passages))
	}
	for i, p := range passages {
		want := "H" + string(rune('a'+i))
		if p.HeadingAnchor != want {
			t.Errorf("passage %d HeadingAnchor = %q, want %q", i, p.HeadingAnchor, want)
		}
	}
}

// bodyOf strips the front matter block from processed content.
func bodyOf(processed string) string {
	if strings.HasPrefix(processed, "---\n") {
		if end := strings.Index(processed[4:], "\n---\n"); end >= 0 {
			return processed[4+end+5:]
		}
	}
	return processed
}

func TestMarkdownChunker_Chunk_BudgetInvariant(t *testing.T) {
	chunker := NewMarkdownChunker()
	contents := []string{
		"# Intro\n\nShort.\n\n## Details\n\n" + strings.Repeat("lorem ipsum dolor sit amet, ", 80),
		strings.Repeat("- item with [link](https://a.example/x) and `code`\n", 60),
		strings.Repeat("supercalifragilisticexpialidocious ", 50),
		"| a | b |\n| - | - |\n" + strings.Repeat("| cell one | cell two |\n", 40),
		"> quoted " + strings.Repeat("text ", 300),
	}
	budgets := []int{1, 5, 37, 100, 512}

	for _, content := range contents {
		for _, budget := range budgets {
			passages, err := chunker.Chunk(content, NoteMeta{NoteID: "n", Title: "T", Tags: []string{"x"}}, budget)
			if err != nil {
				t.Fatalf("Chunk() unexpected error: %v", err)
			}
			if len(passages) == 0 {
				t.Fatalf("Chunk() returned no passages for budget %d", budget)
			}
			for i, p := range passages {
				if p.TokenCount > budget {
					t.Errorf("budget %d: passage %d TokenCount = %d", budget, i, p.TokenCount)
				}
				if got := tokenizer.Count(strings.TrimSpace(bodyOf(p.ProcessedContent))); got > budget {
					t.Errorf("budget %d: passage %d body has %d tokens", budget, i, got)
				}
				if p.ID == "" || p.NoteID == "" || p.ProcessedContent == "" {
					t.Errorf("passage %d missing required fields: %+v", i, p)
				}
			}
		}
	}
}

func TestMarkdownChunker_Chunk_FrontMatter(t *testing.T) {
	chunker := NewMarkdownChunker()
	meta := NoteMeta{NoteID: "n1", Title: "Groceries", Tags: []string{"home", "food"}}
	content := "# Fruit\n\n" + strings.Repeat("Apple ", 120) + "\n\n# Vegetables\n\nCarrots.\n"

	passages, err := chunker.Chunk(content, meta, 100)
	if err != nil {
		t.Fatalf("Chunk() unexpected error: %v", err)
	}
	if len(passages) < 2 {
		t.Fatalf("Chunk() returned %d passages, want at least 2", len(passages))
	}

	first := passages[0].ProcessedContent
	if !strings.HasPrefix(first, "---\ntitle: Groceries\ntags: home, food\nsection: Fruit\n---\n") {
		t.Errorf("first passage front matter = %q", first)
	}
	for i, p := range passages[1:] {
		if strings.Contains(p.ProcessedContent, "title: Groceries") {
			t.Errorf("passage %d repeats the title", i+1)
		}
		if !strings.Contains(p.ProcessedContent, "section: ") {
			t.Errorf("passage %d is missing the section breadcrumb", i+1)
		}
	}
}

func TestMarkdownChunker_Chunk_RawContent(t *testing.T) {
	chunker := NewMarkdownChunker()
	content := "# Title\n\nHello *world*.\n\nSecond paragraph.\n"

	passages, err := chunker.Chunk(content, NoteMeta{NoteID: "n"}, 100)
	if err != nil {
		t.Fatalf("Chunk() unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("Chunk() returned %d passages, want 1", len(passages))
	}
	raw := passages[0].RawContent
	if !strings.Contains(raw, "Hello *world*.") || !strings.Contains(raw, "Second paragraph.") {
		t.Errorf("RawContent = %q, want original markdown span", raw)
	}
}

func TestMarkdownChunker_Chunk_Images(t *testing.T) {
	chunker := NewMarkdownChunker()
	meta := NoteMeta{
		NoteID: "n",
		Images: []NoteImage{{Src: "https://img.example/cat.png", Caption: "a sleepy orange cat on a very long windowsill in the sun"}},
	}
	content := "Look: ![alt text](https://img.example/cat.png) and ![fallback alt](https://img.example/dog.png)"

	passages, err := chunker.Chunk(content, meta, 100)
	if err != nil {
		t.Fatalf("Chunk() unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("Chunk() returned %d passages, want 1", len(passages))
	}
	got := passages[0].ProcessedContent
	if !strings.Contains(got, "[image: a sleepy orange cat on a very long windo]") {
		t.Errorf("known image placeholder missing or not truncated: %q", got)
	}
	if !strings.Contains(got, "[image: fallback alt]") {
		t.Errorf("fallback alt placeholder missing: %q", got)
	}
}

func TestMarkdownChunker_Chunk_NodeLimit(t *testing.T) {
	chunker := NewMarkdownChunker(WithMaxNodes(12))
	content := strings.Repeat("# H\n\nparagraph text\n\n", 50)

	passages, err := chunker.Chunk(content, NoteMeta{NoteID: "n"}, 100)
	if err != nil {
		t.Fatalf("Chunk() unexpected error: %v", err)
	}
	if len(passages) == 0 || len(passages) >= 50 {
		t.Errorf("Chunk() returned %d passages, want a truncated non-empty result", len(passages))
	}
}

func TestMarkdownChunker_Chunk_Deterministic(t *testing.T) {
	chunker := NewMarkdownChunker()
	content := "# A\n\nalpha beta\n\n## B\n\ngamma delta\n"
	meta := NoteMeta{NoteID: "n"}

	first, _ := chunker.Chunk(content, meta, 100)
	second, _ := chunker.Chunk(content, meta, 100)
	if len(first) != len(second) {
		t.Fatalf("passage counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].ContentHash != second[i].ContentHash {
			t.Errorf("passage %d differs between runs", i)
		}
	}
	if first[0].ID != "n#0" {
		t.Errorf("first passage ID = %q, want n#0", first[0].ID)
	}
}

func TestMarkdownChunker_Chunk_DerivesTitle(t *testing.T) {
	chunker := NewMarkdownChunker()
	passages, err := chunker.Chunk("## Only Second Level\n\ntext", NoteMeta{NoteID: "folder/my-note.md"}, 100)
	if err != nil {
		t.Fatalf("Chunk() unexpected error: %v", err)
	}
	if passages[0].NoteTitle != "Only Second Level" {
		t.Errorf("NoteTitle = %q, want %q", passages[0].NoteTitle, "Only Second Level")
	}
}

func TestTruncateUTF8(t *testing.T) {
	s := "héllo"
	got := truncateUTF8(s, 2)
	if got != "h" {
		t.Errorf("truncateUTF8() = %q, want %q", got, "h")
	}
	if truncateUTF8(s, 100) != s {
		t.Errorf("truncateUTF8() changed a short string")
	}
}

func TestLinkOrigin(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/long/path?x=1", "https://example.com"},
		{"http://host:8080/a", "http://host:8080"},
		{"./relative.md", ""},
		{"//cdn.example.com/x.js", "https://cdn.example.com"},
	}
	for _, tt := range tests {
		if got := linkOrigin(tt.in); got != tt.want {
			t.Errorf("linkOrigin(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractTitleFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"meeting-notes.md", "Meeting Notes"},
		{"projects/road_map.md", "Road Map"},
		{"README", "README"},
	}
	for _, tt := range tests {
		if got := extractTitleFromFilename(tt.filename); got != tt.want {
			t.Errorf("extractTitleFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
