package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"notes-retrieval/internal/tokenizer"
)

const (
	// ParseBytesPerToken bounds how much content is parsed: notes longer than
	// maxTokens*ParseBytesPerToken bytes are cut to that prefix first.
	ParseBytesPerToken = 630
	// CodeBlockBudgetMultiple is how many budgets of tokens a code block may
	// span before it is skipped entirely.
	CodeBlockBudgetMultiple = 6
	// DefaultMaxNodes caps the number of AST nodes visited per note.
	DefaultMaxNodes = 50000
	// DefaultRebalanceFraction is the size, as a fraction of the budget, below
	// which a passage may be merged into its predecessor.
	DefaultRebalanceFraction = 0.7

	maxImageAltRunes   = 40
	maxBreadcrumbRunes = 120
)

// ErrInvalidBudget is returned when Chunk is called with a non-positive token budget.
var ErrInvalidBudget = errors.New("maxTokens must be greater than 0")

// MarkdownChunker splits markdown notes into token-bounded passages using the goldmark AST.
type MarkdownChunker struct {
	parser            goldmark.Markdown
	rebalanceFraction float64
	maxNodes          int
	logger            *slog.Logger
}

// ChunkerOption configures a MarkdownChunker.
type ChunkerOption func(*MarkdownChunker)

// WithRebalanceFraction overrides DefaultRebalanceFraction.
func WithRebalanceFraction(fraction float64) ChunkerOption {
	return func(c *MarkdownChunker) {
		if fraction > 0 {
			c.rebalanceFraction = fraction
		}
	}
}

// WithMaxNodes overrides DefaultMaxNodes.
func WithMaxNodes(n int) ChunkerOption {
	return func(c *MarkdownChunker) {
		if n > 0 {
			c.maxNodes = n
		}
	}
}

// WithChunkerLogger sets the logger used for skipped nodes.
func WithChunkerLogger(logger *slog.Logger) ChunkerOption {
	return func(c *MarkdownChunker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewMarkdownChunker creates a new markdown chunker.
func NewMarkdownChunker(opts ...ChunkerOption) *MarkdownChunker {
	c := &MarkdownChunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		rebalanceFraction: DefaultRebalanceFraction,
		maxNodes:          DefaultMaxNodes,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits content into passages whose body never exceeds maxTokens tokens,
// except where a single token is itself larger than the budget.
func (c *MarkdownChunker) Chunk(content string, meta NoteMeta, maxTokens int) ([]Passage, error) {
	if maxTokens <= 0 {
		return nil, ErrInvalidBudget
	}
	if content == "" {
		return nil, nil
	}

	source := []byte(truncateUTF8(content, maxTokens*ParseBytesPerToken))
	doc := c.parser.Parser().Parse(text.NewReader(source))

	if meta.Title == "" {
		meta.Title = extractTitle(doc, source, meta.NoteID)
	}

	w := &chunkWalker{
		source:    source,
		meta:      meta,
		maxTokens: maxTokens,
		maxNodes:  c.maxNodes,
		logger:    c.logger,
	}
	w.current = w.newDraft(false)

	if Traverse(doc, w) {
		w.finalize()
	} else if w.truncated {
		c.logger.Warn("node limit reached, keeping finalized passages",
			"note_id", meta.NoteID, "max_nodes", c.maxNodes, "passages", len(w.done))
	}

	drafts := rebalance(w.done, maxTokens, c.rebalanceFraction)
	return enrich(drafts, source, meta), nil
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// headingInfo tracks heading level and text for building heading paths.
type headingInfo struct {
	level int
	text  string
}

// span is a byte range of the source; start < 0 means unknown.
type span struct {
	start, stop int
}

var noSpan = span{start: -1, stop: -1}

func (s span) valid() bool {
	return s.start >= 0 && s.stop > s.start
}

func (s span) union(o span) span {
	if !s.valid() {
		return o
	}
	if !o.valid() {
		return s
	}
	if o.start < s.start {
		s.start = o.start
	}
	if o.stop > s.stop {
		s.stop = o.stop
	}
	return s
}

// draft is a passage under construction.
type draft struct {
	text          strings.Builder
	tokens        int
	headings      []headingInfo
	startsSection bool // opened by a heading node
	hasBody       bool // holds more than heading text
	offsets       span
}

func (d *draft) hasContent() bool {
	return strings.TrimSpace(d.text.String()) != ""
}

func (d *draft) headingOnly() bool {
	return d.startsSection && !d.hasBody
}

// merge appends next onto d, keeping the widest source span.
func (d *draft) merge(next *draft) {
	if d.text.Len() > 0 && !strings.HasSuffix(d.text.String(), "\n") {
		d.text.WriteString("\n")
	}
	d.text.WriteString(next.text.String())
	d.tokens += next.tokens
	if d.headingOnly() && next.startsSection {
		d.headings = next.headings
	}
	d.hasBody = d.hasBody || next.hasBody
	d.offsets = d.offsets.union(next.offsets)
}

// chunkWalker is the Visitor that accumulates passages.
type chunkWalker struct {
	source    []byte
	meta      NoteMeta
	maxTokens int
	maxNodes  int
	logger    *slog.Logger

	visited   int
	truncated bool
	headings  []headingInfo
	current   *draft
	done      []*draft
}

func (w *chunkWalker) newDraft(startsSection bool) *draft {
	headings := make([]headingInfo, len(w.headings))
	copy(headings, w.headings)
	return &draft{headings: headings, startsSection: startsSection, offsets: noSpan}
}

func (w *chunkWalker) finalize() {
	if w.current != nil && w.current.hasContent() {
		w.done = append(w.done, w.current)
	}
	w.current = nil
}

// emit appends fragment to the open passage, rolling over to new passages
// whenever the budget is exhausted.
func (w *chunkWalker) emit(fragment string, src span, body bool) {
	tokens := tokenizer.Tokenize(fragment)
	for len(tokens) > 0 {
		remaining := w.maxTokens - w.current.tokens
		if remaining <= 0 {
			w.finalize()
			w.current = w.newDraft(false)
			continue
		}

		take := remaining
		if take > len(tokens) {
			take = len(tokens)
		}
		if take == 0 {
			break
		}
		for _, tok := range tokens[:take] {
			w.current.text.WriteString(tok)
		}
		w.current.tokens += take
		w.current.offsets = w.current.offsets.union(src)
		if body {
			w.current.hasBody = true
		}
		tokens = tokens[take:]
	}
}

// endBlock terminates the current line after a block-level node.
func (w *chunkWalker) endBlock() {
	if w.current == nil || w.current.text.Len() == 0 {
		return
	}
	if strings.HasSuffix(w.current.text.String(), "\n") {
		return
	}
	w.emit("\n", noSpan, false)
}

func (w *chunkWalker) Enter(n ast.Node) VisitAction {
	w.visited++
	if w.visited > w.maxNodes {
		w.truncated = true
		return VisitStop
	}

	switch node := n.(type) {
	case *ast.Document, *ast.Paragraph, *ast.TextBlock, *ast.List, *ast.ListItem, *ast.Blockquote:
		return VisitContinue

	case *ast.Heading:
		w.enterHeading(node)
		return VisitSkipChildren

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		code := linesText(n, w.source)
		if tokenizer.Count(code) > CodeBlockBudgetMultiple*w.maxTokens {
			w.logger.Debug("skipping oversized code block", "note_id", w.meta.NoteID, "bytes", len(code))
			return VisitSkipChildren
		}
		w.endBlock()
		w.emit(code, nodeSpan(n), true)
		return VisitSkipChildren

	case *ast.HTMLBlock:
		w.emit(linesText(n, w.source), nodeSpan(n), true)
		return VisitSkipChildren

	case *ast.Image:
		w.emit(w.imagePlaceholder(node), nodeSpan(n), true)
		return VisitSkipChildren

	case *ast.Link:
		label := extractTextFromNode(node, w.source)
		w.emit(formatLink(label, string(node.Destination)), nodeSpan(n), true)
		return VisitSkipChildren

	case *ast.AutoLink:
		target := linkOrigin(string(node.URL(w.source)))
		if target == "" {
			target = string(node.Label(w.source))
		}
		w.emit(target, nodeSpan(n), true)
		return VisitSkipChildren

	case *ast.Text:
		fragment := string(node.Segment.Value(w.source))
		if node.SoftLineBreak() || node.HardLineBreak() {
			fragment += "\n"
		}
		w.emit(fragment, span{start: node.Segment.Start, stop: node.Segment.Stop}, true)
		return VisitSkipChildren

	case *ast.String:
		w.emit(string(node.Value), noSpan, true)
		return VisitSkipChildren

	case *ast.CodeSpan:
		w.emit(extractTextFromNode(node, w.source), nodeSpan(n), true)
		return VisitSkipChildren

	case *ast.RawHTML:
		var b strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			b.Write(seg.Value(w.source))
		}
		w.emit(b.String(), nodeSpan(n), true)
		return VisitSkipChildren

	case *ast.ThematicBreak:
		return VisitSkipChildren

	case *east.Table, *east.Strikethrough, *ast.Emphasis:
		return VisitContinue

	case *east.TableHeader, *east.TableRow:
		w.endBlock()
		w.emit(extractTableRowText(n, w.source)+"\n", nodeSpan(n), true)
		return VisitSkipChildren

	case *east.TaskCheckBox:
		if node.IsChecked {
			w.emit("[x] ", noSpan, true)
		} else {
			w.emit("[ ] ", noSpan, true)
		}
		return VisitSkipChildren
	}

	if n.HasChildren() {
		return VisitContinue
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		w.emit(linesText(n, w.source), nodeSpan(n), true)
		return VisitSkipChildren
	}
	w.logger.Debug("skipping node without text", "note_id", w.meta.NoteID, "kind", n.Kind().String())
	return VisitSkipChildren
}

func (w *chunkWalker) Leave(n ast.Node) {
	if n.Kind() == ast.KindDocument {
		return
	}
	if n.Type() == ast.TypeBlock {
		w.endBlock()
	}
}

func (w *chunkWalker) enterHeading(node *ast.Heading) {
	for len(w.headings) > 0 && w.headings[len(w.headings)-1].level >= node.Level {
		w.headings = w.headings[:len(w.headings)-1]
	}
	headingText := extractTextFromNode(node, w.source)
	w.headings = append(w.headings, headingInfo{level: node.Level, text: headingText})

	if w.current != nil && w.current.hasContent() {
		w.finalize()
		w.current = w.newDraft(true)
	} else {
		fresh := w.newDraft(true)
		if w.current != nil {
			fresh.offsets = w.current.offsets
		}
		w.current = fresh
	}

	if headingText != "" {
		w.emit(headingText+"\n", nodeSpan(node), false)
	}
}

func (w *chunkWalker) imagePlaceholder(img *ast.Image) string {
	alt := ""
	dest := string(img.Destination)
	for _, known := range w.meta.Images {
		if known.Src == dest && strings.TrimSpace(known.Caption) != "" {
			alt = known.Caption
			break
		}
	}
	if alt == "" {
		alt = extractTextFromNode(img, w.source)
	}
	alt = truncateRunes(strings.Join(strings.Fields(alt), " "), maxImageAltRunes)
	if alt == "" {
		return "[image]"
	}
	return "[image: " + alt + "]"
}

// formatLink renders a link as its label plus the target's origin.
func formatLink(label, destination string) string {
	origin := linkOrigin(destination)
	if origin == "" {
		return "[" + label + "]"
	}
	return "[" + label + "](" + origin + ")"
}

// linkOrigin reduces a URL to scheme://host, or "" when it has no host.
func linkOrigin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// linesText concatenates the raw lines of a block node.
func linesText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return b.String()
}

// nodeSpan returns the byte range of the source covered by n and its descendants.
func nodeSpan(n ast.Node) span {
	result := noSpan
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Type() == ast.TypeBlock {
			lines := node.Lines()
			if lines.Len() > 0 {
				result = result.union(span{start: lines.At(0).Start, stop: lines.At(lines.Len() - 1).Stop})
			}
			return ast.WalkContinue, nil
		}
		if t, ok := node.(*ast.Text); ok {
			result = result.union(span{start: t.Segment.Start, stop: t.Segment.Stop})
		}
		return ast.WalkContinue, nil
	})
	return result
}

// extractTitle returns the first level-1 heading, else the first level-2
// heading, else a title derived from the note identifier.
func extractTitle(doc ast.Node, content []byte, noteID string) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			headingText := extractTextFromNode(heading, content)
			if heading.Level == 1 && firstH1 == "" {
				firstH1 = headingText
				return ast.WalkStop, nil
			}
			if heading.Level == 2 && firstH2 == "" {
				firstH2 = headingText
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return extractTitleFromFilename(noteID)
}

// extractTitleFromFilename extracts title from filename by removing extension and capitalizing words.
func extractTitleFromFilename(filename string) string {
	name := filepath.Base(filename)
	ext := filepath.Ext(name)
	if ext != "" {
		name = name[:len(name)-len(ext)]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// extractTextFromNode extracts text content from a node and its children.
func extractTextFromNode(n ast.Node, content []byte) string {
	var textBuilder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			textBuilder.Write(v.Segment.Value(content))
			if v.SoftLineBreak() {
				textBuilder.WriteByte(' ')
			}
		case *ast.String:
			textBuilder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(textBuilder.String())
}

// extractTableRowText extracts text from a table row, formatting cells with pipe separators.
func extractTableRowText(row ast.Node, content []byte) string {
	cells := make([]string, 0, row.ChildCount())
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		cells = append(cells, extractTextFromNode(cell, content))
	}
	return strings.Join(cells, " | ")
}

// rebalance greedily merges small passages into their predecessor as long as
// the merged passage stays under budget. A passage that opens a new heading
// section is only merged into a predecessor holding nothing but heading text.
func rebalance(drafts []*draft, maxTokens int, fraction float64) []*draft {
	if len(drafts) < 2 {
		return drafts
	}
	threshold := fraction * float64(maxTokens)

	result := make([]*draft, 0, len(drafts))
	acc := drafts[0]
	for _, d := range drafts[1:] {
		fits := acc.tokens+d.tokens < maxTokens
		small := float64(d.tokens) < threshold
		sameSection := !d.startsSection || acc.headingOnly()
		if fits && small && sameSection {
			acc.merge(d)
			continue
		}
		result = append(result, acc)
		acc = d
	}
	return append(result, acc)
}

// enrich turns drafts into passages: raw span recovery, front matter and identifiers.
func enrich(drafts []*draft, source []byte, meta NoteMeta) []Passage {
	passages := make([]Passage, 0, len(drafts))
	for i, d := range drafts {
		body := strings.TrimSpace(d.text.String())

		raw := body
		if d.offsets.valid() && d.offsets.stop <= len(source) {
			raw = string(source[d.offsets.start:d.offsets.stop])
		}

		processed := buildFrontMatter(meta, d.headings, i == 0) + body
		hash := sha256.Sum256([]byte(processed))

		passages = append(passages, Passage{
			ID:               PassageID(meta.NoteID, i),
			NoteID:           meta.NoteID,
			NoteTitle:        meta.Title,
			NoteTags:         meta.Tags,
			HeadingAnchor:    headingAnchor(d.headings),
			RawContent:       raw,
			ProcessedContent: processed,
			ContentHash:      hex.EncodeToString(hash[:]),
			TokenCount:       d.tokens,
			Flags:            meta.Flags,
		})
	}
	return passages
}

// buildFrontMatter renders the metadata header prepended to a passage.
// Title and tags appear on the first passage only.
func buildFrontMatter(meta NoteMeta, headings []headingInfo, first bool) string {
	var lines []string
	if first && meta.Title != "" {
		lines = append(lines, "title: "+meta.Title)
	}
	if first && len(meta.Tags) > 0 {
		lines = append(lines, "tags: "+strings.Join(meta.Tags, ", "))
	}
	if crumb := buildHeadingPath(headings); crumb != "" {
		lines = append(lines, "section: "+truncateRunes(crumb, maxBreadcrumbRunes))
	}
	if len(lines) == 0 {
		return ""
	}
	return fmt.Sprintf("---\n%s\n---\n", strings.Join(lines, "\n"))
}

// buildHeadingPath builds a breadcrumb from the heading stack: "A > B > C".
func buildHeadingPath(stack []headingInfo) string {
	parts := make([]string, 0, len(stack))
	for _, h := range stack {
		if h.text != "" {
			parts = append(parts, h.text)
		}
	}
	return strings.Join(parts, " > ")
}

func headingAnchor(stack []headingInfo) string {
	if len(stack) == 0 {
		return ""
	}
	return strings.Join(strings.Fields(stack[len(stack)-1].text), "_")
}
