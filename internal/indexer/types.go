package indexer

import "fmt"

// Flags is boolean note metadata captured at chunk time. Each flag becomes an
// equality filter at query time.
type Flags struct {
	Archived     bool `json:"archived"`
	Published    bool `json:"published"`
	SharedByMe   bool `json:"shared_by_me"`
	SharedWithMe bool `json:"shared_with_me"`
	TaskListNote bool `json:"task_list_note"`
}

// NoteImage is an image the host knows about for a note. Caption is used as
// the placeholder text when the image appears in the note body.
type NoteImage struct {
	Src     string
	Caption string
}

// NoteMeta is the per-note metadata denormalized into every passage.
type NoteMeta struct {
	NoteID string
	Title  string
	Tags   []string
	Images []NoteImage
	Flags  Flags
}

// Passage is a token-bounded slice of a note: the unit of embedding and retrieval.
type Passage struct {
	ID               string
	NoteID           string
	NoteTitle        string
	NoteTags         []string
	HeadingAnchor    string // nearest enclosing heading, whitespace replaced by "_"
	RawContent       string // source substring covered by the passage
	ProcessedContent string // front matter + normalized text sent to the embedder
	ContentHash      string
	TokenCount       int // body tokens, front matter excluded
	Vector           []float32
	Flags            Flags
}

// PassageID builds the stable identifier of the index-th passage of a note.
func PassageID(noteID string, index int) string {
	return fmt.Sprintf("%s#%d", noteID, index)
}
