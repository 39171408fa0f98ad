package vectorstore

import (
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/storage"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "note_passages"

// Payload keys stored with every point.
const (
	payloadPassageID = "passage_id"
	payloadNoteID    = "note_id"
	payloadTitle     = "note_title"
	payloadTags      = "note_tags"
	payloadAnchor    = "heading_anchor"
)

// pointNamespace seeds the name-based UUIDs used as point ids. Qdrant only
// accepts integers and UUIDs, passage ids are neither.
var pointNamespace = uuid.MustParse("6f1c3f9e-2b4d-5a7e-9c1d-3e8f0a2b4c6d")

// SearchResult is a passage id scored by the remote collection.
type SearchResult struct {
	PassageID string
	Score     float32
}

// CollectionInfo contains information about a Qdrant collection.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
	Status      string
}

// PointID returns the stable point id of a passage.
func PointID(passageID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(passageID)).String()
}

// passagePoint converts a passage into a point. Passages without a vector
// produce nil.
func passagePoint(p indexer.Passage) *qdrant.PointStruct {
	if len(p.Vector) == 0 {
		return nil
	}

	tags := make([]any, 0, len(p.NoteTags))
	for _, t := range p.NoteTags {
		tags = append(tags, t)
	}

	payload := map[string]any{
		payloadPassageID: p.ID,
		payloadNoteID:    p.NoteID,
		payloadTitle:     p.NoteTitle,
		payloadTags:      tags,
		payloadAnchor:    p.HeadingAnchor,
	}
	for key, val := range flagPayload(p.Flags) {
		payload[key] = val
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewID(PointID(p.ID)),
		Vectors: qdrant.NewVectors(p.Vector...),
		Payload: qdrant.NewValueMap(payload),
	}
}

func flagPayload(f indexer.Flags) map[string]any {
	return map[string]any{
		"archived":       f.Archived,
		"published":      f.Published,
		"shared_by_me":   f.SharedByMe,
		"shared_with_me": f.SharedWithMe,
		"task_list_note": f.TaskListNote,
	}
}

// buildFilter renders flag filters as Qdrant must-conditions. It returns nil
// when no filter is set.
func buildFilter(f storage.Filters) *qdrant.Filter {
	fields := []struct {
		key string
		val *bool
	}{
		{"archived", f.Archived},
		{"published", f.Published},
		{"shared_by_me", f.SharedByMe},
		{"shared_with_me", f.SharedWithMe},
		{"task_list_note", f.TaskListNote},
	}

	var must []*qdrant.Condition
	for _, field := range fields {
		if field.val == nil {
			continue
		}
		must = append(must, qdrant.NewMatchBool(field.key, *field.val))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// noteFilter selects every point belonging to noteIDs.
func noteFilter(noteIDs []string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatchKeywords(payloadNoteID, noteIDs...)},
	}
}

// passageIDOf reads the passage id back out of a point payload.
func passageIDOf(payload map[string]*qdrant.Value) string {
	if v, ok := payload[payloadPassageID]; ok && v != nil {
		return v.GetStringValue()
	}
	return ""
}
