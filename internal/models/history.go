package models

// HistoryEntry is an immutable snapshot of a course taken before a write
type HistoryEntry struct {
	ID                string         `json:"id"`
	Snapshot          map[string]any `json:"snapshot"`
	EditedBy          string         `json:"editedBy"`
	EditedByEmail     string         `json:"editedByEmail"`
	Timestamp         Timestamp      `json:"timestamp"`
	ChangeDescription string         `json:"changeDescription"`
}

// History field names used for storage queries
const HistoryFieldTimestamp = "timestamp"

// Fields returns the stored fields of the entry. The id is the document key and is not duplicated.
func (h *HistoryEntry) Fields() map[string]any {
	return map[string]any{
		"snapshot":          h.Snapshot,
		"editedBy":          h.EditedBy,
		"editedByEmail":     h.EditedByEmail,
		"timestamp":         h.Timestamp,
		"changeDescription": h.ChangeDescription,
	}
}

// HistoryEntryFromDocument decodes a stored history document
func HistoryEntryFromDocument(doc Document) (*HistoryEntry, error) {
	var entry HistoryEntry
	if err := doc.Decode(&entry); err != nil {
		return nil, err
	}
	entry.ID = doc.ID
	return &entry, nil
}

// Editor identifies who performs a write. Supplied by the identity provider and not validated here.
type Editor struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// CourseContent is a course with its modules and their lessons, all in rank order
type CourseContent struct {
	Course  *Course         `json:"course"`
	Modules []ModuleContent `json:"modules"`
}

// ModuleContent is a module with its lessons in rank order
type ModuleContent struct {
	Module
	Lessons []Lesson `json:"lessons"`
}
