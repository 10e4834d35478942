package model

import "time"

// ChangeType is the kind of write recorded in a ChangeEvent.
type ChangeType string

const (
	ChangeCreated           ChangeType = "created"
	ChangeUpdated           ChangeType = "updated"
	ChangeDeleted           ChangeType = "deleted"
	ChangeCollectionDeleted ChangeType = "collection_deleted"
)

// ResumeToken identifies a position in the change log.
type ResumeToken string

// ChangeEvent describes a single write observed by the explorer.
type ChangeEvent struct {
	Type ChangeType `json:"type"`
	// Path is the document path, or the collection path for collection deletes.
	Path           string                 `json:"path"`
	CollectionPath string                 `json:"collectionPath"`
	Data           map[string]interface{} `json:"data,omitempty"`
	// Count is the number of removed documents for collection deletes.
	Count       int         `json:"count,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	ResumeToken ResumeToken `json:"resumeToken,omitempty"`
}
