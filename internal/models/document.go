package models

import "time"

// Document is the metadata record for one ingested source file. Records are
// created once per successful ingestion and never mutated; the filename
// uniqueness makes re-ingestion of a known source a no-op.
type Document struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Filename  string    `gorm:"size:255;uniqueIndex" json:"filename"`
	VectorID  string    `gorm:"size:36" json:"vectorId"`
	CreatedAt time.Time `json:"createdAt"`
}
