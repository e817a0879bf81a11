package model

import "time"

// Document is the metadata row for an ingested file. The chunk payloads live
// in the retrieval index, keyed back to this row by DocID.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CompanyID  uint      `gorm:"not null;index" json:"company_id"`
	DocID      string    `gorm:"size:64;not null;uniqueIndex" json:"doc_id"`
	Name       string    `gorm:"size:256;not null" json:"name"`
	ChunkCount int       `gorm:"not null" json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}
