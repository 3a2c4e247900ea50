package models

import (
	"github.com/mwantia/fdatracker/pkg/approval"
)

// ApprovalRow stores one record payload of a DataVersion
type ApprovalRow struct {
	ID          uint   `gorm:"primaryKey"`
	VersionID   string `gorm:"type:text;not null;index:idx_version_position"`
	Position    int    `gorm:"not null;index:idx_version_position"`
	IdentityKey string `gorm:"type:text;not null;index"`

	Payload approval.DrugApproval `gorm:"serializer:json;type:text;not null"`
}
