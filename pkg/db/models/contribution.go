package models

import (
	"path/filepath"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/enums"
)

// Contribution is one submission from the contribution form.
type Contribution struct {
	ID               uint64                 `gorm:"column:id;primaryKey;autoIncrement"`
	Contributor      string                 `gorm:"column:contributor;type:varchar(40);not null"`
	ContributorEmail string                 `gorm:"column:contributor_email;type:varchar(100);not null"`
	Title            string                 `gorm:"column:title;type:varchar(120);not null"`
	Type             enums.ContributionType `gorm:"column:type;type:varchar(16);not null"`
	VideoLink        *string                `gorm:"column:video_link;type:varchar(255)"`
	Message          *string                `gorm:"column:message;type:text"`
	FileName         *string                `gorm:"column:file_name;type:varchar(255)"`
	IsUploaded       bool                   `gorm:"column:is_uploaded;not null;default:false"`
	RemoteID         *string                `gorm:"column:remote_id;type:varchar(255)"`
	RemoteLink       *string                `gorm:"column:remote_link;type:text"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UploadedAt       *time.Time             `gorm:"column:uploaded_at"`
}

func (Contribution) TableName() string { return "contributions" }

// HasFile reports whether a file accompanied the submission.
func (c Contribution) HasFile() bool {
	return c.FileName != nil && *c.FileName != ""
}

// SyncState derives the Drive sync state from the persisted columns.
func (c Contribution) SyncState() enums.SyncState {
	return enums.DeriveSyncState(c.HasFile(), c.IsUploaded)
}

// FilePath joins the upload directory with the stored file name. It returns
// "" for contributions without a file.
func (c Contribution) FilePath(uploadDir string) string {
	if !c.HasFile() {
		return ""
	}
	return filepath.Join(uploadDir, *c.FileName)
}
