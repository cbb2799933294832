package notifications

import (
	"time"

	"github.com/galatadergisi/galata-backend/pkg/db/models"
	"github.com/galatadergisi/galata-backend/pkg/enums"
)

// ContributionNotice announces a new contribution to the asset recipient.
type ContributionNotice struct {
	ContributionID   uint64                 `json:"contributionId"`
	Contributor      string                 `json:"contributor"`
	ContributorEmail string                 `json:"contributorEmail"`
	Title            string                 `json:"title"`
	Type             enums.ContributionType `json:"type"`
	VideoLink        *string                `json:"videoLink,omitempty"`
	Message          *string                `json:"message,omitempty"`
	FileName         *string                `json:"fileName,omitempty"`
	RemoteID         *string                `json:"remoteId,omitempty"`
	RemoteLink       *string                `json:"remoteLink,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// NewContributionNotice copies the fields the consumer renders.
func NewContributionNotice(c models.Contribution) ContributionNotice {
	return ContributionNotice{
		ContributionID:   c.ID,
		Contributor:      c.Contributor,
		ContributorEmail: c.ContributorEmail,
		Title:            c.Title,
		Type:             c.Type,
		VideoLink:        c.VideoLink,
		Message:          c.Message,
		FileName:         c.FileName,
		RemoteID:         c.RemoteID,
		RemoteLink:       c.RemoteLink,
		CreatedAt:        c.CreatedAt,
	}
}

// ErrorNotice reports a sync failure to the admin recipient.
type ErrorNotice struct {
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Error          string         `json:"error,omitempty"`
	ContributionID uint64         `json:"contributionId,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}
