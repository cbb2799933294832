package notifications

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/db/models"
	"github.com/galatadergisi/galata-backend/pkg/enums"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const envelopeVersion = 1

// Message is one queued notification before it is persisted.
type Message struct {
	Kind      enums.NotificationKind
	Recipient string
	Payload   any
}

// Envelope is the stable payload structure stored in notifications.payload.
type Envelope struct {
	Version        int             `json:"version"`
	NotificationID string          `json:"notificationId"`
	OccurredAt     time.Time       `json:"occurredAt"`
	Data           json.RawMessage `json:"data"`
}

// Queue appends messages to the notification table.
type Queue interface {
	WithTx(tx *gorm.DB) Queue
	Enqueue(ctx context.Context, msg Message) error
}

// SettingsReader supplies the notification recipients.
type SettingsReader interface {
	Get(ctx context.Context) (models.Settings, error)
}

type queue struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewQueue builds a queue over the repository.
func NewQueue(repo Repository, logg *logger.Logger) (Queue, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification repository required")
	}
	return &queue{repo: repo, logg: logg, now: time.Now}, nil
}

func (q *queue) WithTx(tx *gorm.DB) Queue {
	return &queue{repo: q.repo.WithTx(tx), logg: q.logg, now: q.now}
}

func (q *queue) Enqueue(ctx context.Context, msg Message) error {
	if !msg.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInternal, "invalid notification kind")
	}
	if strings.TrimSpace(msg.Recipient) == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "notification recipient is not configured")
	}
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification payload")
	}

	id := uuid.New()
	envelope, err := json.Marshal(Envelope{
		Version:        envelopeVersion,
		NotificationID: id.String(),
		OccurredAt:     q.now().UTC(),
		Data:           data,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification envelope")
	}

	row := &models.Notification{
		ID:        id,
		Kind:      msg.Kind,
		Recipient: msg.Recipient,
		Payload:   envelope,
	}
	if err := q.repo.Insert(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "enqueue notification")
	}

	if q.logg != nil {
		logCtx := q.logg.WithFields(ctx, map[string]any{
			"notification_id": id.String(),
			"kind":            msg.Kind,
		})
		q.logg.Info(logCtx, "notification queued")
	}
	return nil
}

// Composer addresses messages using the recipients stored in settings.
type Composer struct {
	settings SettingsReader
}

func NewComposer(settings SettingsReader) (*Composer, error) {
	if settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings reader required")
	}
	return &Composer{settings: settings}, nil
}

// Contribution addresses a new-contribution notice to the asset recipient.
func (c *Composer) Contribution(ctx context.Context, contribution models.Contribution) (Message, error) {
	s, err := c.settings.Get(ctx)
	if err != nil {
		return Message{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load notification recipients")
	}
	return ContributionMessage(s, contribution), nil
}

// ContributionMessage builds the contribution notice from settings that were
// already loaded, for callers writing inside a transaction.
func ContributionMessage(s models.Settings, contribution models.Contribution) Message {
	return Message{
		Kind:      enums.NotificationKindContribution,
		Recipient: s.AssetRecipient,
		Payload:   NewContributionNotice(contribution),
	}
}

// Error addresses an error notice to the admin recipient.
func (c *Composer) Error(ctx context.Context, notice ErrorNotice) (Message, error) {
	s, err := c.settings.Get(ctx)
	if err != nil {
		return Message{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load notification recipients")
	}
	return Message{
		Kind:      enums.NotificationKindError,
		Recipient: s.AdminRecipient,
		Payload:   notice,
	}, nil
}
