package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/galatadergisi/galata-backend/pkg/db/models"
	"github.com/galatadergisi/galata-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type fakeSettings struct {
	settings models.Settings
	err      error
}

func (f fakeSettings) Get(context.Context) (models.Settings, error) {
	return f.settings, f.err
}

type fakeRepository struct {
	inserted []models.Notification
	err      error
}

func (f *fakeRepository) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepository) Insert(_ context.Context, row *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, *row)
	return nil
}

func (f *fakeRepository) FetchUnpublished(context.Context, int, int) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeRepository) MarkPublished(context.Context, uuid.UUID, time.Time) error { return nil }

func (f *fakeRepository) MarkFailed(context.Context, uuid.UUID, error) error { return nil }

func (f *fakeRepository) DeletePublishedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestNewQueueRequiresRepository(t *testing.T) {
	if _, err := NewQueue(nil, nil); err == nil {
		t.Fatal("expected error without repository")
	}
}

func TestQueueEnqueueWritesEnvelope(t *testing.T) {
	conn := newTestDB(t)
	q, err := NewQueue(NewRepository(conn), nil)
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}

	notice := ErrorNotice{Title: "File doesn't exist on the server", Message: "Asset Id: 7", ContributionID: 7}
	if err := q.Enqueue(context.Background(), Message{Kind: enums.NotificationKindError, Recipient: "admin@galatadergisi.org", Payload: notice}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	var rows []models.Notification
	if err := conn.Find(&rows).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one queued row, got %d", len(rows))
	}
	row := rows[0]
	if row.Kind != enums.NotificationKindError || row.Recipient != "admin@galatadergisi.org" {
		t.Fatalf("unexpected row %+v", row)
	}

	var env Envelope
	if err := json.Unmarshal(row.Payload, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Version != envelopeVersion || env.NotificationID != row.ID.String() {
		t.Fatalf("unexpected envelope %+v", env)
	}
	var decoded ErrorNotice
	if err := json.Unmarshal(env.Data, &decoded); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if decoded.Message != "Asset Id: 7" {
		t.Fatalf("unexpected notice %+v", decoded)
	}
}

func TestQueueRejectsMissingRecipientAndKind(t *testing.T) {
	repo := &fakeRepository{}
	q, _ := NewQueue(repo, nil)

	if err := q.Enqueue(context.Background(), Message{Kind: enums.NotificationKindContribution}); err == nil {
		t.Fatal("expected missing recipient error")
	}
	if err := q.Enqueue(context.Background(), Message{Kind: "email", Recipient: "x@y"}); err == nil {
		t.Fatal("expected invalid kind error")
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("nothing should be inserted, got %d", len(repo.inserted))
	}
}

func TestQueueWrapsRepositoryErrors(t *testing.T) {
	repo := &fakeRepository{err: errors.New("disk full")}
	q, _ := NewQueue(repo, nil)
	err := q.Enqueue(context.Background(), Message{Kind: enums.NotificationKindError, Recipient: "a@b"})
	if err == nil || !errors.Is(err, repo.err) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestComposerAddressesByKind(t *testing.T) {
	composer, err := NewComposer(fakeSettings{settings: models.Settings{
		AdminRecipient: "admin@galatadergisi.org",
		AssetRecipient: "eser@galatadergisi.org",
	}})
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}

	msg, err := composer.Contribution(context.Background(), models.Contribution{ID: 3, Title: "Şiir"})
	if err != nil {
		t.Fatalf("Contribution: %v", err)
	}
	if msg.Kind != enums.NotificationKindContribution || msg.Recipient != "eser@galatadergisi.org" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if notice, ok := msg.Payload.(ContributionNotice); !ok || notice.ContributionID != 3 {
		t.Fatalf("unexpected payload %#v", msg.Payload)
	}

	msg, err = composer.Error(context.Background(), ErrorNotice{Title: "boom"})
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	if msg.Kind != enums.NotificationKindError || msg.Recipient != "admin@galatadergisi.org" {
		t.Fatalf("unexpected message %+v", msg)
	}

	failing, _ := NewComposer(fakeSettings{err: errors.New("db down")})
	if _, err := failing.Error(context.Background(), ErrorNotice{}); err == nil {
		t.Fatal("expected settings error to propagate")
	}
}

func TestRepositoryRelayLifecycle(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	first := &models.Notification{ID: uuid.New(), Kind: enums.NotificationKindContribution, Recipient: "a@b", Payload: json.RawMessage(`{}`), CreatedAt: base}
	second := &models.Notification{ID: uuid.New(), Kind: enums.NotificationKindError, Recipient: "a@b", Payload: json.RawMessage(`{}`), CreatedAt: base.Add(time.Minute)}
	exhausted := &models.Notification{ID: uuid.New(), Kind: enums.NotificationKindError, Recipient: "a@b", Payload: json.RawMessage(`{}`), CreatedAt: base.Add(2 * time.Minute), AttemptCount: 5}
	for _, row := range []*models.Notification{first, second, exhausted} {
		if err := repo.Insert(ctx, row); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := repo.FetchUnpublished(ctx, 10, 5)
	if err != nil {
		t.Fatalf("FetchUnpublished: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != first.ID || rows[1].ID != second.ID {
		t.Fatalf("unexpected unpublished rows %+v", rows)
	}

	if err := repo.MarkFailed(ctx, second.ID, errors.New("pubsub unavailable")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := repo.MarkPublished(ctx, first.ID, base.Add(time.Hour)); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}

	var reloaded models.Notification
	if err := conn.First(&reloaded, "id = ?", second.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.AttemptCount != 1 || reloaded.LastError == nil || *reloaded.LastError != "pubsub unavailable" {
		t.Fatalf("unexpected failed row %+v", reloaded)
	}

	rows, err = repo.FetchUnpublished(ctx, 10, 5)
	if err != nil {
		t.Fatalf("FetchUnpublished: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != second.ID {
		t.Fatalf("expected only the failed row to remain, got %+v", rows)
	}

	deleted, err := repo.DeletePublishedBefore(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("DeletePublishedBefore: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected one purged row, got %d", deleted)
	}
}

func TestRepositoryMarkFailedTruncatesError(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	row := &models.Notification{ID: uuid.New(), Kind: enums.NotificationKindError, Recipient: "a@b", Payload: json.RawMessage(`{}`)}
	if err := repo.Insert(ctx, row); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.MarkFailed(ctx, row.ID, errors.New(strings.Repeat("ğ", 800))); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	var reloaded models.Notification
	if err := conn.First(&reloaded, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.LastError == nil || len(*reloaded.LastError) > maxErrorLen || !utf8.ValidString(*reloaded.LastError) {
		t.Fatalf("expected truncated valid error, got %d bytes", len(*reloaded.LastError))
	}

	if err := repo.MarkPublished(ctx, uuid.New(), time.Now()); err == nil {
		t.Fatal("expected error for unknown notification")
	}
}
