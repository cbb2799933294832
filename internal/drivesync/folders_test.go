package drivesync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/metrics"
	"github.com/galatadergisi/galata-backend/pkg/storage/gdrive"
	"github.com/prometheus/client_golang/prometheus"
)

type folderKey struct{ parent, name string }

type fakeFolders struct {
	folders map[folderKey][]gdrive.Folder
	created []folderKey
	lookups int
	findErr error
	nextID  int
}

func newFakeFolders() *fakeFolders {
	return &fakeFolders{folders: map[folderKey][]gdrive.Folder{}}
}

func (f *fakeFolders) FindFolders(_ context.Context, name, parentID string) ([]gdrive.Folder, error) {
	f.lookups++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.folders[folderKey{parentID, name}], nil
}

func (f *fakeFolders) CreateFolder(_ context.Context, name, parentID string) (gdrive.Folder, error) {
	f.nextID++
	folder := gdrive.Folder{ID: fmt.Sprintf("folder-%d", f.nextID), Name: name}
	key := folderKey{parentID, name}
	f.folders[key] = append(f.folders[key], folder)
	f.created = append(f.created, key)
	return folder, nil
}

func TestResolveCreatesMissingFoldersOnce(t *testing.T) {
	drive := newFakeFolders()
	r := NewResolver(drive, nil, nil)

	first, err := r.Resolve(context.Background(), "root", 2026, time.February)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []folderKey{{"root", "2026"}, {"folder-1", "Şubat"}}
	if len(drive.created) != 2 || drive.created[0] != want[0] || drive.created[1] != want[1] {
		t.Fatalf("unexpected folders created: %+v", drive.created)
	}

	second, err := r.Resolve(context.Background(), "root", 2026, time.February)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if second != first {
		t.Fatalf("expected same folder, got %q then %q", first, second)
	}
	if len(drive.created) != 2 {
		t.Fatalf("second resolve must not create folders, created %+v", drive.created)
	}
}

func TestResolveFlagsDuplicatesAndUsesFirstMatch(t *testing.T) {
	drive := newFakeFolders()
	drive.folders[folderKey{"root", "2026"}] = []gdrive.Folder{{ID: "y-a"}, {ID: "y-b"}}
	drive.folders[folderKey{"y-a", "Ekim"}] = []gdrive.Folder{{ID: "m-a"}}

	reg := prometheus.NewRegistry()
	r := NewResolver(drive, nil, metrics.NewSyncMetrics(reg))

	id, err := r.Resolve(context.Background(), "root", 2026, time.October)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != "m-a" {
		t.Fatalf("expected first match chain, got %q", id)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var duplicates float64
	for _, mf := range families {
		if mf.GetName() == "galata_drive_folder_duplicates_total" {
			duplicates = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	if duplicates != 1 {
		t.Fatalf("expected one duplicate flagged, got %v", duplicates)
	}
}

func TestResolvePropagatesLookupErrors(t *testing.T) {
	drive := newFakeFolders()
	drive.findErr = errors.New("quota exceeded")
	r := NewResolver(drive, nil, nil)

	if _, err := r.Resolve(context.Background(), "root", 2026, time.March); err == nil {
		t.Fatal("expected error")
	}
	if len(drive.created) != 0 {
		t.Fatalf("no folder may be created after a failed lookup")
	}
}

func TestResolveRequiresRoot(t *testing.T) {
	r := NewResolver(newFakeFolders(), nil, nil)
	if _, err := r.Resolve(context.Background(), "", 2026, time.March); err == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestMonthName(t *testing.T) {
	cases := map[time.Month]string{
		time.January:   "Ocak",
		time.August:    "Ağustos",
		time.December:  "Aralık",
		time.Month(13): "",
	}
	for m, want := range cases {
		if got := MonthName(m); got != want {
			t.Fatalf("MonthName(%d) = %q, want %q", m, got, want)
		}
	}
}
