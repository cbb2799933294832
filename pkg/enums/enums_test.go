package enums

import "testing"

func TestParseContributionType(t *testing.T) {
	for _, value := range []string{"siir", "oyku", "deneme", "roportaj", "elestiri", "resim", "ses", "video"} {
		got, err := ParseContributionType(value)
		if err != nil {
			t.Fatalf("expected %q to parse: %v", value, err)
		}
		if !got.IsValid() {
			t.Fatalf("expected %q to be valid", got)
		}
	}
	if _, err := ParseContributionType("poem"); err == nil {
		t.Fatal("expected english name to be rejected")
	}
	if _, err := ParseContributionType(""); err == nil {
		t.Fatal("expected empty type to be rejected")
	}
	if !ContributionTypeVideo.RequiresVideoLink() || ContributionTypePoem.RequiresVideoLink() {
		t.Fatal("only video submissions require a link")
	}
}

func TestDeriveSyncState(t *testing.T) {
	cases := []struct {
		hasFile, uploaded bool
		want              SyncState
	}{
		{false, false, SyncStateNoFile},
		{false, true, SyncStateNoFile},
		{true, false, SyncStatePending},
		{true, true, SyncStateUploaded},
	}
	for _, tc := range cases {
		if got := DeriveSyncState(tc.hasFile, tc.uploaded); got != tc.want {
			t.Fatalf("DeriveSyncState(%v, %v) = %s, want %s", tc.hasFile, tc.uploaded, got, tc.want)
		}
	}
}

func TestNotificationKindIsValid(t *testing.T) {
	for _, kind := range []NotificationKind{NotificationKindContribution, NotificationKindError} {
		if !kind.IsValid() {
			t.Fatalf("%q should be valid", kind)
		}
	}
	if NotificationKind("email").IsValid() {
		t.Fatal("expected unknown kind to be rejected")
	}
}
