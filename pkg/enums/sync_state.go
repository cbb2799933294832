package enums

// SyncState is derived from a contribution's file name and upload flag; it is
// never stored.
type SyncState string

const (
	SyncStateNoFile   SyncState = "no_file"
	SyncStatePending  SyncState = "pending"
	SyncStateUploaded SyncState = "uploaded"
)

// DeriveSyncState maps the persisted columns onto a SyncState.
func DeriveSyncState(hasFile, isUploaded bool) SyncState {
	switch {
	case !hasFile:
		return SyncStateNoFile
	case isUploaded:
		return SyncStateUploaded
	default:
		return SyncStatePending
	}
}
