package enums

// NotificationKind is sent as the "kind" attribute of every published
// notification; consumers route on it.
type NotificationKind string

const (
	// NotificationKindContribution tells the asset inbox a submission arrived.
	NotificationKindContribution NotificationKind = "contribution"
	// NotificationKindError reports a failure to the site administrator.
	NotificationKindError NotificationKind = "error"
)

func (n NotificationKind) IsValid() bool {
	switch n {
	case NotificationKindContribution, NotificationKindError:
		return true
	}
	return false
}
