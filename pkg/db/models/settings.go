package models

// SettingsRowID is the primary key of the single settings row.
const SettingsRowID = 1

// Settings holds the Drive OAuth client, notification recipients and the
// reCAPTCHA secret.
type Settings struct {
	ID                uint   `gorm:"column:id;primaryKey"`
	DriveClientID     string `gorm:"column:drive_client_id;type:text;not null;default:''"`
	DriveClientSecret string `gorm:"column:drive_client_secret;type:text;not null;default:''"`
	DriveRedirectURI  string `gorm:"column:drive_redirect_uri;type:text;not null;default:''"`
	DriveRefreshToken string `gorm:"column:drive_refresh_token;type:text;not null;default:''"`
	DriveRootFolder   string `gorm:"column:drive_root_folder;type:text;not null;default:''"`
	AdminRecipient    string `gorm:"column:admin_recipient;type:text;not null;default:''"`
	AssetRecipient    string `gorm:"column:asset_recipient;type:text;not null;default:''"`
	RecaptchaSecret   string `gorm:"column:recaptcha_secret;type:text;not null;default:''"`
}

func (Settings) TableName() string { return "settings" }
