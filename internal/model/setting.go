package model

// Setting is a single key/value application setting (SMTP credentials for
// the notifier, sender address, and similar).
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Well-known setting keys consumed by the notifier worker.
const (
	SettingMailServer        = "MAIL_SERVER"
	SettingMailPort          = "MAIL_PORT"
	SettingMailUsername      = "MAIL_USERNAME"
	SettingMailPassword      = "MAIL_PASSWORD"
	SettingMailDefaultSender = "MAIL_DEFAULT_SENDER"
)

// UpdateSettingsRequest is the payload for bulk-updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}
