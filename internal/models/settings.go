package models

// EmailNotificationSettings gates outbound alert emails.
type EmailNotificationSettings struct {
	Enabled        bool   `json:"enabled"`
	RecipientEmail string `json:"recipient_email"`
}

// TelegramNotificationSettings gates outbound alert Telegram messages.
type TelegramNotificationSettings struct {
	Enabled bool  `json:"enabled"`
	ChatID  int64 `json:"chat_id"`
}
