package domain

import "time"

// Platform identifies an external platform a user can connect.
type Platform string

const (
	PlatformMail     Platform = "mail"
	PlatformChat     Platform = "chat"
	PlatformCalendar Platform = "calendar"
)

// ConnectionStatus is the lifecycle state of a platform connection.
type ConnectionStatus string

const (
	StatusActive  ConnectionStatus = "active"
	StatusExpired ConnectionStatus = "expired"
	StatusRevoked ConnectionStatus = "revoked"
	StatusError   ConnectionStatus = "error"
)

// Connection is a user's authorized link to one external platform.
// At most one connection exists per (user, platform) pair.
type Connection struct {
	ID       string   `json:"id" gorm:"primaryKey"`
	UserID   string   `json:"user_id" gorm:"index:idx_user_platform,unique;not null"`
	Platform Platform `json:"platform" gorm:"index:idx_user_platform,unique;not null"`

	AccessToken    string     `json:"-" gorm:"type:text"`
	RefreshToken   string     `json:"-" gorm:"type:text"`
	TokenExpiresAt *time.Time `json:"token_expires_at"`
	Scopes         string     `json:"scopes,omitempty"`

	ExternalUserID string `json:"external_user_id,omitempty"`
	ExternalEmail  string `json:"external_email,omitempty"`

	Status    ConnectionStatus `json:"status"`
	LastError string           `json:"last_error,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncCursor tracks the incremental sync bookmark for one connection.
// Token holds the platform cursor (history id, sync token); Metadata holds
// a free-form JSON blob for platforms that need multiple watermarks.
type SyncCursor struct {
	ID           string `json:"id" gorm:"primaryKey"`
	ConnectionID string `json:"connection_id" gorm:"uniqueIndex;not null"`

	Token    string `json:"token" gorm:"size:500"`
	Metadata string `json:"metadata,omitempty" gorm:"type:text"`

	LastSyncAt     *time.Time `json:"last_sync_at"`
	LastSyncStatus string     `json:"last_sync_status,omitempty" gorm:"size:50"`
	LastSyncError  string     `json:"last_sync_error,omitempty" gorm:"type:text"`
	ItemsSynced    int        `json:"items_synced"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
