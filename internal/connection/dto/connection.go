package dto

import (
	"time"

	"flowstate-backend/internal/connection/domain"
)

type AuthorizeResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

type ConnectionResponse struct {
	ID             string                  `json:"id"`
	Platform       domain.Platform         `json:"platform"`
	Status         domain.ConnectionStatus `json:"status"`
	ExternalEmail  string                  `json:"external_email,omitempty"`
	LastError      string                  `json:"last_error,omitempty"`
	LastSyncAt     *time.Time              `json:"last_sync_at,omitempty"`
	LastSyncStatus string                  `json:"last_sync_status,omitempty"`
	ItemsSynced    int                     `json:"items_synced"`
	CreatedAt      time.Time               `json:"created_at"`
}
