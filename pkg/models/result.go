package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SpeedResult is one speed test measurement persisted for trend analysis.
// The table is append-only: rows are inserted once and never updated or
// deleted. CreatedAt is assigned by the database on insert.
type SpeedResult struct {
	bun.BaseModel `bun:"table:tracker.speed_result,alias:sr"`

	ID             int64     `bun:",pk,autoincrement"`
	DownloadMbps   float64   `bun:"download_mbps,notnull"`
	UploadMbps     float64   `bun:"upload_mbps,notnull"`
	PingMs         float64   `bun:"ping_ms,notnull"`
	ServerName     string    `bun:"server_name,notnull"`
	ServerLocation string    `bun:"server_location,notnull"`
	CreatedAt      time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
