package round

import "time"

const (
	StatusOpen    = "open"
	StatusRunning = "running"
	StatusCrashed = "crashed"
	StatusClosed  = "closed"
)

// Round is the authoritative record of one game round. The scheduler holds no
// state beyond what is persisted here, so a restarted process can rediscover
// (and recover) whatever it left behind.
type Round struct {
	ID             uint       `gorm:"column:id;primaryKey"`
	CrashPoint     float64    `gorm:"column:crash_point;type:numeric(10,2);not null"`
	Status         string     `gorm:"column:status;type:varchar(20);not null;index"` // "open", "running", "crashed", "closed"
	ServerSeed     string     `gorm:"column:server_seed;type:varchar(128);not null"`
	ClientSeed     string     `gorm:"column:client_seed;type:varchar(128);not null"`
	Nonce          int64      `gorm:"column:nonce;not null"`
	ServerHash     string     `gorm:"column:server_hash;type:varchar(128);not null"`
	BettingCloseAt time.Time  `gorm:"column:betting_close_at;not null"`
	StartedAt      *time.Time `gorm:"column:started_at"`
	EndedAt        *time.Time `gorm:"column:ended_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
}

func (Round) TableName() string {
	return "game_rounds"
}

// Summary is what /aviator/recent exposes for a finished round.
type Summary struct {
	CrashPoint float64    `json:"crash_point"`
	EndedAt    *time.Time `json:"ended_at"`
}
