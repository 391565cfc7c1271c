package bet

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive = "active"
	StatusWon    = "won"
	StatusLost   = "lost"
)

// Bet is one wager against a round. Its stake is debited the instant the row
// exists; won/lost are final.
type Bet struct {
	ID                uint            `gorm:"column:id;primaryKey"`
	UserID            uint            `gorm:"column:user_id;not null;index"`
	RoundID           uint            `gorm:"column:round_id;not null;index"`
	Amount            decimal.Decimal `gorm:"column:bet_amount;type:numeric(20,2);not null"`
	AutoCashout       *float64        `gorm:"column:auto_cashout;type:numeric(10,2)"`
	CashoutMultiplier *float64        `gorm:"column:cashout_multiplier;type:numeric(10,2)"`
	Payout            decimal.Decimal `gorm:"column:payout;type:numeric(20,2);not null;default:0"`
	Status            string          `gorm:"column:status;type:varchar(20);not null;index"` // "active", "won", "lost"
	CreatedAt         time.Time       `gorm:"column:created_at;not null"`
}

func (Bet) TableName() string {
	return "bets"
}
