package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeDeposit  = "deposit"
	TypeWithdraw = "withdraw"
	TypeBet      = "bet"
	TypeWin      = "win"

	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Wallet struct {
	UserID        uint            `gorm:"column:user_id;primaryKey"`
	Balance       decimal.Decimal `gorm:"column:balance;type:numeric(20,2);not null;default:0"`
	BonusBalance  decimal.Decimal `gorm:"column:bonus_balance;type:numeric(20,2);not null;default:0"`
	LockedBalance decimal.Decimal `gorm:"column:locked_balance;type:numeric(20,2);not null;default:0"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;not null"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// Transaction is one immutable ledger row. Completed rows always satisfy
// balance_after = balance_before ± amount; pending rows belong to the
// two-phase deposit flow and carry no balance movement yet.
type Transaction struct {
	ID            uint            `gorm:"column:id;primaryKey"`
	UserID        uint            `gorm:"column:user_id;not null;index"`
	Type          string          `gorm:"column:type;type:varchar(20);not null"` // "deposit", "withdraw", "bet", "win"
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null"`
	BalanceBefore decimal.Decimal `gorm:"column:balance_before;type:numeric(20,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"column:balance_after;type:numeric(20,2);not null"`
	Status        string          `gorm:"column:status;type:varchar(20);not null"` // "pending", "completed"
	Reference     string          `gorm:"column:reference;type:varchar(255);not null;index"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null"`
}

func (Transaction) TableName() string {
	return "transactions"
}
