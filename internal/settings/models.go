package settings

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the single admin-managed row of platform limits. WalletLedger
// reads it on every deposit/withdraw; game-internal transfers bypass it.
type Settings struct {
	ID              uint            `gorm:"column:id;primaryKey"`
	MinDeposit      decimal.Decimal `gorm:"column:min_deposit;type:numeric(20,2);not null;default:100"`
	MinWithdraw     decimal.Decimal `gorm:"column:min_withdraw;type:numeric(20,2);not null;default:100"`
	DepositEnabled  bool            `gorm:"column:deposit_enabled;not null;default:true"`
	WithdrawEnabled bool            `gorm:"column:withdraw_enabled;not null;default:true"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;not null"`
}

func (Settings) TableName() string {
	return "admin_settings"
}

// Defaults applied when no settings row exists yet.
func Defaults() *Settings {
	return &Settings{
		MinDeposit:      decimal.NewFromInt(100),
		MinWithdraw:     decimal.NewFromInt(100),
		DepositEnabled:  true,
		WithdrawEnabled: true,
	}
}

type UpdateRequest struct {
	MinDeposit      decimal.Decimal `json:"min_deposit"`
	MinWithdraw     decimal.Decimal `json:"min_withdraw"`
	DepositEnabled  bool            `json:"deposit_enabled"`
	WithdrawEnabled bool            `json:"withdraw_enabled"`
}
