package bet

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrBetNotFound = errors.New("bet not found")

type Repository interface {
	Get(ctx context.Context, id uint) (*Bet, error)
	// ActiveAutoCashouts is the closed set of bets that qualify for
	// settlement at the given multiplier.
	ActiveAutoCashouts(ctx context.Context, roundID uint, multiplier float64) ([]Bet, error)
	// MarkWon flips active->won with a single conditional update. Reports
	// false when the bet was no longer active, which is how a tick-loop
	// settle and a concurrent manual cashout exclude each other.
	MarkWon(ctx context.Context, id uint, multiplier float64, payout decimal.Decimal) (bool, error)
	MarkActiveLost(ctx context.Context, roundID uint) error
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Get(ctx context.Context, id uint) (*Bet, error) {
	var b Bet
	err := r.db.WithContext(ctx).First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBetNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repositoryImpl) ActiveAutoCashouts(ctx context.Context, roundID uint, multiplier float64) ([]Bet, error) {
	var bets []Bet
	err := r.db.WithContext(ctx).
		Where("round_id = ? AND status = ? AND auto_cashout IS NOT NULL AND auto_cashout <= ?",
			roundID, StatusActive, multiplier).
		Find(&bets).Error
	return bets, err
}

func (r *repositoryImpl) MarkWon(ctx context.Context, id uint, multiplier float64, payout decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Bet{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Updates(map[string]interface{}{
			"status":             StatusWon,
			"cashout_multiplier": multiplier,
			"payout":             payout,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repositoryImpl) MarkActiveLost(ctx context.Context, roundID uint) error {
	return r.db.WithContext(ctx).Model(&Bet{}).
		Where("round_id = ? AND status = ?", roundID, StatusActive).
		Update("status", StatusLost).Error
}
