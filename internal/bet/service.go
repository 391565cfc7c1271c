package bet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"aviator_backend/internal/round"
	"aviator_backend/internal/wallet"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount   = errors.New("invalid bet amount")
	ErrAmountTooLarge  = errors.New("bet exceeds max limit")
	ErrNoActiveRound   = errors.New("no active round")
	ErrBettingClosed   = errors.New("betting closed")
	ErrRoundNotRunning = errors.New("round is not running")
	ErrAlreadySettled  = errors.New("bet already settled")
)

// MultiplierSource reports the live multiplier of the running round; manual
// cashout settles at whatever it reads at call time.
type MultiplierSource interface {
	CurrentMultiplier() (roundID uint, multiplier float64, ok bool)
}

// Service validates and records wagers against the open round and settles
// them, delegating every balance move to the wallet ledger.
type Service struct {
	db      *gorm.DB
	repo    Repository
	rounds  round.Repository
	wallets *wallet.Service
	live    MultiplierSource
	maxBet  decimal.Decimal
}

func NewService(db *gorm.DB, repo Repository, rounds round.Repository, wallets *wallet.Service, maxBet decimal.Decimal) *Service {
	return &Service{db: db, repo: repo, rounds: rounds, wallets: wallets, maxBet: maxBet}
}

// SetMultiplierSource wires the scheduler in after construction; the
// scheduler itself needs this service as its settler.
func (s *Service) SetMultiplierSource(src MultiplierSource) {
	s.live = src
}

// PlaceBet validates the wager and records it. The stake debit and the bet
// row share one transaction boundary: a failed debit creates no bet.
func (s *Service) PlaceBet(ctx context.Context, userID uint, amount decimal.Decimal, autoCashout *float64) (uint, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, ErrInvalidAmount
	}
	if amount.GreaterThan(s.maxBet) {
		return 0, ErrAmountTooLarge
	}

	cur, err := s.rounds.Current(ctx)
	if err != nil {
		return 0, err
	}
	if cur == nil {
		return 0, ErrNoActiveRound
	}
	if cur.Status != round.StatusOpen || time.Now().After(cur.BettingCloseAt) {
		return 0, ErrBettingClosed
	}

	var betID uint
	err = s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		reference := fmt.Sprintf("bet_round_%d_user_%d", cur.ID, userID)
		if _, err := s.wallets.DebitTx(ctx, dbtx, userID, amount, wallet.TypeBet, reference); err != nil {
			return err
		}

		b := &Bet{
			UserID:      userID,
			RoundID:     cur.ID,
			Amount:      amount,
			AutoCashout: autoCashout,
			Payout:      decimal.Zero,
			Status:      StatusActive,
		}
		if err := dbtx.Create(b).Error; err != nil {
			return err
		}
		betID = b.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return betID, nil
}

// SettleAutoCashouts runs once per multiplier tick. Every qualifying bet
// settles at its own auto_cashout level, not the tick's multiplier.
func (s *Service) SettleAutoCashouts(ctx context.Context, roundID uint, multiplier float64) error {
	bets, err := s.repo.ActiveAutoCashouts(ctx, roundID, multiplier)
	if err != nil {
		return err
	}

	for i := range bets {
		b := &bets[i]
		if _, err := s.settle(ctx, b, *b.AutoCashout); err != nil && !errors.Is(err, ErrAlreadySettled) {
			// A failed payout must not stall the tick loop or the other
			// winners; it is logged for operator follow-up.
			log.Printf("auto cashout of bet %d failed: %v", b.ID, err)
		}
	}
	return nil
}

// Cashout is the manual variant of settlement, invoked by the API while the
// round is running. The conditional active->won flip inside settle makes it
// mutually exclusive with the tick loop settling the same bet.
func (s *Service) Cashout(ctx context.Context, userID, betID uint) (decimal.Decimal, float64, error) {
	roundID, multiplier, ok := s.live.CurrentMultiplier()
	if !ok {
		return decimal.Zero, 0, ErrRoundNotRunning
	}

	b, err := s.repo.Get(ctx, betID)
	if err != nil {
		return decimal.Zero, 0, err
	}
	if b.UserID != userID {
		return decimal.Zero, 0, ErrBetNotFound
	}
	if b.RoundID != roundID {
		return decimal.Zero, 0, ErrRoundNotRunning
	}

	payout, err := s.settle(ctx, b, multiplier)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return payout, multiplier, nil
}

func (s *Service) MarkActiveLost(ctx context.Context, roundID uint) error {
	return s.repo.MarkActiveLost(ctx, roundID)
}

func (s *Service) settle(ctx context.Context, b *Bet, multiplier float64) (decimal.Decimal, error) {
	payout := b.Amount.Mul(decimal.NewFromFloat(multiplier)).Round(2)

	won, err := s.repo.MarkWon(ctx, b.ID, multiplier, payout)
	if err != nil {
		return decimal.Zero, err
	}
	if !won {
		return decimal.Zero, ErrAlreadySettled
	}

	reference := fmt.Sprintf("cashout_bet_%d", b.ID)
	if _, err := s.wallets.Credit(ctx, b.UserID, payout, wallet.TypeWin, reference); err != nil {
		return decimal.Zero, err
	}
	return payout, nil
}
