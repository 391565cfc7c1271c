package wallet

import (
	"context"

	"aviator_backend/internal/settings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is the only way money moves. Deposit/withdraw calls are gated by
// the admin limits; bet/win movements are game-internal and bypass them.
type Service struct {
	repo     Repository
	settings settings.Repository
}

func NewService(repo Repository, settingsRepo settings.Repository) *Service {
	return &Service{repo: repo, settings: settingsRepo}
}

func (s *Service) Balance(ctx context.Context, userID uint) (*Wallet, error) {
	return s.repo.Get(ctx, userID)
}

func (s *Service) CreateWallet(ctx context.Context, userID uint) (*Wallet, error) {
	return s.repo.Create(ctx, userID)
}

func (s *Service) Credit(ctx context.Context, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if txType == TypeDeposit {
		if err := s.checkDepositAllowed(ctx, amount); err != nil {
			return nil, err
		}
	}
	return s.repo.Credit(ctx, userID, amount, txType, reference)
}

func (s *Service) Debit(ctx context.Context, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if txType == TypeWithdraw {
		if err := s.checkWithdrawAllowed(ctx, amount); err != nil {
			return nil, err
		}
	}
	return s.repo.Debit(ctx, userID, amount, txType, reference)
}

// DebitTx is Debit running inside the caller's transaction handle; BetLedger
// uses it so the stake debit and the bet insert commit or abort together.
func (s *Service) DebitTx(ctx context.Context, dbtx *gorm.DB, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	return s.repo.DebitTx(ctx, dbtx, userID, amount, txType, reference)
}

// InitiateDeposit opens the two-phase deposit: a pending ledger row keyed by
// reference, completed later by ConfirmDeposit when the provider calls back.
func (s *Service) InitiateDeposit(ctx context.Context, userID uint, amount decimal.Decimal, reference string) (*Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if err := s.checkDepositAllowed(ctx, amount); err != nil {
		return nil, err
	}
	return s.repo.CreatePending(ctx, userID, amount, TypeDeposit, reference)
}

// ConfirmDeposit consumes a provider confirmation idempotently: replaying the
// same reference never credits twice.
func (s *Service) ConfirmDeposit(ctx context.Context, reference string, amount decimal.Decimal) (bool, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return false, ErrInvalidAmount
	}
	return s.repo.ConfirmPending(ctx, reference, amount)
}

// LedgerSum audits a user's ledger: the signed sum of completed transactions.
func (s *Service) LedgerSum(ctx context.Context, userID uint) (decimal.Decimal, error) {
	return s.repo.SumCompleted(ctx, userID)
}

func (s *Service) checkDepositAllowed(ctx context.Context, amount decimal.Decimal) error {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !st.DepositEnabled {
		return ErrDepositsDisabled
	}
	if amount.LessThan(st.MinDeposit) {
		return ErrBelowMinDeposit
	}
	return nil
}

func (s *Service) checkWithdrawAllowed(ctx context.Context, amount decimal.Decimal) error {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !st.WithdrawEnabled {
		return ErrWithdrawalsDisabled
	}
	if amount.LessThan(st.MinWithdraw) {
		return ErrBelowMinWithdraw
	}
	return nil
}
