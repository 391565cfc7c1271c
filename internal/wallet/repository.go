package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrDepositsDisabled    = errors.New("deposits are disabled")
	ErrWithdrawalsDisabled = errors.New("withdrawals are disabled")
	ErrBelowMinDeposit     = errors.New("deposit below minimum limit")
	ErrBelowMinWithdraw    = errors.New("withdraw below minimum limit")
	ErrUnknownReference    = errors.New("unknown transaction reference")
)

type Repository interface {
	Create(ctx context.Context, userID uint) (*Wallet, error)
	Get(ctx context.Context, userID uint) (*Wallet, error)
	Credit(ctx context.Context, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error)
	Debit(ctx context.Context, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error)
	// DebitTx runs the debit on an existing transaction handle so a caller can
	// make it atomic with its own writes (bet placement debits and inserts the
	// bet as one unit).
	DebitTx(ctx context.Context, dbtx *gorm.DB, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error)
	CreatePending(ctx context.Context, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error)
	ConfirmPending(ctx context.Context, reference string, amount decimal.Decimal) (bool, error)
	SumCompleted(ctx context.Context, userID uint) (decimal.Decimal, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, userID uint) (*Wallet, error) {
	w := Wallet{
		UserID:        userID,
		Balance:       decimal.Zero,
		BonusBalance:  decimal.Zero,
		LockedBalance: decimal.Zero,
	}
	if err := r.db.WithContext(ctx).Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repositoryImpl) Get(ctx context.Context, userID uint) (*Wallet, error) {
	var w Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

// lockWallet takes the exclusive row lock that serializes every mutation of a
// single user's wallet. Concurrent settlement and user-initiated transfers
// queue here instead of clobbering each other.
func lockWallet(dbtx *gorm.DB, userID uint) (*Wallet, error) {
	var w Wallet
	err := dbtx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

func writeMovement(dbtx *gorm.DB, w *Wallet, amount decimal.Decimal, txType, reference string, after decimal.Decimal) (*Transaction, error) {
	t := &Transaction{
		UserID:        w.UserID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: w.Balance,
		BalanceAfter:  after,
		Status:        StatusCompleted,
		Reference:     reference,
	}

	// Ledger row first, then the balance, inside one transaction boundary: an
	// abort leaves neither write visible.
	if err := dbtx.Create(t).Error; err != nil {
		return nil, err
	}

	err := dbtx.Model(&Wallet{}).Where("user_id = ?", w.UserID).
		Updates(map[string]interface{}{
			"balance":    after,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repositoryImpl) Credit(ctx context.Context, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error) {
	var out *Transaction
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		w, err := lockWallet(dbtx, userID)
		if err != nil {
			return err
		}
		out, err = writeMovement(dbtx, w, amount, txType, reference, w.Balance.Add(amount))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repositoryImpl) Debit(ctx context.Context, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error) {
	var out *Transaction
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		var err error
		out, err = r.DebitTx(ctx, dbtx, userID, amount, txType, reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repositoryImpl) DebitTx(ctx context.Context, dbtx *gorm.DB, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error) {
	w, err := lockWallet(dbtx.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if w.Balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}
	return writeMovement(dbtx, w, amount, txType, reference, w.Balance.Sub(amount))
}

// CreatePending records a deposit awaiting provider confirmation. No balance
// moves until ConfirmPending sees the matching callback.
func (r *repositoryImpl) CreatePending(ctx context.Context, userID uint, amount decimal.Decimal, txType, reference string) (*Transaction, error) {
	var out *Transaction
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		w, err := lockWallet(dbtx, userID)
		if err != nil {
			return err
		}
		t := &Transaction{
			UserID:        userID,
			Type:          txType,
			Amount:        amount,
			BalanceBefore: w.Balance,
			BalanceAfter:  w.Balance,
			Status:        StatusPending,
			Reference:     reference,
		}
		if err := dbtx.Create(t).Error; err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmPending completes a pending deposit exactly once per reference. The
// conditional pending->completed flip is the idempotency guard: a replayed
// callback finds no pending row and credits nothing. Returns whether this
// call performed the credit.
func (r *repositoryImpl) ConfirmPending(ctx context.Context, reference string, amount decimal.Decimal) (bool, error) {
	credited := false
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		var t Transaction
		err := dbtx.Where("reference = ? AND type = ?", reference, TypeDeposit).
			Order("id").First(&t).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownReference
			}
			return err
		}
		if t.Status == StatusCompleted {
			return nil
		}

		w, err := lockWallet(dbtx, t.UserID)
		if err != nil {
			return err
		}
		after := w.Balance.Add(amount)

		res := dbtx.Model(&Transaction{}).
			Where("id = ? AND status = ?", t.ID, StatusPending).
			Updates(map[string]interface{}{
				"status":         StatusCompleted,
				"amount":         amount,
				"balance_before": w.Balance,
				"balance_after":  after,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race to another confirmation; nothing to credit.
			return nil
		}

		err = dbtx.Model(&Wallet{}).Where("user_id = ?", w.UserID).
			Updates(map[string]interface{}{
				"balance":    after,
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return credited, nil
}

// SumCompleted returns the signed sum of all completed transactions for a
// user: credits positive, debits negative. Used to audit the ledger against
// the wallet balance.
func (r *repositoryImpl) SumCompleted(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var txs []Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, StatusCompleted).
		Find(&txs).Error
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case TypeDeposit, TypeWin:
			sum = sum.Add(t.Amount)
		case TypeWithdraw, TypeBet:
			sum = sum.Sub(t.Amount)
		}
	}
	return sum, nil
}
