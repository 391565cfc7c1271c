package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, req UpdateRequest) error
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.db.WithContext(ctx).Order("id").First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Defaults(), nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repositoryImpl) Update(ctx context.Context, req UpdateRequest) error {
	return r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		var s Settings
		err := dbtx.Order("id").First(&s).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		s.MinDeposit = req.MinDeposit
		s.MinWithdraw = req.MinWithdraw
		s.DepositEnabled = req.DepositEnabled
		s.WithdrawEnabled = req.WithdrawEnabled

		return dbtx.Save(&s).Error
	})
}
