package round

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrBadTransition = errors.New("invalid round status transition")

type Repository interface {
	// CreateIfNoneActive inserts a new open round unless a round is already
	// open or running, in which case it returns (nil, nil). Check and insert
	// share one transaction so two schedulers cannot both open a round.
	CreateIfNoneActive(ctx context.Context, r *Round) (*Round, error)
	Get(ctx context.Context, id uint) (*Round, error)
	Current(ctx context.Context) (*Round, error)
	Recent(ctx context.Context, limit int) ([]Summary, error)
	Start(ctx context.Context, id uint) error
	Crash(ctx context.Context, id uint) error
	Close(ctx context.Context, id uint) error
	// ForceCrash terminates any round stuck in open/running, for recovery
	// after a process death or a tick-loop fault.
	ForceCrash(ctx context.Context, id uint) error
	ActiveRounds(ctx context.Context) ([]Round, error)
	NextNonce(ctx context.Context) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) CreateIfNoneActive(ctx context.Context, rd *Round) (*Round, error) {
	var created *Round
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		var count int64
		err := dbtx.Model(&Round{}).
			Where("status IN ?", []string{StatusOpen, StatusRunning}).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		rd.Status = StatusOpen
		if err := dbtx.Create(rd).Error; err != nil {
			return err
		}
		created = rd
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *repositoryImpl) Get(ctx context.Context, id uint) (*Round, error) {
	var rd Round
	if err := r.db.WithContext(ctx).First(&rd, id).Error; err != nil {
		return nil, err
	}
	return &rd, nil
}

// Current returns the single open or running round, or nil when the table is
// between rounds.
func (r *repositoryImpl) Current(ctx context.Context) (*Round, error) {
	var rd Round
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{StatusOpen, StatusRunning}).
		Order("id DESC").
		First(&rd).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rd, nil
}

func (r *repositoryImpl) Recent(ctx context.Context, limit int) ([]Summary, error) {
	var rounds []Round
	err := r.db.WithContext(ctx).
		Where("ended_at IS NOT NULL AND status IN ?", []string{StatusCrashed, StatusClosed}).
		Order("id DESC").
		Limit(limit).
		Find(&rounds).Error
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(rounds))
	for _, rd := range rounds {
		out = append(out, Summary{CrashPoint: rd.CrashPoint, EndedAt: rd.EndedAt})
	}
	return out, nil
}

// transition performs a guarded status update: the WHERE clause on the prior
// status makes skipped or reversed transitions impossible.
func (r *repositoryImpl) transition(ctx context.Context, id uint, from, to string, stamps map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range stamps {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).Model(&Round{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBadTransition
	}
	return nil
}

func (r *repositoryImpl) Start(ctx context.Context, id uint) error {
	return r.transition(ctx, id, StatusOpen, StatusRunning, map[string]interface{}{
		"started_at": time.Now(),
	})
}

func (r *repositoryImpl) Crash(ctx context.Context, id uint) error {
	return r.transition(ctx, id, StatusRunning, StatusCrashed, map[string]interface{}{
		"ended_at": time.Now(),
	})
}

func (r *repositoryImpl) Close(ctx context.Context, id uint) error {
	return r.transition(ctx, id, StatusCrashed, StatusClosed, nil)
}

func (r *repositoryImpl) ForceCrash(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&Round{}).
		Where("id = ? AND status IN ?", id, []string{StatusOpen, StatusRunning}).
		Updates(map[string]interface{}{
			"status":   StatusCrashed,
			"ended_at": time.Now(),
		})
	return res.Error
}

func (r *repositoryImpl) ActiveRounds(ctx context.Context) ([]Round, error) {
	var rounds []Round
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{StatusOpen, StatusRunning}).
		Find(&rounds).Error
	return rounds, err
}

// NextNonce is the per-round fairness counter: one more than the number of
// rounds ever created, so a seed pair never repeats a crash point.
func (r *repositoryImpl) NextNonce(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Round{}).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}
