package orderrepo

import (
	"context"
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.OrderRepository = (*GormOrderRepository)(nil)

// GormOrderRepository implements ports.OrderRepository on PostgreSQL.
// UpdateIf is a single UPDATE guarded by "version = ?", so it stays correct
// across service instances without any in-process lock.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts the order and its items in one transaction.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&OrderDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.NewObjectExistsError("order", dto.ID)
		}

		if err := tx.Create(&dto).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errs.NewObjectExistsError("order", dto.ID)
			}
			return err
		}
		return nil
	})
}

func (r *GormOrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var dto OrderDTO
	err := r.withItems(r.db.WithContext(ctx)).First(&dto, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id)
		}
		return nil, err
	}
	return toDomain(dto)
}

// List returns the orders matching filter, newest first, ties by id.
func (r *GormOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	q := r.withItems(r.db.WithContext(ctx)).Model(&OrderDTO{})

	if len(filter.Statuses) > 0 {
		statuses := make([]int, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = int(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if !filter.CreatedFrom.IsZero() {
		q = q.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		q = q.Where("created_at < ?", filter.CreatedTo.UTC())
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where("LOWER(id) LIKE ? OR LOWER(customer_name) LIKE ?", pattern, pattern)
	}

	var dtos []OrderDTO
	if err := q.Order("created_at DESC").Order("id ASC").Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateIf writes the fulfillment state of aggregate if the stored version is
// still expectedVersion, and returns the order at its new version.
func (r *GormOrderRepository) UpdateIf(ctx context.Context, aggregate *order.Order, expectedVersion int64) (*order.Order, error) {
	if err := aggregate.Validate(); err != nil {
		return nil, err
	}

	dto := fromDomain(aggregate)
	columns := mutableColumns(dto)
	columns["version"] = expectedVersion + 1

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, expectedVersion).
		Updates(columns)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		var current OrderDTO
		err := r.db.WithContext(ctx).Select("id", "version").First(&current, "id = ?", dto.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", dto.ID)
		}
		if err != nil {
			return nil, err
		}
		return nil, errs.NewVersionIsInvalidError("order "+dto.ID, expectedVersion, current.Version)
	}

	state := aggregate.State()
	state.Version = expectedVersion + 1
	return order.RestoreOrder(state)
}

func (r *GormOrderRepository) withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
