package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	apptrade "github.com/erp/receiving/internal/application/trade"
	"github.com/erp/receiving/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormActivityLogRepository stores audit records in activity_logs
type GormActivityLogRepository struct {
	db *gorm.DB
}

// NewGormActivityLogRepository creates a new GormActivityLogRepository
func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

// Record implements apptrade.ActivityRecorder
func (r *GormActivityLogRepository) Record(ctx context.Context, entry apptrade.ActivityEntry) error {
	details := "{}"
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("encode activity details: %w", err)
		}
		details = string(b)
	}
	row := models.ActivityLogModel{
		ID:              uuid.New(),
		TenantID:        entry.TenantID,
		UserID:          entry.UserID,
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		EntityDisplayID: entry.EntityDisplayID,
		Action:          entry.Action,
		FromStatus:      entry.FromStatus,
		ToStatus:        entry.ToStatus,
		Details:         details,
		OccurredAt:      entry.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// ListForEntity returns the audit trail of one entity, oldest first
func (r *GormActivityLogRepository) ListForEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]apptrade.ActivityEntry, error) {
	var rows []models.ActivityLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("occurred_at, id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	entries := make([]apptrade.ActivityEntry, len(rows))
	for i, row := range rows {
		entries[i] = apptrade.ActivityEntry{
			TenantID:        row.TenantID,
			UserID:          row.UserID,
			EntityType:      row.EntityType,
			EntityID:        row.EntityID,
			EntityDisplayID: row.EntityDisplayID,
			Action:          row.Action,
			FromStatus:      row.FromStatus,
			ToStatus:        row.ToStatus,
			OccurredAt:      row.OccurredAt,
		}
		if row.Details != "" {
			if err := json.Unmarshal([]byte(row.Details), &entries[i].Details); err != nil {
				return nil, fmt.Errorf("decode activity details: %w", err)
			}
		}
	}
	return entries, nil
}

var _ apptrade.ActivityRecorder = (*GormActivityLogRepository)(nil)
