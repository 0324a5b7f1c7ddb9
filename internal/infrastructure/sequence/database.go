package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/receiving/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DatabaseGenerator issues display IDs from the display_id_sequences table.
// Each call is a single upsert, so concurrent callers and restarted processes
// keep counting from the stored value.
type DatabaseGenerator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseGenerator creates a generator over db
func NewDatabaseGenerator(db *gorm.DB) *DatabaseGenerator {
	return &DatabaseGenerator{db: db, now: time.Now}
}

// NextDisplayID implements trade.DisplayIDGenerator. It runs outside any
// caller transaction; a number consumed by a failed create leaves a gap.
func (g *DatabaseGenerator) NextDisplayID(ctx context.Context, tenantID uuid.UUID, entityType string) (string, error) {
	now := g.now().UTC()
	year := now.Year()
	if _, ok := prefixes[entityType]; !ok {
		return format(entityType, year, 0)
	}

	counter := models.DisplayIDSequenceModel{
		TenantID:   tenantID,
		EntityType: entityType,
		Year:       year,
		CurrentVal: 1,
		UpdatedAt:  now,
	}
	err := g.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "entity_type"}, {Name: "year"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"current_val": gorm.Expr("display_id_sequences.current_val + 1"),
				"updated_at":  now,
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "current_val"}}},
	).Create(&counter).Error
	if err != nil {
		return "", fmt.Errorf("next %s sequence: %w", entityType, err)
	}
	return format(entityType, year, counter.CurrentVal)
}
