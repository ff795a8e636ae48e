package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ByLCY/eventpass/registration"
)

// registrationModel 是登记记录的表结构；职务列表以 JSON 存储。
type registrationModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Name         string    `gorm:"type:varchar(120);not null"`
	Cluster      string    `gorm:"type:varchar(120);not null"`
	Unit         string    `gorm:"type:varchar(120);not null"`
	Designations []string  `gorm:"serializer:json"`
	PhotoPath    string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

func (registrationModel) TableName() string { return "registrations" }

func toModel(rec *registration.Record) *registrationModel {
	return &registrationModel{
		ID:           rec.ID,
		Name:         rec.Name,
		Cluster:      rec.Cluster,
		Unit:         rec.Unit,
		Designations: rec.Designations,
		PhotoPath:    rec.PhotoPath,
		CreatedAt:    rec.CreatedAt,
	}
}

func (m *registrationModel) toRecord() registration.Record {
	designations := m.Designations
	if designations == nil {
		designations = []string{}
	}
	return registration.Record{
		ID:           m.ID,
		Name:         m.Name,
		Cluster:      m.Cluster,
		Unit:         m.Unit,
		Designations: designations,
		PhotoPath:    m.PhotoPath,
		CreatedAt:    m.CreatedAt,
	}
}

// RegistrationRepository implements registration.Repository with gorm.
type RegistrationRepository struct {
	db *gorm.DB
}

var _ registration.Repository = (*RegistrationRepository)(nil)

// NewRegistrationRepository creates a repository on db.
func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts rec.
func (r *RegistrationRepository) Create(ctx context.Context, rec *registration.Record) error {
	if err := r.db.WithContext(ctx).Create(toModel(rec)).Error; err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// ListAll 返回完整快照，按创建时间升序，时间相同时按 ID 排序，保证导出序号稳定。
func (r *RegistrationRepository) ListAll(ctx context.Context) ([]registration.Record, error) {
	var models []registrationModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	out := make([]registration.Record, len(models))
	for i := range models {
		out[i] = models[i].toRecord()
	}
	return out, nil
}
