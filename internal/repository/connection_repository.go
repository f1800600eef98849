package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
)

type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Create checks the pair and inserts in one transaction. The unique index
// idx_connections_pair decides concurrent inserts that both pass the check.
func (r *ConnectionRepository) Create(ctx context.Context, c *connection.Connection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&connection.Connection{}).
			Where("patient_id = ? AND doctor_id = ?", c.PatientID, c.DoctorID).
			Count(&n).Error
		if err != nil {
			return fmt.Errorf("checking existing connection: %w", err)
		}
		if n > 0 {
			return connection.ErrConnectionExists
		}

		return insertConnection(tx, c)
	})
}

// insertConnection maps a violation of idx_connections_pair to
// ErrConnectionExists.
func insertConnection(tx *gorm.DB, c *connection.Connection) error {
	if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
		if isDuplicate(err) {
			return connection.ErrConnectionExists
		}
		return fmt.Errorf("creating connection: %w", err)
	}
	return nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*connection.Connection, error) {
	var c connection.Connection
	err := r.db.WithContext(ctx).
		Preload("Patient.User").
		Preload("Doctor.User").
		First(&c, "id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, connection.ErrConnectionNotFound
		}
		return nil, fmt.Errorf("fetching connection: %w", err)
	}
	return &c, nil
}

func (r *ConnectionRepository) UpdateStatus(ctx context.Context, c *connection.Connection, from connection.Status) error {
	res := r.db.WithContext(ctx).Model(&connection.Connection{}).
		Where("id = ? AND status = ?", c.ID, from).
		Updates(map[string]any{
			"status":              c.Status,
			"responded_at":        c.RespondedAt,
			"last_interaction_at": c.LastInteractionAt,
		})
	if res.Error != nil {
		return fmt.Errorf("updating connection status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return connection.ErrInvalidTransition
	}
	return nil
}

func (r *ConnectionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&connection.Connection{}).
		Where("id = ?", id).
		Update("last_interaction_at", at)
	if res.Error != nil {
		return fmt.Errorf("touching connection: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return connection.ErrConnectionNotFound
	}
	return nil
}

func (r *ConnectionRepository) List(ctx context.Context, q *connection.ListConnectionsQuery) (*connection.PagedConnections, error) {
	query := r.db.WithContext(ctx).Model(&connection.Connection{})

	if q.PatientID != nil {
		query = query.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		query = query.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting connections: %w", err)
	}

	var conns []*connection.Connection
	err := paginate(query.
		Preload("Patient.User").
		Preload("Doctor.User").
		Order("requested_at DESC"), q.Page).
		Find(&conns).Error
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}

	n := q.Page.Normalize()
	return &connection.PagedConnections{
		Connections: conns,
		TotalCount:  total,
		Page:        n.Page,
		PageSize:    n.PageSize,
		TotalPages:  n.TotalPages(total),
	}, nil
}

var _ connection.Repository = (*ConnectionRepository)(nil)
