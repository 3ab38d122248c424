package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowstate-backend/internal/connection/domain"
)

type ConnectionRepository interface {
	Create(conn *domain.Connection) error
	Update(conn *domain.Connection) error
	FindByID(id string) (*domain.Connection, error)
	FindByUserAndPlatform(userID string, platform domain.Platform) (*domain.Connection, error)
	FindByUser(userID string) ([]*domain.Connection, error)
	FindActiveByPlatform(platform domain.Platform) ([]*domain.Connection, error)
	Delete(id string) error
}

type connectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Create(conn *domain.Connection) error {
	if conn.ID == "" {
		conn.ID = uuid.New().String()
	}
	return r.db.Create(conn).Error
}

func (r *connectionRepository) Update(conn *domain.Connection) error {
	return r.db.Save(conn).Error
}

func (r *connectionRepository) FindByID(id string) (*domain.Connection, error) {
	var conn domain.Connection
	if err := r.db.Where("id = ?", id).First(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) FindByUserAndPlatform(userID string, platform domain.Platform) (*domain.Connection, error) {
	var conn domain.Connection
	if err := r.db.Where("user_id = ? AND platform = ?", userID, platform).First(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) FindByUser(userID string) ([]*domain.Connection, error) {
	var conns []*domain.Connection
	if err := r.db.Where("user_id = ?", userID).Order("platform asc").Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

// FindActiveByPlatform returns every connection a platform sweep should
// visit. Expired connections are included so the sweep can attempt a refresh.
func (r *connectionRepository) FindActiveByPlatform(platform domain.Platform) ([]*domain.Connection, error) {
	var conns []*domain.Connection
	err := r.db.
		Where("platform = ? AND status IN ?", platform, []domain.ConnectionStatus{domain.StatusActive, domain.StatusExpired}).
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *connectionRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.Connection{}).Error
}
