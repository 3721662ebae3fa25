// ABOUTME: Repository interface for exist data storage.
// ABOUTME: Defines the contract shared by the SQLite and Charm KV backends.
package storage

import (
	"errors"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
)

var (
	// ErrNotFound is wrapped by lookups that match nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict is wrapped by writes that violate a uniqueness rule.
	ErrConflict = errors.New("already exists")
)

// Repository defines the storage interface for exist data.
type Repository interface {
	// Users
	CreateUser(u *models.User) error
	UpdateUser(u *models.User) error
	GetUser(username string) (*models.User, error)
	ListUsers() ([]*models.User, error)

	// Reference data
	CreateAttributeGroup(g *models.AttributeGroup) error
	GetAttributeGroup(name string) (*models.AttributeGroup, error)
	ListAttributeGroups() ([]*models.AttributeGroup, error)
	CreateAttribute(a *models.Attribute) error
	GetAttribute(name string) (*models.Attribute, error)
	ListAttributes() ([]*models.Attribute, error)
	CreateService(s *models.Service) error
	GetService(slug string) (*models.Service, error)
	ListServices() ([]*models.Service, error)
	CreateProfile(p *models.Profile) error
	ListProfiles(userID uuid.UUID) ([]*models.Profile, error)

	// User attributes. ListUserAttributes returns the aggregation snapshot:
	// each record has its Attribute, Group and Data (newest day first) loaded.
	CreateUserAttribute(ua *models.UserAttribute) error
	UpdateUserAttribute(ua *models.UserAttribute) error
	GetUserAttribute(userID uuid.UUID, attributeName string) (*models.UserAttribute, error)
	ListUserAttributes(userID uuid.UUID) ([]*models.UserAttribute, error)

	// Daily values. Put replaces any value already stored for that day.
	PutUserAttributeData(d *models.UserAttributeData) error
	ListUserAttributeData(userAttributeID uuid.UUID, limit int) ([]*models.UserAttributeData, error)

	// Events and activity logs
	CreateEvent(e *models.Event) error
	ListEvents(userID uuid.UUID, limit int) ([]*models.Event, error)
	CreateUserLog(l *models.UserLog) error
	ListUserLogs(userID uuid.UUID, limit int) ([]*models.UserLog, error)

	// Activity reports
	MostActiveInPeriod(p Period, limit int) ([]*UserActivity, error)
	MostActiveDays(p Period, limit int) ([]*UserActivity, error)
	MostPopularInPeriod(p Period, limit int) ([]*PageActivity, error)
	ViewedDeleteInPeriod(p Period) ([]*DeleteView, error)

	// Export
	GetAllData() (*ExportData, error)
	ImportData(data *ExportData) error

	// Lifecycle
	Close() error
}
