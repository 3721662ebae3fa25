// ABOUTME: Service and Profile models for external data sources.
// ABOUTME: A Profile records that a user has connected a Service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Service is an external source of attribute values.
type Service struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Slug         string      `json:"slug"`
	Description  *string     `json:"description,omitempty"`
	Provides     *string     `json:"provides,omitempty"`
	Requirements *string     `json:"requirements,omitempty"`
	Settings     bool        `json:"settings"`
	External     bool        `json:"external"`
	AttributeIDs []uuid.UUID `json:"attribute_ids"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewService creates a service with no attributes.
func NewService(slug, name string) *Service {
	return &Service{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now(),
	}
}

// WithDescription sets the service description.
func (s *Service) WithDescription(desc string) *Service {
	s.Description = &desc
	return s
}

// WithAttributes adds attributes to the set the service can supply.
func (s *Service) WithAttributes(attrs ...*Attribute) *Service {
	for _, a := range attrs {
		if !s.Supplies(a.ID) {
			s.AttributeIDs = append(s.AttributeIDs, a.ID)
		}
	}
	return s
}

// Supplies reports whether the service can supply the attribute.
func (s *Service) Supplies(attributeID uuid.UUID) bool {
	for _, id := range s.AttributeIDs {
		if id == attributeID {
			return true
		}
	}
	return false
}

// Profile connects a user to a service.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ServiceID uuid.UUID `json:"service_id"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProfile creates an enabled profile.
func NewProfile(userID, serviceID uuid.UUID) *Profile {
	return &Profile{
		ID:        uuid.New(),
		UserID:    userID,
		ServiceID: serviceID,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
}
