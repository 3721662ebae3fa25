// ABOUTME: Reference data operations for Charm KV storage.
// ABOUTME: Attribute groups, attributes, services and user profiles.
package charm

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
	"github.com/harperreed/exist/internal/storage"
)

// CreateAttributeGroup stores a new group; names are unique.
func (c *Client) CreateAttributeGroup(g *models.AttributeGroup) error {
	if _, err := c.GetAttributeGroup(g.Name); err == nil {
		return fmt.Errorf("insert attribute group %s: %w", g.Name, storage.ErrConflict)
	}
	return c.insert(GroupPrefix+g.ID.String(), g)
}

// GetAttributeGroup retrieves a group by name.
func (c *Client) GetAttributeGroup(name string) (*models.AttributeGroup, error) {
	return findOne(c, GroupPrefix, "attribute group", name, func(g *models.AttributeGroup) bool {
		return g.Name == name
	})
}

// ListAttributeGroups returns all groups ordered by priority then name.
func (c *Client) ListAttributeGroups() ([]*models.AttributeGroup, error) {
	groups, err := listAll[models.AttributeGroup](c, GroupPrefix)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(groups, func(a, b *models.AttributeGroup) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.Name, b.Name))
	})
	return groups, nil
}

// CreateAttribute stores a new attribute; names are unique.
func (c *Client) CreateAttribute(a *models.Attribute) error {
	if !a.ValueType.Valid() {
		return fmt.Errorf("insert attribute: %w: %d", models.ErrInvalidValueType, int(a.ValueType))
	}
	if _, err := c.GetAttribute(a.Name); err == nil {
		return fmt.Errorf("insert attribute %s: %w", a.Name, storage.ErrConflict)
	}
	return c.insert(AttributePrefix+a.ID.String(), a)
}

// GetAttribute retrieves an attribute by name with its group resolved.
func (c *Client) GetAttribute(name string) (*models.Attribute, error) {
	attrs, err := c.ListAttributes()
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("get attribute %s: %w", name, storage.ErrNotFound)
}

// ListAttributes returns all attributes with groups resolved, ordered by
// group priority, attribute priority, then name. Ungrouped attributes sort first.
func (c *Client) ListAttributes() ([]*models.Attribute, error) {
	groups, err := c.ListAttributeGroups()
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.AttributeGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	attrs, err := listAll[models.Attribute](c, AttributePrefix)
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		if a.GroupID != nil {
			a.Group = byID[*a.GroupID]
		}
	}
	slices.SortFunc(attrs, compareAttributes)
	return attrs, nil
}

func compareAttributes(a, b *models.Attribute) int {
	return cmp.Or(
		compareGroups(a.Group, b.Group),
		cmp.Compare(a.Priority, b.Priority),
		cmp.Compare(a.Name, b.Name),
	)
}

// compareGroups orders nil first, then by priority.
func compareGroups(a, b *models.AttributeGroup) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(a.Priority, b.Priority)
	}
}

// CreateService stores a new service; slugs are unique.
func (c *Client) CreateService(s *models.Service) error {
	if _, err := c.GetService(s.Slug); err == nil {
		return fmt.Errorf("insert service %s: %w", s.Slug, storage.ErrConflict)
	}
	return c.insert(ServicePrefix+s.ID.String(), s)
}

// GetService retrieves a service by slug.
func (c *Client) GetService(slug string) (*models.Service, error) {
	return findOne(c, ServicePrefix, "service", slug, func(s *models.Service) bool {
		return s.Slug == slug
	})
}

// ListServices returns all services ordered by name.
func (c *Client) ListServices() ([]*models.Service, error) {
	services, err := listAll[models.Service](c, ServicePrefix)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(services, func(a, b *models.Service) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return services, nil
}

// CreateProfile connects a user to a service, once per pair.
func (c *Client) CreateProfile(p *models.Profile) error {
	profiles, err := c.ListProfiles(p.UserID)
	if err != nil {
		return err
	}
	for _, existing := range profiles {
		if existing.ServiceID == p.ServiceID {
			return fmt.Errorf("insert profile: %w", storage.ErrConflict)
		}
	}
	return c.insert(ProfilePrefix+p.ID.String(), p)
}

// ListProfiles returns a user's service connections, oldest first.
func (c *Client) ListProfiles(userID uuid.UUID) ([]*models.Profile, error) {
	all, err := listAll[models.Profile](c, ProfilePrefix)
	if err != nil {
		return nil, err
	}
	var profiles []*models.Profile
	for _, p := range all {
		if p.UserID == userID {
			profiles = append(profiles, p)
		}
	}
	slices.SortFunc(profiles, func(a, b *models.Profile) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return profiles, nil
}
