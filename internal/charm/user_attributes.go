// ABOUTME: User attribute and daily data operations for Charm KV storage.
// ABOUTME: Data points are keyed by user attribute and day so a rewrite replaces the day.
package charm

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
	"github.com/harperreed/exist/internal/storage"
)

func dataKey(userAttributeID uuid.UUID, day string) string {
	return DataPrefix + userAttributeID.String() + ":" + day
}

func sameService(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (c *Client) userAttributes(userID uuid.UUID) ([]*models.UserAttribute, error) {
	all, err := listAll[models.UserAttribute](c, UserAttributePrefix)
	if err != nil {
		return nil, err
	}
	var records []*models.UserAttribute
	for _, ua := range all {
		if ua.UserID == userID {
			records = append(records, ua)
		}
	}
	return records, nil
}

// CreateUserAttribute subscribes a user to an attribute, once per
// user, attribute and service.
func (c *Client) CreateUserAttribute(ua *models.UserAttribute) error {
	existing, err := c.userAttributes(ua.UserID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.AttributeID == ua.AttributeID && sameService(other.ServiceID, ua.ServiceID) {
			return fmt.Errorf("insert user attribute: %w", storage.ErrConflict)
		}
	}
	return c.insert(UserAttributePrefix+ua.ID.String(), ua)
}

// UpdateUserAttribute saves the active, private and service fields.
func (c *Client) UpdateUserAttribute(ua *models.UserAttribute) error {
	key := UserAttributePrefix + ua.ID.String()
	data, err := c.get(key)
	if err != nil {
		return fmt.Errorf("update user attribute %s: %w", ua.ID, err)
	}
	stored, err := unmarshalJSON[models.UserAttribute](data)
	if err != nil {
		return fmt.Errorf("unmarshal user attribute: %w", err)
	}
	stored.Active = ua.Active
	stored.Private = ua.Private
	stored.ServiceID = ua.ServiceID
	return c.put(key, stored)
}

// GetUserAttribute finds a user's subscription to the named attribute.
// A subscription without a service is preferred over service-bound ones.
func (c *Client) GetUserAttribute(userID uuid.UUID, attributeName string) (*models.UserAttribute, error) {
	attr, err := c.GetAttribute(attributeName)
	if err != nil {
		return nil, err
	}
	records, err := c.userAttributes(userID)
	if err != nil {
		return nil, err
	}

	var match *models.UserAttribute
	for _, ua := range records {
		if ua.AttributeID != attr.ID {
			continue
		}
		if match == nil || preferUserAttribute(ua, match) {
			match = ua
		}
	}
	if match == nil {
		return nil, fmt.Errorf("get user attribute %s: %w", attributeName, storage.ErrNotFound)
	}
	match.Attribute = attr
	return match, nil
}

func preferUserAttribute(a, b *models.UserAttribute) bool {
	if (a.ServiceID == nil) != (b.ServiceID == nil) {
		return a.ServiceID == nil
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// ListUserAttributes returns the user's snapshot ordered by group priority,
// attribute priority and name, with attributes, groups and data loaded.
func (c *Client) ListUserAttributes(userID uuid.UUID) ([]*models.UserAttribute, error) {
	attrs, err := c.ListAttributes()
	if err != nil {
		return nil, err
	}
	attrByID := make(map[uuid.UUID]*models.Attribute, len(attrs))
	for _, a := range attrs {
		attrByID[a.ID] = a
	}

	records, err := c.userAttributes(userID)
	if err != nil {
		return nil, err
	}
	var snapshot []*models.UserAttribute
	byID := make(map[uuid.UUID]*models.UserAttribute, len(records))
	for _, ua := range records {
		a, ok := attrByID[ua.AttributeID]
		if !ok {
			continue
		}
		ua.Attribute = a
		snapshot = append(snapshot, ua)
		byID[ua.ID] = ua
	}

	data, err := listAll[models.UserAttributeData](c, DataPrefix)
	if err != nil {
		return nil, err
	}
	for _, point := range data {
		if ua, ok := byID[point.UserAttributeID]; ok {
			ua.Data = append(ua.Data, point)
		}
	}

	for _, ua := range snapshot {
		sortNewestFirst(ua.Data)
	}
	slices.SortStableFunc(snapshot, func(a, b *models.UserAttribute) int {
		return cmp.Or(compareAttributes(a.Attribute, b.Attribute), a.CreatedAt.Compare(b.CreatedAt))
	})
	return snapshot, nil
}

// PutUserAttributeData stores the value for a day, replacing any value
// already recorded for that day. On replace, point takes the stored ID.
// The parent user attribute must exist.
func (c *Client) PutUserAttributeData(point *models.UserAttributeData) error {
	if _, err := c.get(UserAttributePrefix + point.UserAttributeID.String()); err != nil {
		return fmt.Errorf("put user attribute data: %w", err)
	}
	key := dataKey(point.UserAttributeID, point.Day.Format(models.DayLayout))
	if data, err := c.get(key); err == nil {
		if stored, err := unmarshalJSON[models.UserAttributeData](data); err == nil {
			point.ID = stored.ID
		}
	}
	return c.put(key, point)
}

// ListUserAttributeData returns a series newest day first.
// A limit of 0 returns every day.
func (c *Client) ListUserAttributeData(userAttributeID uuid.UUID, limit int) ([]*models.UserAttributeData, error) {
	data, err := listAll[models.UserAttributeData](c, DataPrefix+userAttributeID.String()+":")
	if err != nil {
		return nil, err
	}
	sortNewestFirst(data)
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}
	return data, nil
}

func sortNewestFirst(data []*models.UserAttributeData) {
	slices.SortFunc(data, func(a, b *models.UserAttributeData) int {
		return b.Day.Compare(a.Day)
	})
}
