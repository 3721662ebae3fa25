// ABOUTME: User operations for Charm KV storage.
// ABOUTME: Usernames are unique; lookups scan the user: prefix client-side.
package charm

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/harperreed/exist/internal/models"
	"github.com/harperreed/exist/internal/storage"
)

// CreateUser stores a new user.
func (c *Client) CreateUser(u *models.User) error {
	if err := models.ValidateUsername(u.Username); err != nil {
		return err
	}
	if _, err := c.GetUser(u.Username); err == nil {
		return fmt.Errorf("insert user %s: %w", u.Username, storage.ErrConflict)
	}
	return c.insert(UserPrefix+u.ID.String(), u)
}

// UpdateUser overwrites an existing user.
func (c *Client) UpdateUser(u *models.User) error {
	exists, err := c.exists(UserPrefix + u.ID.String())
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("update user %s: %w", u.Username, storage.ErrNotFound)
	}
	return c.put(UserPrefix+u.ID.String(), u)
}

// GetUser retrieves a user by username.
func (c *Client) GetUser(username string) (*models.User, error) {
	return findOne(c, UserPrefix, "user", username, func(u *models.User) bool {
		return u.Username == username
	})
}

// ListUsers returns all users ordered by username.
func (c *Client) ListUsers() ([]*models.User, error) {
	users, err := listAll[models.User](c, UserPrefix)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b *models.User) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return users, nil
}
