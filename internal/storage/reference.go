// ABOUTME: Reference data operations for SQLite storage.
// ABOUTME: Attribute groups, attributes, services and the profiles connecting users to services.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
)

// CreateAttributeGroup inserts a new attribute group.
func (d *DB) CreateAttributeGroup(g *models.AttributeGroup) error {
	_, err := d.db.Exec(`
		INSERT INTO attribute_groups (id, name, label, priority, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID.String(), g.Name, g.Label, g.Priority, formatTime(g.CreatedAt),
	)
	return writeErr("insert attribute group", err)
}

// GetAttributeGroup retrieves a group by name.
func (d *DB) GetAttributeGroup(name string) (*models.AttributeGroup, error) {
	row := d.db.QueryRow(`
		SELECT id, name, label, priority, created_at
		FROM attribute_groups WHERE name = ?`, name)
	g, err := scanGroup(row)
	if err != nil {
		return nil, readErr("get attribute group", name, err)
	}
	return g, nil
}

// ListAttributeGroups returns all groups ordered by priority then name.
func (d *DB) ListAttributeGroups() ([]*models.AttributeGroup, error) {
	rows, err := d.db.Query(`
		SELECT id, name, label, priority, created_at
		FROM attribute_groups ORDER BY priority, name`)
	if err != nil {
		return nil, fmt.Errorf("query attribute groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []*models.AttributeGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attribute group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func scanGroup(s rowScanner) (*models.AttributeGroup, error) {
	var g models.AttributeGroup
	var id, createdAt string
	if err := s.Scan(&id, &g.Name, &g.Label, &g.Priority, &createdAt); err != nil {
		return nil, err
	}
	var err error
	g.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse group id: %w", err)
	}
	g.CreatedAt = parseTime(createdAt)
	return &g, nil
}

const attributeColumns = `id, name, label, priority, value_type, group_id, private_default,
	correlation_offset, correlation_positive, correlation_negative, correlation_priority, created_at`

// CreateAttribute inserts a new attribute.
func (d *DB) CreateAttribute(a *models.Attribute) error {
	if !a.ValueType.Valid() {
		return fmt.Errorf("insert attribute: %w: %d", models.ErrInvalidValueType, int(a.ValueType))
	}
	_, err := d.db.Exec(`
		INSERT INTO attributes (`+attributeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Name, a.Label, a.Priority, int(a.ValueType), nullUUID(a.GroupID),
		a.PrivateDefault, a.CorrelationOffset, a.CorrelationPositive, a.CorrelationNegative,
		a.CorrelationPriority, formatTime(a.CreatedAt),
	)
	return writeErr("insert attribute", err)
}

// GetAttribute retrieves an attribute by name with its group resolved.
func (d *DB) GetAttribute(name string) (*models.Attribute, error) {
	row := d.db.QueryRow(`SELECT `+attributeColumns+` FROM attributes WHERE name = ?`, name)
	a, err := scanAttribute(row)
	if err != nil {
		return nil, readErr("get attribute", name, err)
	}
	if a.GroupID != nil {
		groups, err := d.groupsByID()
		if err != nil {
			return nil, err
		}
		a.Group = groups[*a.GroupID]
	}
	return a, nil
}

// ListAttributes returns all attributes with groups resolved, ordered by
// group priority, attribute priority, then name.
func (d *DB) ListAttributes() ([]*models.Attribute, error) {
	groups, err := d.groupsByID()
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(`
		SELECT a.id, a.name, a.label, a.priority, a.value_type, a.group_id, a.private_default,
			a.correlation_offset, a.correlation_positive, a.correlation_negative,
			a.correlation_priority, a.created_at
		FROM attributes a
		LEFT JOIN attribute_groups g ON a.group_id = g.id
		ORDER BY g.priority, a.priority, a.name`)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attrs []*models.Attribute
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		if a.GroupID != nil {
			a.Group = groups[*a.GroupID]
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// groupsByID loads every group so attributes can share one instance per group.
func (d *DB) groupsByID() (map[uuid.UUID]*models.AttributeGroup, error) {
	groups, err := d.ListAttributeGroups()
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.AttributeGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	return byID, nil
}

func scanAttribute(s rowScanner) (*models.Attribute, error) {
	var a models.Attribute
	var id, createdAt string
	var valueType int
	var groupID, positive, negative sql.NullString

	err := s.Scan(&id, &a.Name, &a.Label, &a.Priority, &valueType, &groupID, &a.PrivateDefault,
		&a.CorrelationOffset, &positive, &negative, &a.CorrelationPriority, &createdAt)
	if err != nil {
		return nil, err
	}

	a.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse attribute id: %w", err)
	}
	if groupID.Valid {
		gid, err := uuid.Parse(groupID.String)
		if err != nil {
			return nil, fmt.Errorf("parse group id: %w", err)
		}
		a.GroupID = &gid
	}
	a.ValueType = models.ValueType(valueType)
	a.CorrelationPositive = stringPtr(positive)
	a.CorrelationNegative = stringPtr(negative)
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

const serviceColumns = `id, name, slug, description, provides, requirements, settings, external, created_at`

// CreateService inserts a service and the attributes it supplies.
func (d *DB) CreateService(s *models.Service) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO services (`+serviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.Name, s.Slug, s.Description, s.Provides, s.Requirements,
		s.Settings, s.External, formatTime(s.CreatedAt),
	)
	if err != nil {
		return writeErr("insert service", err)
	}

	for _, attrID := range s.AttributeIDs {
		_, err = tx.Exec(`INSERT INTO service_attributes (service_id, attribute_id) VALUES (?, ?)`,
			s.ID.String(), attrID.String())
		if err != nil {
			return writeErr("insert service attribute", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit service: %w", err)
	}
	return nil
}

// GetService retrieves a service by slug.
func (d *DB) GetService(slug string) (*models.Service, error) {
	row := d.db.QueryRow(`SELECT `+serviceColumns+` FROM services WHERE slug = ?`, slug)
	s, err := scanService(row)
	if err != nil {
		return nil, readErr("get service", slug, err)
	}
	supplied, err := d.serviceAttributes()
	if err != nil {
		return nil, err
	}
	s.AttributeIDs = supplied[s.ID]
	return s, nil
}

// ListServices returns all services ordered by name.
func (d *DB) ListServices() ([]*models.Service, error) {
	supplied, err := d.serviceAttributes()
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(`SELECT ` + serviceColumns + ` FROM services ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var services []*models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		s.AttributeIDs = supplied[s.ID]
		services = append(services, s)
	}
	return services, rows.Err()
}

func (d *DB) serviceAttributes() (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := d.db.Query(`
		SELECT sa.service_id, sa.attribute_id
		FROM service_attributes sa
		JOIN attributes a ON sa.attribute_id = a.id
		ORDER BY a.name`)
	if err != nil {
		return nil, fmt.Errorf("query service attributes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	supplied := make(map[uuid.UUID][]uuid.UUID)
	for rows.Next() {
		var serviceID, attributeID string
		if err := rows.Scan(&serviceID, &attributeID); err != nil {
			return nil, fmt.Errorf("scan service attribute: %w", err)
		}
		sid, err := uuid.Parse(serviceID)
		if err != nil {
			return nil, fmt.Errorf("parse service id: %w", err)
		}
		aid, err := uuid.Parse(attributeID)
		if err != nil {
			return nil, fmt.Errorf("parse attribute id: %w", err)
		}
		supplied[sid] = append(supplied[sid], aid)
	}
	return supplied, rows.Err()
}

func scanService(s rowScanner) (*models.Service, error) {
	var svc models.Service
	var id, createdAt string
	var description, provides, requirements sql.NullString

	err := s.Scan(&id, &svc.Name, &svc.Slug, &description, &provides, &requirements,
		&svc.Settings, &svc.External, &createdAt)
	if err != nil {
		return nil, err
	}
	svc.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse service id: %w", err)
	}
	svc.Description = stringPtr(description)
	svc.Provides = stringPtr(provides)
	svc.Requirements = stringPtr(requirements)
	svc.CreatedAt = parseTime(createdAt)
	return &svc, nil
}

// CreateProfile connects a user to a service.
func (d *DB) CreateProfile(p *models.Profile) error {
	_, err := d.db.Exec(`
		INSERT INTO profiles (id, user_id, service_id, enabled, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID.String(), p.UserID.String(), p.ServiceID.String(), p.Enabled, formatTime(p.CreatedAt),
	)
	return writeErr("insert profile", err)
}

// ListProfiles returns a user's service connections.
func (d *DB) ListProfiles(userID uuid.UUID) ([]*models.Profile, error) {
	rows, err := d.db.Query(`
		SELECT id, user_id, service_id, enabled, created_at
		FROM profiles WHERE user_id = ? ORDER BY created_at`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []*models.Profile
	for rows.Next() {
		var p models.Profile
		var id, uid, sid, createdAt string
		if err := rows.Scan(&id, &uid, &sid, &p.Enabled, &createdAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		var err error
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse profile id: %w", err)
		}
		if p.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if p.ServiceID, err = uuid.Parse(sid); err != nil {
			return nil, fmt.Errorf("parse service id: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}
