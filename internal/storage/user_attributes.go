// ABOUTME: User attribute and daily data operations for SQLite storage.
// ABOUTME: Loads the per-user snapshot consumed by the aggregator.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
)

const userAttributeColumns = `ua.id, ua.user_id, ua.attribute_id, ua.service_id, ua.active, ua.private, ua.created_at`

// CreateUserAttribute subscribes a user to an attribute.
func (d *DB) CreateUserAttribute(ua *models.UserAttribute) error {
	_, err := d.db.Exec(`
		INSERT INTO user_attributes (id, user_id, attribute_id, service_id, active, private, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ua.ID.String(), ua.UserID.String(), ua.AttributeID.String(), nullUUID(ua.ServiceID),
		ua.Active, ua.Private, formatTime(ua.CreatedAt),
	)
	return writeErr("insert user attribute", err)
}

// UpdateUserAttribute saves the active, private and service fields.
func (d *DB) UpdateUserAttribute(ua *models.UserAttribute) error {
	result, err := d.db.Exec(`
		UPDATE user_attributes SET service_id = ?, active = ?, private = ?
		WHERE id = ?`,
		nullUUID(ua.ServiceID), ua.Active, ua.Private, ua.ID.String(),
	)
	if err != nil {
		return writeErr("update user attribute", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update user attribute %s: %w", ua.ID, ErrNotFound)
	}
	return nil
}

// GetUserAttribute finds a user's subscription to the named attribute.
// A subscription without a service is preferred over service-bound ones.
func (d *DB) GetUserAttribute(userID uuid.UUID, attributeName string) (*models.UserAttribute, error) {
	row := d.db.QueryRow(`
		SELECT `+userAttributeColumns+`
		FROM user_attributes ua
		JOIN attributes a ON ua.attribute_id = a.id
		WHERE ua.user_id = ? AND a.name = ?
		ORDER BY ua.service_id IS NOT NULL, ua.created_at
		LIMIT 1`, userID.String(), attributeName)
	ua, err := scanUserAttribute(row)
	if err != nil {
		return nil, readErr("get user attribute", attributeName, err)
	}

	ua.Attribute, err = d.GetAttribute(attributeName)
	if err != nil {
		return nil, err
	}
	return ua, nil
}

// ListUserAttributes returns the user's snapshot ordered by group priority,
// attribute priority and name, with attributes, groups and data loaded.
func (d *DB) ListUserAttributes(userID uuid.UUID) ([]*models.UserAttribute, error) {
	attrs, err := d.ListAttributes()
	if err != nil {
		return nil, err
	}
	attrByID := make(map[uuid.UUID]*models.Attribute, len(attrs))
	for _, a := range attrs {
		attrByID[a.ID] = a
	}

	rows, err := d.db.Query(`
		SELECT `+userAttributeColumns+`
		FROM user_attributes ua
		JOIN attributes a ON ua.attribute_id = a.id
		LEFT JOIN attribute_groups g ON a.group_id = g.id
		WHERE ua.user_id = ?
		ORDER BY g.priority, a.priority, a.name, ua.created_at`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("query user attributes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.UserAttribute
	byID := make(map[uuid.UUID]*models.UserAttribute)
	for rows.Next() {
		ua, err := scanUserAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user attribute: %w", err)
		}
		ua.Attribute = attrByID[ua.AttributeID]
		records = append(records, ua)
		byID[ua.ID] = ua
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	data, err := d.queryData(`
		SELECT ud.id, ud.user_attribute_id, ud.day, ud.value_type,
			ud.int_value, ud.float_value, ud.string_value, ud.created_at
		FROM user_attribute_data ud
		JOIN user_attributes ua ON ud.user_attribute_id = ua.id
		WHERE ua.user_id = ?
		ORDER BY ud.day DESC`, userID.String())
	if err != nil {
		return nil, err
	}
	for _, point := range data {
		if ua, ok := byID[point.UserAttributeID]; ok {
			ua.Data = append(ua.Data, point)
		}
	}
	return records, nil
}

func scanUserAttribute(s rowScanner) (*models.UserAttribute, error) {
	var ua models.UserAttribute
	var id, userID, attributeID, createdAt string
	var serviceID sql.NullString

	err := s.Scan(&id, &userID, &attributeID, &serviceID, &ua.Active, &ua.Private, &createdAt)
	if err != nil {
		return nil, err
	}
	if ua.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse user attribute id: %w", err)
	}
	if ua.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if ua.AttributeID, err = uuid.Parse(attributeID); err != nil {
		return nil, fmt.Errorf("parse attribute id: %w", err)
	}
	if serviceID.Valid {
		sid, err := uuid.Parse(serviceID.String)
		if err != nil {
			return nil, fmt.Errorf("parse service id: %w", err)
		}
		ua.ServiceID = &sid
	}
	ua.CreatedAt = parseTime(createdAt)
	return &ua, nil
}

// PutUserAttributeData stores the value for a day, replacing any value
// already recorded for that day. On replace, d takes the stored row's ID.
func (d *DB) PutUserAttributeData(point *models.UserAttributeData) error {
	intValue, floatValue, stringValue := point.Columns()
	day := point.Day.Format(models.DayLayout)

	_, err := d.db.Exec(`
		INSERT INTO user_attribute_data
			(id, user_attribute_id, day, value_type, int_value, float_value, string_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_attribute_id, day) DO UPDATE SET
			value_type = excluded.value_type,
			int_value = excluded.int_value,
			float_value = excluded.float_value,
			string_value = excluded.string_value,
			created_at = excluded.created_at`,
		point.ID.String(), point.UserAttributeID.String(), day, int(point.ValueType()),
		intValue, floatValue, stringValue, formatTime(point.CreatedAt),
	)
	if err != nil {
		return writeErr("put user attribute data", err)
	}

	var id string
	err = d.db.QueryRow(`SELECT id FROM user_attribute_data WHERE user_attribute_id = ? AND day = ?`,
		point.UserAttributeID.String(), day).Scan(&id)
	if err != nil {
		return fmt.Errorf("read back user attribute data: %w", err)
	}
	point.ID, err = uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("parse data id: %w", err)
	}
	return nil
}

// ListUserAttributeData returns a series newest day first.
// A limit of 0 returns every day.
func (d *DB) ListUserAttributeData(userAttributeID uuid.UUID, limit int) ([]*models.UserAttributeData, error) {
	query := `
		SELECT id, user_attribute_id, day, value_type, int_value, float_value, string_value, created_at
		FROM user_attribute_data
		WHERE user_attribute_id = ?
		ORDER BY day DESC`
	args := []any{userAttributeID.String()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return d.queryData(query, args...)
}

func (d *DB) queryData(query string, args ...any) ([]*models.UserAttributeData, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query user attribute data: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var data []*models.UserAttributeData
	for rows.Next() {
		var id, uaID, day, createdAt string
		var valueType int
		var intValue sql.NullInt64
		var floatValue sql.NullFloat64
		var stringValue sql.NullString

		if err := rows.Scan(&id, &uaID, &day, &valueType, &intValue, &floatValue, &stringValue, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user attribute data: %w", err)
		}

		parsedDay, err := time.Parse(models.DayLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", day, err)
		}
		var i *int64
		if intValue.Valid {
			i = &intValue.Int64
		}
		var f *float64
		if floatValue.Valid {
			f = &floatValue.Float64
		}

		pointID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse data id: %w", err)
		}
		parentID, err := uuid.Parse(uaID)
		if err != nil {
			return nil, fmt.Errorf("parse user attribute id: %w", err)
		}
		point, err := models.RestoreUserAttributeData(pointID, parentID,
			parsedDay, parseTime(createdAt), models.ValueType(valueType), i, f, stringPtr(stringValue))
		if err != nil {
			return nil, fmt.Errorf("restore user attribute data: %w", err)
		}
		data = append(data, point)
	}
	return data, rows.Err()
}
