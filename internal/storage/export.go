// ABOUTME: Export and import functionality for exist data.
// ABOUTME: Works against any Repository; encodes to JSON or YAML.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/exist/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for exist data.
type ExportData struct {
	Version         string                      `json:"version"`
	ExportedAt      time.Time                   `json:"exported_at"`
	Tool            string                      `json:"tool"`
	Users           []*models.User              `json:"users"`
	AttributeGroups []*models.AttributeGroup    `json:"attribute_groups"`
	Attributes      []*models.Attribute         `json:"attributes"`
	Services        []*models.Service           `json:"services"`
	Profiles        []*models.Profile           `json:"profiles"`
	UserAttributes  []*models.UserAttribute     `json:"user_attributes"`
	Data            []*models.UserAttributeData `json:"data"`
	Events          []*models.Event             `json:"events"`
	Logs            []*models.UserLog           `json:"logs"`
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData() (*ExportData, error) {
	return ExportAll(d)
}

// ImportData imports data from an export file.
func (d *DB) ImportData(data *ExportData) error {
	_, err := ImportAll(d, data)
	return err
}

// ExportAll reads every entity from r.
func ExportAll(r Repository) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "exist",
	}

	var err error
	if data.Users, err = r.ListUsers(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if data.AttributeGroups, err = r.ListAttributeGroups(); err != nil {
		return nil, fmt.Errorf("list attribute groups: %w", err)
	}
	if data.Attributes, err = r.ListAttributes(); err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	if data.Services, err = r.ListServices(); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	for _, u := range data.Users {
		profiles, err := r.ListProfiles(u.ID)
		if err != nil {
			return nil, fmt.Errorf("list profiles for %s: %w", u.Username, err)
		}
		data.Profiles = append(data.Profiles, profiles...)

		records, err := r.ListUserAttributes(u.ID)
		if err != nil {
			return nil, fmt.Errorf("list user attributes for %s: %w", u.Username, err)
		}
		data.UserAttributes = append(data.UserAttributes, records...)
		for _, ua := range records {
			data.Data = append(data.Data, ua.Data...)
		}

		events, err := r.ListEvents(u.ID, 0)
		if err != nil {
			return nil, fmt.Errorf("list events for %s: %w", u.Username, err)
		}
		data.Events = append(data.Events, events...)

		logs, err := r.ListUserLogs(u.ID, 0)
		if err != nil {
			return nil, fmt.Errorf("list logs for %s: %w", u.Username, err)
		}
		data.Logs = append(data.Logs, logs...)
	}

	return data, nil
}

// ImportAll writes every entity in data to r in dependency order and
// returns per-entity counts.
func ImportAll(r Repository, data *ExportData) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	for _, u := range data.Users {
		if err := r.CreateUser(u); err != nil {
			return nil, fmt.Errorf("import user %s: %w", u.Username, err)
		}
		summary.Users++
	}
	for _, g := range data.AttributeGroups {
		if err := r.CreateAttributeGroup(g); err != nil {
			return nil, fmt.Errorf("import attribute group %s: %w", g.Name, err)
		}
		summary.AttributeGroups++
	}
	for _, a := range data.Attributes {
		if err := r.CreateAttribute(a); err != nil {
			return nil, fmt.Errorf("import attribute %s: %w", a.Name, err)
		}
		summary.Attributes++
	}
	for _, s := range data.Services {
		if err := r.CreateService(s); err != nil {
			return nil, fmt.Errorf("import service %s: %w", s.Slug, err)
		}
		summary.Services++
	}
	for _, p := range data.Profiles {
		if err := r.CreateProfile(p); err != nil {
			return nil, fmt.Errorf("import profile %s: %w", p.ID, err)
		}
		summary.Profiles++
	}
	for _, ua := range data.UserAttributes {
		if err := r.CreateUserAttribute(ua); err != nil {
			return nil, fmt.Errorf("import user attribute %s: %w", ua.ID, err)
		}
		summary.UserAttributes++
	}
	for _, point := range data.Data {
		if err := r.PutUserAttributeData(point); err != nil {
			return nil, fmt.Errorf("import data %s: %w", point.ID, err)
		}
		summary.Data++
	}
	for _, e := range data.Events {
		if err := r.CreateEvent(e); err != nil {
			return nil, fmt.Errorf("import event %s: %w", e.ID, err)
		}
		summary.Events++
	}
	for _, l := range data.Logs {
		if err := r.CreateUserLog(l); err != nil {
			return nil, fmt.Errorf("import log %s: %w", l.ID, err)
		}
		summary.Logs++
	}

	return summary, nil
}

// ExportJSON exports all data in r as JSON.
func ExportJSON(r Repository) ([]byte, error) {
	data, err := ExportAll(r)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ParseJSON decodes an export produced by ExportJSON.
func ParseJSON(b []byte) (*ExportData, error) {
	var data ExportData
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	return &data, nil
}

// ExportYAML exports all data in r as YAML, nested per user for reading.
func ExportYAML(r Repository) ([]byte, error) {
	data, err := ExportAll(r)
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]*models.Attribute, len(data.Attributes))
	for _, a := range data.Attributes {
		attrs[a.ID.String()] = a
	}
	services := make(map[string]string, len(data.Services))
	for _, s := range data.Services {
		services[s.ID.String()] = s.Slug
	}

	yamlData := struct {
		Version    string     `yaml:"version"`
		ExportedAt string     `yaml:"exported_at"`
		Tool       string     `yaml:"tool"`
		Users      []yamlUser `yaml:"users"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Users:      make([]yamlUser, 0, len(data.Users)),
	}

	for _, u := range data.Users {
		yu := yamlUser{Username: u.Username, Private: u.Private}
		if u.Email != nil {
			yu.Email = *u.Email
		}
		for _, ua := range data.UserAttributes {
			if ua.UserID != u.ID {
				continue
			}
			yt := yamlTracked{Active: ua.Active, Private: ua.Private}
			if a, ok := attrs[ua.AttributeID.String()]; ok {
				yt.Attribute = a.Name
				yt.Type = a.ValueType.Name()
				if a.Group != nil {
					yt.Group = a.Group.Name
				}
			}
			if ua.ServiceID != nil {
				yt.Service = services[ua.ServiceID.String()]
			}
			for _, point := range ua.Data {
				yt.Values = append(yt.Values, yamlValue{
					Day:   point.Day.Format(models.DayLayout),
					Value: point.Value().Format(),
				})
			}
			yu.Attributes = append(yu.Attributes, yt)
		}
		for _, e := range data.Events {
			if e.UserID != u.ID {
				continue
			}
			ye := yamlEvent{Time: e.Time.Format(time.RFC3339), Value: e.Value}
			if a, ok := attrs[e.AttributeID.String()]; ok {
				ye.Attribute = a.Name
			}
			yu.Events = append(yu.Events, ye)
		}
		yamlData.Users = append(yamlData.Users, yu)
	}

	return yaml.Marshal(yamlData)
}

type yamlUser struct {
	Username   string        `yaml:"username"`
	Email      string        `yaml:"email,omitempty"`
	Private    bool          `yaml:"private"`
	Attributes []yamlTracked `yaml:"attributes,omitempty"`
	Events     []yamlEvent   `yaml:"events,omitempty"`
}

type yamlTracked struct {
	Attribute string      `yaml:"attribute"`
	Type      string      `yaml:"type"`
	Group     string      `yaml:"group,omitempty"`
	Service   string      `yaml:"service,omitempty"`
	Active    bool        `yaml:"active"`
	Private   bool        `yaml:"private"`
	Values    []yamlValue `yaml:"values,omitempty"`
}

type yamlValue struct {
	Day   string `yaml:"day"`
	Value string `yaml:"value"`
}

type yamlEvent struct {
	Attribute string   `yaml:"attribute"`
	Time      string   `yaml:"time"`
	Value     *float64 `yaml:"value,omitempty"`
}
