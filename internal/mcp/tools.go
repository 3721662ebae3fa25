// ABOUTME: MCP tool implementations for exist.
// ABOUTME: Lists users and attributes, renders dashboards, records values and logs activity.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/exist/internal/aggregate"
	"github.com/harperreed/exist/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_users",
		Description: "List all users",
	}, s.handleListUsers)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_attributes",
		Description: "List attribute definitions with their groups and value types",
	}, s.handleListAttributes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Get a user's attributes grouped for display, with current values and score",
	}, s.handleGetDashboard)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_value",
		Description: "Record a user's value for an attribute on a day (replaces that day's value)",
	}, s.handleRecordValue)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "set_tracking",
		Description: "Start or stop tracking an attribute for a user, or change its privacy",
	}, s.handleSetTracking)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_activity",
		Description: "Record a page action in a user's activity log",
	}, s.handleLogActivity)
}

// Input types

type usernameInput struct {
	Username string `json:"username" jsonschema:"Username"`
}

type dashboardInput struct {
	Username        string `json:"username" jsonschema:"Username"`
	IncludeInactive bool   `json:"include_inactive,omitempty" jsonschema:"Include attributes that are no longer tracked"`
}

type recordValueInput struct {
	Username  string `json:"username" jsonschema:"Username"`
	Attribute string `json:"attribute" jsonschema:"Attribute name (e.g. sleep)"`
	Value     string `json:"value" jsonschema:"Value as text: minutes or 7h30m for periods, HH:MM for times of day"`
	Day       string `json:"day,omitempty" jsonschema:"Day as YYYY-MM-DD (default today)"`
}

type setTrackingInput struct {
	Username  string `json:"username" jsonschema:"Username"`
	Attribute string `json:"attribute" jsonschema:"Attribute name"`
	Active    *bool  `json:"active,omitempty" jsonschema:"Track (true) or stop tracking (false)"`
	Private   *bool  `json:"private,omitempty" jsonschema:"Hide (true) or show (false) the attribute publicly"`
}

type logActivityInput struct {
	Username string `json:"username" jsonschema:"Username"`
	Page     string `json:"page" jsonschema:"Page name (e.g. dashboard)"`
	Action   string `json:"action" jsonschema:"Action taken (e.g. view)"`
	Args     string `json:"args,omitempty" jsonschema:"Optional action arguments"`
}

// Output types

type userOutput struct {
	Username string `json:"username"`
	Private  bool   `json:"private"`
	Active   bool   `json:"active"`
}

type usersOutput struct {
	Users []userOutput `json:"users"`
}

type attributeOutput struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Group     string `json:"group,omitempty"`
	Priority  int    `json:"priority"`
	ValueType string `json:"value_type"`
}

type attributesOutput struct {
	Attributes []attributeOutput `json:"attributes"`
}

type groupOutput struct {
	Name       string                    `json:"name"`
	Label      string                    `json:"label"`
	Priority   int                       `json:"priority"`
	Attributes []aggregate.AttributeView `json:"attributes"`
}

type dashboardOutput struct {
	Username string        `json:"username"`
	Score    float64       `json:"score"`
	Groups   []groupOutput `json:"groups"`
}

type recordOutput struct {
	Attribute string `json:"attribute"`
	Day       string `json:"day"`
	Value     any    `json:"value"`
	Formatted string `json:"formatted"`
	Message   string `json:"message"`
}

type trackingOutput struct {
	Attribute string `json:"attribute"`
	Active    bool   `json:"active"`
	Private   bool   `json:"private"`
	Message   string `json:"message"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) handleListUsers(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, usersOutput, error) {
	users, err := s.repo.ListUsers()
	if err != nil {
		return nil, usersOutput{}, fmt.Errorf("failed to list users: %w", err)
	}

	out := usersOutput{Users: make([]userOutput, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, userOutput{Username: u.Username, Private: u.Private, Active: u.IsActive})
	}
	return nil, out, nil
}

func (s *Server) handleListAttributes(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, attributesOutput, error) {
	attrs, err := s.repo.ListAttributes()
	if err != nil {
		return nil, attributesOutput{}, fmt.Errorf("failed to list attributes: %w", err)
	}
	return nil, attributesOutput{Attributes: attributeOutputs(attrs)}, nil
}

func (s *Server) handleGetDashboard(ctx context.Context, req *mcp.CallToolRequest, input dashboardInput) (*mcp.CallToolResult, dashboardOutput, error) {
	user, err := s.repo.GetUser(input.Username)
	if err != nil {
		return nil, dashboardOutput{}, fmt.Errorf("user not found: %s", input.Username)
	}
	records, err := s.repo.ListUserAttributes(user.ID)
	if err != nil {
		return nil, dashboardOutput{}, fmt.Errorf("failed to load attributes: %w", err)
	}

	agg := aggregate.New(records)
	out := dashboardOutput{
		Username: user.Username,
		Score:    agg.Score(),
		Groups:   []groupOutput{},
	}
	for _, g := range agg.ByGroup(input.IncludeInactive).Groups() {
		out.Groups = append(out.Groups, groupOutput{
			Name:       g.Name,
			Label:      g.Label,
			Priority:   g.Priority,
			Attributes: aggregate.Views(g.Attributes),
		})
	}
	return nil, out, nil
}

func (s *Server) handleRecordValue(ctx context.Context, req *mcp.CallToolRequest, input recordValueInput) (*mcp.CallToolResult, recordOutput, error) {
	user, err := s.repo.GetUser(input.Username)
	if err != nil {
		return nil, recordOutput{}, fmt.Errorf("user not found: %s", input.Username)
	}
	ua, err := s.repo.GetUserAttribute(user.ID, input.Attribute)
	if err != nil {
		return nil, recordOutput{}, fmt.Errorf("%s is not tracking %s", input.Username, input.Attribute)
	}

	day := time.Now()
	if input.Day != "" {
		day, err = time.Parse(models.DayLayout, input.Day)
		if err != nil {
			return nil, recordOutput{}, fmt.Errorf("invalid day %q (use YYYY-MM-DD)", input.Day)
		}
	}

	v, err := models.ParseValue(ua.ValueType(), input.Value)
	if err != nil {
		return nil, recordOutput{}, err
	}

	d := models.NewUserAttributeData(ua, day)
	if err := d.SetValue(v.Interface()); err != nil {
		return nil, recordOutput{}, err
	}
	if err := s.repo.PutUserAttributeData(d); err != nil {
		return nil, recordOutput{}, fmt.Errorf("failed to record value: %w", err)
	}

	s.logger.Debug("recorded value", "user", user.Username, "attribute", ua.Name(), "day", d.Day.Format(models.DayLayout))

	stored := d.Value()
	return nil, recordOutput{
		Attribute: ua.Name(),
		Day:       d.Day.Format(models.DayLayout),
		Value:     stored.Interface(),
		Formatted: stored.Format(),
		Message:   fmt.Sprintf("Recorded %s = %s for %s", ua.Label(), stored.Format(), d.Day.Format(models.DayLayout)),
	}, nil
}

func (s *Server) handleSetTracking(ctx context.Context, req *mcp.CallToolRequest, input setTrackingInput) (*mcp.CallToolResult, trackingOutput, error) {
	if input.Active == nil && input.Private == nil {
		return nil, trackingOutput{}, fmt.Errorf("set active, private, or both")
	}

	user, err := s.repo.GetUser(input.Username)
	if err != nil {
		return nil, trackingOutput{}, fmt.Errorf("user not found: %s", input.Username)
	}
	attr, err := s.repo.GetAttribute(input.Attribute)
	if err != nil {
		return nil, trackingOutput{}, fmt.Errorf("attribute not found: %s", input.Attribute)
	}

	ua, err := s.repo.GetUserAttribute(user.ID, attr.Name)
	created := false
	if err != nil {
		if input.Active != nil && !*input.Active {
			return nil, trackingOutput{}, fmt.Errorf("%s is not tracking %s", input.Username, input.Attribute)
		}
		ua = models.NewUserAttribute(user.ID, attr)
		created = true
	}

	if input.Active != nil {
		ua.Active = *input.Active
	}
	if input.Private != nil {
		ua.Private = *input.Private
	}

	if created {
		err = s.repo.CreateUserAttribute(ua)
	} else {
		err = s.repo.UpdateUserAttribute(ua)
	}
	if err != nil {
		return nil, trackingOutput{}, fmt.Errorf("failed to save tracking: %w", err)
	}

	state := "tracking"
	if !ua.Active {
		state = "not tracking"
	}
	if ua.Private {
		state += " (private)"
	}
	return nil, trackingOutput{
		Attribute: attr.Name,
		Active:    ua.Active,
		Private:   ua.Private,
		Message:   fmt.Sprintf("%s is %s %s", user.Username, state, attr.Label),
	}, nil
}

func (s *Server) handleLogActivity(ctx context.Context, req *mcp.CallToolRequest, input logActivityInput) (*mcp.CallToolResult, simpleOutput, error) {
	user, err := s.repo.GetUser(input.Username)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("user not found: %s", input.Username)
	}

	l := models.NewUserLog(user.ID, input.Page, input.Action)
	if input.Args != "" {
		l.WithArgs(input.Args)
	}
	if err := s.repo.CreateUserLog(l); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to log activity: %w", err)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Logged %s %s for %s", input.Action, input.Page, user.Username),
	}, nil
}

func attributeOutputs(attrs []*models.Attribute) []attributeOutput {
	out := make([]attributeOutput, 0, len(attrs))
	for _, a := range attrs {
		o := attributeOutput{
			Name:      a.Name,
			Label:     a.Label,
			Priority:  a.Priority,
			ValueType: a.ValueType.Name(),
		}
		if a.Group != nil {
			o.Group = a.Group.Name
		}
		out = append(out, o)
	}
	return out
}
