// ABOUTME: MCP resource implementations for exist.
// ABOUTME: Provides exist://users and exist://attributes resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/exist/internal/aggregate"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	usersURI      = "exist://users"
	attributesURI = "exist://attributes"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         usersURI,
		Name:        "Users",
		Description: "All users with their tracked attribute count and current score",
		MIMEType:    "application/json",
	}, s.handleUsersResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         attributesURI,
		Name:        "Attributes",
		Description: "Attribute definitions grouped by attribute group",
		MIMEType:    "application/json",
	}, s.handleAttributesResource)
}

type userSummary struct {
	Username string  `json:"username"`
	Tracking int     `json:"tracking"`
	Score    float64 `json:"score"`
}

func (s *Server) handleUsersResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	users, err := s.repo.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	summaries := make([]userSummary, 0, len(users))
	for _, u := range users {
		records, err := s.repo.ListUserAttributes(u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load attributes for %s: %w", u.Username, err)
		}
		agg := aggregate.New(records)
		summaries = append(summaries, userSummary{
			Username: u.Username,
			Tracking: len(agg.Active()),
			Score:    agg.Score(),
		})
	}

	return jsonResource(usersURI, map[string]any{
		"generated_at": time.Now().Format(time.RFC3339),
		"users":        summaries,
	})
}

func (s *Server) handleAttributesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	attrs, err := s.repo.ListAttributes()
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}

	byGroup := make(map[string][]attributeOutput)
	for _, a := range attributeOutputs(attrs) {
		key := a.Group
		if key == "" {
			key = aggregate.UngroupedKey
		}
		byGroup[key] = append(byGroup[key], a)
	}

	return jsonResource(attributesURI, map[string]any{
		"count":  len(attrs),
		"groups": byGroup,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
