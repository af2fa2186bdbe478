package casdoor

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"gorm.io/datatypes"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

const pageSize = 100

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// pager is the part of the Casdoor client the directory needs
type pager interface {
	GetPaginationUsers(p int, pageSize int, queryMap map[string]string) ([]*casdoorsdk.User, int, error)
}

// UserCasdoor reads the organization's users from Casdoor
type UserCasdoor struct {
	client pager
	config CasdoorConfig
}

func NewUserCasdoor(config CasdoorConfig) repositories.UserDirectory {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return &UserCasdoor{client: client, config: config}
}

// ListUsers pages through every user of the organization.
func (u *UserCasdoor) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, total, err := u.client.GetPaginationUsers(page, pageSize, map[string]string{})
		if err != nil {
			return nil, fmt.Errorf("failed to get users from Casdoor: %w", err)
		}

		for _, cu := range batch {
			if user := convertCasdoorUser(cu); user != nil {
				users = append(users, user)
			}
		}

		if len(batch) < pageSize || page*pageSize >= total {
			return users, nil
		}
	}
}

// convertCasdoorUser maps a Casdoor account onto a local user keyed by external id
func convertCasdoorUser(cu *casdoorsdk.User) *models.User {
	if cu == nil || cu.Id == "" || cu.IsForbidden || cu.IsDeleted {
		return nil
	}

	name := strings.TrimSpace(cu.DisplayName)
	if name == "" {
		name = cu.Name
	}

	attrs, _ := json.Marshal(map[string]string{
		"owner": cu.Owner,
		"name":  cu.Name,
		"email": cu.Email,
	})

	id := cu.Id
	return &models.User{
		DisplayName: name,
		Role:        mapRole(cu),
		ExternalID:  &id,
		Attributes:  datatypes.JSON(attrs),
	}
}

// mapRole makes Casdoor admins and holders of an admin role local admins
func mapRole(cu *casdoorsdk.User) models.UserRole {
	if cu.IsAdmin {
		return models.RoleAdmin
	}
	names := make([]string, 0, len(cu.Roles))
	for _, role := range cu.Roles {
		if role != nil {
			names = append(names, strings.ToLower(role.Name))
		}
	}
	if slices.Contains(names, "admin") || slices.Contains(names, "administrator") {
		return models.RoleAdmin
	}
	return models.RoleCoder
}
