package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelab/annotation-service/internal/models"
)

type fakePager struct {
	users []*casdoorsdk.User
	calls int
	err   error
}

func (f *fakePager) GetPaginationUsers(p int, size int, _ map[string]string) ([]*casdoorsdk.User, int, error) {
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	start := (p - 1) * size
	if start >= len(f.users) {
		return nil, len(f.users), nil
	}
	end := min(start+size, len(f.users))
	return f.users[start:end], len(f.users), nil
}

func TestListUsers_Pages(t *testing.T) {
	var users []*casdoorsdk.User
	for i := range 230 {
		users = append(users, &casdoorsdk.User{Id: fmt.Sprintf("u-%d", i), Name: fmt.Sprintf("user%d", i)})
	}
	pager := &fakePager{users: users}
	dir := &UserCasdoor{client: pager}

	got, err := dir.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 230)
	assert.Equal(t, 3, pager.calls)
}

func TestListUsers_Error(t *testing.T) {
	dir := &UserCasdoor{client: &fakePager{err: errors.New("unauthorized")}}
	_, err := dir.ListUsers(context.Background())
	assert.ErrorContains(t, err, "unauthorized")
}

func TestConvertCasdoorUser(t *testing.T) {
	assert.Nil(t, convertCasdoorUser(nil))
	assert.Nil(t, convertCasdoorUser(&casdoorsdk.User{Id: "x", IsForbidden: true}))
	assert.Nil(t, convertCasdoorUser(&casdoorsdk.User{Name: "no-id"}))

	u := convertCasdoorUser(&casdoorsdk.User{Id: "abc", Owner: "lab", Name: "jdoe", Email: "j@lab.org"})
	require.NotNil(t, u)
	assert.Equal(t, "jdoe", u.DisplayName)
	assert.Equal(t, models.RoleCoder, u.Role)
	assert.Equal(t, "abc", *u.ExternalID)

	var attrs map[string]string
	require.NoError(t, json.Unmarshal(u.Attributes, &attrs))
	assert.Equal(t, "j@lab.org", attrs["email"])

	admin := convertCasdoorUser(&casdoorsdk.User{Id: "a", DisplayName: " Ada ", Roles: []*casdoorsdk.Role{{Name: "Administrator"}}})
	assert.Equal(t, "Ada", admin.DisplayName)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	assert.Equal(t, models.RoleAdmin, convertCasdoorUser(&casdoorsdk.User{Id: "b", IsAdmin: true}).Role)
}
