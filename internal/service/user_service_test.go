package service

import (
	"testing"
	"time"

	"examcell_backend/internal/config"
	"examcell_backend/internal/model"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/util"
	"examcell_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, database.Seed(db, config.AdminConfig{}))
	return NewUserService(repository.NewUserRepository(db))
}

func TestUserCreateAndLogin(t *testing.T) {
	users := newUserService(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}
	auth := NewAuthService(users.UserRepo, cfg)

	u, err := users.Create(UserInput{
		Username: " alice ",
		Name:     "Alice",
		Password: "secret1",
		Roles:    []model.UserRole{model.Faculty},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.HasRole(model.Faculty))

	_, err = users.Create(UserInput{Username: "alice", Name: "Again", Password: "secret1", Roles: []model.UserRole{model.Faculty}})
	assert.ErrorIs(t, err, util.ErrUsernameTaken)

	_, err = users.Create(UserInput{Username: "bob", Name: "Bob", Password: "123", Roles: []model.UserRole{model.Faculty}})
	assert.Error(t, err)

	res, err := auth.Login("alice", "secret1")
	require.NoError(t, err)
	claims, err := util.ParseJWT(res.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, []string{"faculty"}, claims.Roles)

	_, err = auth.Login("alice", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, err = auth.Login("nobody", "secret1")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = users.Update(u.ID, UserInput{Username: "alice", Name: "Alice", Disabled: true, Roles: []model.UserRole{model.Faculty}})
	require.NoError(t, err)
	_, err = auth.Login("alice", "secret1")
	assert.ErrorIs(t, err, util.ErrUserDisabled)
}

func TestUserUpdateRolesAndDelete(t *testing.T) {
	users := newUserService(t)
	u, err := users.Create(UserInput{Username: "carol", Name: "Carol", Password: "secret1", Roles: []model.UserRole{model.Faculty}})
	require.NoError(t, err)

	updated, err := users.Update(u.ID, UserInput{Username: "carol", Name: "Carol R", Roles: []model.UserRole{model.ExamCell}})
	require.NoError(t, err)
	assert.Equal(t, "Carol R", updated.Name)

	got, err := users.Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"exam_cell"}, got.RoleNames())

	reviewers, err := users.Dropdown(model.ExamCell)
	require.NoError(t, err)
	require.Len(t, reviewers, 1)
	assert.Equal(t, "Carol R", reviewers[0].Label)

	roles, err := users.RoleDropdown()
	require.NoError(t, err)
	assert.Len(t, roles, len(model.AllRoles))

	assert.ErrorIs(t, users.Delete(u.ID, u.ID), util.ErrPermissionDenied)
	require.NoError(t, users.Delete(0, u.ID))
	_, err = users.Get(u.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
	assert.ErrorIs(t, users.Delete(0, u.ID), util.ErrUserNotFound)
}

func TestUserList(t *testing.T) {
	users := newUserService(t)
	for _, name := range []string{"dave", "erin", "frank"} {
		_, err := users.Create(UserInput{Username: name, Name: name, Password: "secret1", Roles: []model.UserRole{model.Faculty}})
		require.NoError(t, err)
	}

	page, err := users.List(1, 2, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.List, 2)

	page, err = users.List(1, 10, "erin", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
