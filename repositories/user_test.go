package repositories

import (
	"chat-dm/errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_CreateUser_And_Find(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	created, err := repository.CreateUser("Alice Liddell", "alice@example.com", "$argon2id$hash")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal([]string{"user"}, created.Roles)

	byEmail, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(created, byEmail)

	byID, err := repository.FindByID(created.ID)
	req.NoError(err)
	req.Equal(created, byID)

	exists, err := repository.Exists(created.ID)
	req.NoError(err)
	req.True(exists)
}

func Test_CreateUser_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	_, err := repository.CreateUser("Alice", "alice@example.com", "hash")
	req.NoError(err)
	_, err = repository.CreateUser("Other Alice", "alice@example.com", "hash")

	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Unknown_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	exists, err := repository.Exists(uuid.NewString())
	req.NoError(err)
	req.False(exists)

	_, err = repository.FindByID(uuid.NewString())
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repository.GetUserByEmail("nobody@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_FindAllExcept(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))
	alice, err := repository.CreateUser("Alice", "alice@example.com", "hash")
	req.NoError(err)
	bob, err := repository.CreateUser("Bob", "bob@example.com", "hash")
	req.NoError(err)
	carol, err := repository.CreateUser("Carol", "carol@example.com", "hash")
	req.NoError(err)

	users, err := repository.FindAllExcept(alice.ID)

	req.NoError(err)
	req.Len(users, 2)
	req.ElementsMatch([]string{bob.ID, carol.ID}, []string{users[0].ID, users[1].ID})
}

func Test_UpdateProfilePic(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))
	alice, err := repository.CreateUser("Alice", "alice@example.com", "hash")
	req.NoError(err)

	updated, err := repository.UpdateProfilePic(alice.ID, "https://cdn.example/alice.png")
	req.NoError(err)
	req.Equal("https://cdn.example/alice.png", updated.ProfilePic)

	found, err := repository.FindByID(alice.ID)
	req.NoError(err)
	req.Equal("https://cdn.example/alice.png", found.ProfilePic)
	req.Equal(alice.PasswordHash, found.PasswordHash)
}
