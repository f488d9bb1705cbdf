//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-dm/domain"
	"chat-dm/errors"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userIDPrefix    = "user:id:"
	userEmailPrefix = "user:email:"
)

// IUserRepository is the identity store.
type IUserRepository interface {
	CreateUser(fullName, email, hashedPassword string) (User, error)
	GetUserByEmail(email string) (User, error)
	FindByID(id string) (User, error)
	Exists(id string) (bool, error)
	FindAllExcept(id string) ([]User, error)
	UpdateProfilePic(id, url string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository representation of an account.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	ProfilePic   string
	Roles        []string
	CreatedAt    time.Time
}

func (u User) Summary() domain.UserSummary {
	return domain.UserSummary{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}

// CreateUser persists a new account. The email index and the record are written in the same transaction.
func (u UserRepository) CreateUser(fullName, email, hashedPassword string) (User, error) {
	user := User{
		ID:           uuid.New().String(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	err := u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(userEmailPrefix + email)
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(userIDPrefix+user.ID), marshalUser(user))
	})
	if err != nil {
		return User{}, wrapStorage(err)
	}
	return user, nil
}

func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailPrefix + email))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = getUser(txn, string(id))
		return err
	})
	if err != nil {
		return User{}, wrapStorage(err)
	}
	return user, nil
}

func (u UserRepository) FindByID(id string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return User{}, wrapStorage(err)
	}
	return user, nil
}

func (u UserRepository) Exists(id string) (bool, error) {
	err := u.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(userIDPrefix + id))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, wrapStorage(err)
	}
}

// FindAllExcept lists every account but id, in key order.
func (u UserRepository) FindAllExcept(id string) ([]User, error) {
	users := make([]User, 0)
	prefix := []byte(userIDPrefix)
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if string(item.Key()[len(prefix):]) == id {
				continue
			}
			err := item.Value(func(value []byte) error {
				user, err := unmarshalUser(value)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return users, nil
}

func (u UserRepository) UpdateProfilePic(id, url string) (User, error) {
	var user User
	err := u.db.Update(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		if err != nil {
			return err
		}
		user.ProfilePic = url
		return txn.Set([]byte(userIDPrefix+id), marshalUser(user))
	})
	if err != nil {
		return User{}, wrapStorage(err)
	}
	return user, nil
}

func getUser(txn *badger.Txn, id string) (User, error) {
	item, err := txn.Get([]byte(userIDPrefix + id))
	if err != nil {
		return User{}, err
	}
	var user User
	err = item.Value(func(value []byte) error {
		user, err = unmarshalUser(value)
		return err
	})
	return user, err
}

// wrapStorage keeps domain errors intact and turns everything else into ErrStorageUnavailable.
func wrapStorage(err error) error {
	switch {
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return errors.ErrUserNotFound
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		return err
	default:
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
}
