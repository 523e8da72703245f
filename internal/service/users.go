package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/auth"
	"github.com/Nixie-Tech-LLC/kiriha/internal/cache"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/storage"
)

type CreateUserInput struct {
	Name     string
	Role     model.Role
	CardID   *string
	Email    *string
	Password *string
}

type UpdateUserInput struct {
	Name     *string
	CardID   *string
	Email    *string
	Password *string
}

type Users struct {
	store db.UserStore
	cache *cache.Cache
	files storage.Storage
	now   func() time.Time
}

func NewUsers(store db.UserStore, c *cache.Cache, files storage.Storage) *Users {
	return &Users{store: store, cache: c, files: files, now: time.Now}
}

// NewStudentCode returns a student code made of the two-digit year followed
// by six random digits.
func NewStudentCode(now time.Time) string {
	return fmt.Sprintf("%02d%06d", now.Year()%100, rand.IntN(1_000_000))
}

func (s *Users) FindMany(ctx context.Context, q model.UserQuery) (model.Page[model.User], error) {
	return cache.Memoize(ctx, s.cache, "users.findMany", q, func(ctx context.Context) (model.Page[model.User], error) {
		users, total, err := s.store.ListUsers(ctx, q)
		if err != nil {
			return model.Page[model.User]{}, err
		}
		return model.NewPage(users, total, q.Page, q.Limit), nil
	})
}

func (s *Users) FindOne(ctx context.Context, id string) (*model.User, error) {
	return cache.Memoize(ctx, s.cache, "users.findOne", id, func(ctx context.Context) (*model.User, error) {
		return s.store.GetUserByID(ctx, id)
	})
}

func (s *Users) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if !in.Role.Valid() {
		return nil, invalid(fmt.Errorf("unknown role %q", in.Role))
	}
	nu := model.NewUser{Name: in.Name, Role: in.Role, CardID: in.CardID, Email: in.Email}
	if in.Password != nil {
		hashed, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		nu.HashedPassword = &hashed
	}

	var (
		user *model.User
		err  error
	)
	if in.Role == model.RoleStudent {
		user, err = withGeneratedCode(func() string { return NewStudentCode(s.now()) }, func(code string) (*model.User, error) {
			return s.store.CreateUser(ctx, nu, code)
		})
	} else {
		user, err = s.store.CreateUser(ctx, nu, "")
	}
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, nsUsers)
	return user, nil
}

func (s *Users) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	changes := model.UserChanges{Name: in.Name, CardID: in.CardID, Email: in.Email}
	if in.Password != nil {
		hashed, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		changes.HashedPassword = &hashed
	}
	user, err := s.store.UpdateUser(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, nsUsers, nsClasses)
	return user, nil
}

func (s *Users) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, nsUsers, nsClasses)
	return nil
}

// SetImage stores an avatar for the user and records where it lives.
func (s *Users) SetImage(ctx context.Context, id, filename string, r io.ReadSeeker) (*model.User, error) {
	if _, err := s.store.GetUserByID(ctx, id); err != nil {
		return nil, err
	}
	location, err := s.files.Save(ctx, path.Join("users", id, filename), r)
	if err != nil {
		return nil, err
	}
	user, err := s.store.UpdateUser(ctx, id, model.UserChanges{Image: &location})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, nsUsers)
	return user, nil
}

// Authenticate resolves identifier as an email when it contains “@” and as
// a student code otherwise, then checks the password.
func (s *Users) Authenticate(ctx context.Context, identifier, password string) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.store.GetUserByEmail(ctx, identifier)
	} else {
		user, err = s.store.GetUserByStudentID(ctx, identifier)
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.HashedPassword == nil || !auth.CheckPassword(*user.HashedPassword, password) {
		return nil, auth.ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when no user owns email.
func (s *Users) EnsureAdmin(ctx context.Context, name, email, password string) error {
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}
	if _, err := s.Create(ctx, CreateUserInput{Name: name, Role: model.RoleAdmin, Email: &email, Password: &password}); err != nil {
		return err
	}
	log.Info().Str("email", email).Msg("created bootstrap admin")
	return nil
}
