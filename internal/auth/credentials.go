package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/imcadom/entregas/internal/model"
	"github.com/imcadom/entregas/internal/store"
)

// passwordCost is the bcrypt cost for new accounts.
var passwordCost = bcrypt.DefaultCost

// dummyHash is compared against when the login does not exist, so that unknown
// logins take as long to reject as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("entregas-dummy-password"), passwordCost)
	if err != nil {
		panic(fmt.Sprintf("generating dummy hash: %v", err))
	}
	return h
})

// Register creates an account with a bcrypt hash of password.
func Register(ctx context.Context, db *sql.DB, name, login, password string) (*model.User, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return nil, &model.ValidationError{Field: "nombre"}
	case login == "":
		return nil, &model.ValidationError{Field: "usuario"}
	case password == "":
		return nil, &model.ValidationError{Field: "contrasena"}
	}

	_, err := store.GetUserByLogin(ctx, db, login)
	if err == nil {
		return nil, fmt.Errorf("registering %q: %w", login, model.ErrDuplicateLogin)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	// The UNIQUE constraint still catches a concurrent registration of the same login.
	return store.CreateUser(ctx, db, name, login, string(hash))
}

// Verify checks a login/password pair. Unknown logins and wrong passwords both
// return model.ErrInvalidCredentials.
func Verify(ctx context.Context, db *sql.DB, login, password string) (*model.User, error) {
	user, err := store.GetUserByLogin(ctx, db, login)
	if errors.Is(err, model.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}
