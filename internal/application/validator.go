package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
	"github.com/oksasatya/go-user-admin/pkg/validation"
)

// EmailLookup finds a user by login email.
type EmailLookup interface {
	LoadUserByEmail(ctx context.Context, email string) (*entity.User, error)
}

// UserValidator checks rules that need the store. Field formats are bound
// on the request DTOs.
type UserValidator struct {
	Users  EmailLookup
	Logger *logrus.Logger
}

func NewUserValidator(users EmailLookup, logger *logrus.Logger) *UserValidator {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &UserValidator{Users: users, Logger: logger}
}

// ValidateForCreate reports a taken email. A failed lookup counts as available;
// the unique index catches anything that slips through.
func (v *UserValidator) ValidateForCreate(ctx context.Context, candidate *entity.User) []validation.FieldError {
	u, err := v.Users.LoadUserByEmail(ctx, candidate.Email)
	if err != nil || u == nil {
		return nil
	}
	v.Logger.WithField("email", candidate.Email).Debug("email already registered")
	return []validation.FieldError{{Field: "email", Message: EmailInUseMessage}}
}
