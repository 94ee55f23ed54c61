package auth

import (
	"context"

	"github.com/mmynk/centsai/internal/models"
)

// Authenticator owns account credentials: it creates users and checks logins.
type Authenticator interface {
	// Register stores a new user identified by email.
	// Returns ErrEmailExists when the email is taken and ErrWeakPassword
	// when the credential fails ValidateCredential.
	Register(ctx context.Context, email, username, credential string) (*models.User, error)

	// Authenticate returns the user owning email if credential matches.
	// Unknown emails and wrong credentials both yield ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials that may not be stored.
	ValidateCredential(credential string) error
}
