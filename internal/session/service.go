package session

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/approvalflow/workflow-client/internal/gateway"
	"github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
)

// Authenticator exchanges credentials for a token and profile
type Authenticator interface {
	Login(ctx context.Context, credentials model.Credentials) (*gateway.LoginResult, error)
}

// Service signs identities in and out, keeping the Holder and the optional
// persisted Store in step.
type Service struct {
	holder *Holder
	store  Store
	auth   Authenticator
	logger *logrus.Logger
	now    func() time.Time
}

// NewService creates a session service. store may be nil when nothing is persisted.
func NewService(holder *Holder, store Store, auth Authenticator, logger *logrus.Logger) *Service {
	return &Service{
		holder: holder,
		store:  store,
		auth:   auth,
		logger: logger,
		now:    time.Now,
	}
}

// Holder returns the session state this service maintains
func (s *Service) Holder() *Holder {
	return s.holder
}

// Login authenticates and caches the identity. Inactive identities and
// identities without a known role are refused.
func (s *Service) Login(ctx context.Context, credentials model.Credentials) (*model.Identity, *serviceerror.ServiceError) {
	if credentials.Email == "" || credentials.Password == "" {
		return nil, serviceerror.FieldValidationError(map[string]string{
			"email":    "email and password are required",
			"password": "email and password are required",
		})
	}

	result, err := s.auth.Login(ctx, credentials)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			return nil, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "Invalid email or password")
		}
		s.logger.WithError(err).Error("Login failed")
		return nil, gateway.ToServiceError(err, "")
	}

	identity := result.Identity
	identity.Roles = model.NewRoleSet(identity.Roles.Strings()...)
	if !identity.Active {
		return nil, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "The account is inactive")
	}
	if len(identity.Roles) == 0 {
		return nil, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "The account has no role assigned")
	}

	claims, err := ReadTokenClaims(result.Token)
	if err != nil {
		s.logger.WithError(err).Warn("Login token carries unreadable claims")
	}
	if !claims.ExpiresAt.IsZero() && !s.now().Before(claims.ExpiresAt) {
		return nil, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "The issued token has already expired")
	}

	s.holder.SetSession(result.Token, identity, claims.ExpiresAt)

	if s.store != nil {
		snapshot := Snapshot{
			Token:     result.Token,
			Identity:  identity,
			ExpiresAt: claims.ExpiresAt,
			SavedAt:   s.now().UTC(),
		}
		if err := s.store.Save(ctx, snapshot); err != nil {
			s.logger.WithError(err).Warn("Failed to persist session")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"userId": identity.ID,
		"roles":  identity.Roles.Strings(),
	}).Info("User signed in")

	return &identity, nil
}

// Logout clears the cached and persisted session
func (s *Service) Logout(ctx context.Context) *serviceerror.ServiceError {
	identity, _ := s.holder.CurrentIdentity()
	s.holder.Clear()

	if s.store != nil {
		if err := s.store.Delete(ctx); err != nil {
			s.logger.WithError(err).Error("Failed to remove persisted session")
			return serviceerror.CustomServiceError(serviceerror.InternalServerError, "Failed to remove the persisted session")
		}
	}

	if identity.ID != "" {
		s.logger.WithField("userId", identity.ID).Info("User signed out")
	}
	return nil
}

// Restore loads the persisted session into the Holder. A missing session is
// reported as AuthenticationLost; an expired or unreadable one is also
// removed from the store.
func (s *Service) Restore(ctx context.Context) (*model.Identity, *serviceerror.ServiceError) {
	if s.store == nil {
		return nil, &serviceerror.AuthenticationLostError
	}

	snapshot, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "Not signed in")
		}
		s.logger.WithError(err).Warn("Discarding unreadable session")
		s.Invalidate(ctx)
		return nil, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "The stored session is unreadable, please sign in again")
	}

	expiresAt := snapshot.ExpiresAt
	if claims, err := ReadTokenClaims(snapshot.Token); err == nil && !claims.ExpiresAt.IsZero() {
		expiresAt = claims.ExpiresAt
	}
	if !expiresAt.IsZero() && !s.now().Before(expiresAt) {
		s.Invalidate(ctx)
		return nil, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "Your session has expired, please sign in again")
	}

	identity := snapshot.Identity
	identity.Roles = model.NewRoleSet(identity.Roles.Strings()...)
	if len(identity.Roles) == 0 {
		s.Invalidate(ctx)
		return nil, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "The stored session has no role, please sign in again")
	}

	s.holder.SetSession(snapshot.Token, identity, expiresAt)
	return &identity, nil
}

// Active returns the signed-in identity. A token past its expiry drops the
// session and reports AuthenticationLost.
func (s *Service) Active(ctx context.Context) (model.Identity, *serviceerror.ServiceError) {
	identity, ok := s.holder.CurrentIdentity()
	if !ok {
		return model.Identity{}, &serviceerror.AuthenticationLostError
	}
	if s.holder.Expired(s.now()) {
		s.logger.WithField("userId", identity.ID).Info("Session token expired")
		s.Invalidate(ctx)
		return model.Identity{}, serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "Your session has expired, please sign in again")
	}
	return identity, nil
}

// Invalidate drops the session after the remote API rejected its token
func (s *Service) Invalidate(ctx context.Context) {
	s.holder.Clear()
	if s.store == nil {
		return
	}
	if err := s.store.Delete(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to remove invalidated session")
	}
}
