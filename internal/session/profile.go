package session

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
	"github.com/abdallahh166/Orangesites-sub000/pkg/client"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// UpdateProfile saves profile changes and replaces the in-memory user.
func (m *Manager) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (*domain.UserProfile, error) {
	if m.User() == nil {
		return nil, apperr.ErrUnauthenticated
	}
	user, err := m.api.UpdateMe(ctx, req)
	if err != nil {
		return nil, m.HandleAPIError(err)
	}
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	m.log.Info("profile updated", zap.Int64("user_id", user.ID))
	return user, nil
}

// ChangePassword changes the signed-in user's password. Some servers answer
// a wrong current password with 401; that is a rejection of the request, not
// of the session, so it leaves the session in place.
func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if m.User() == nil {
		return apperr.ErrUnauthenticated
	}
	if err := m.api.ChangePassword(ctx, currentPassword, newPassword); err != nil {
		if client.IsStatus(err, http.StatusUnauthorized) {
			m.log.Info("password change rejected", zap.Error(err))
			return apperr.Wrap(apperr.ErrRejected, err)
		}
		return m.HandleAPIError(err)
	}
	m.log.Info("password changed")
	return nil
}

// ResetPassword asks the server to mail a reset link. No session is needed.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if err := m.api.ForgotPassword(ctx, email); err != nil {
		return apperr.Classify(err, apperr.ErrRejected)
	}
	return nil
}
