package app

import (
	"context"
	"fmt"

	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/identity"
)

func (s *Service) ListUsers(ctx context.Context) ([]database.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []database.User{}
	}
	return users, nil
}

func (s *Service) SetRole(ctx context.Context, userID, role string) (database.User, error) {
	if !identity.ValidRole(role) {
		return database.User{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	user, err := s.store.UpdateUserRole(ctx, database.UpdateUserRoleParams{Role: role, ID: userID})
	if err != nil {
		return database.User{}, notFound(err, "user "+userID)
	}
	return user, nil
}
