package service

import (
	"fmt"
	"log/slog"

	"scholartrack/internal/apperrors"
	"scholartrack/internal/auth"
	"scholartrack/internal/models"
	"scholartrack/internal/repository"
)

// UserService handles registration, login, and role administration.
type UserService struct {
	userRepo *repository.UserRepository
	roleRepo *repository.RoleRepository
	authSvc  *auth.Service
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository, authSvc *auth.Service) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		authSvc:  authSvc,
	}
}

// Register registers a new user. The first user in the system becomes admin;
// everyone else starts as an applicant.
func (s *UserService) Register(email, password, firstName, lastName string, studentNo *string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validationf("email and password are required")
	}
	if len(password) < 8 {
		return nil, apperrors.Validationf("password must be at least 8 characters")
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflictf("a user with this email already exists")
	}

	passwordHash, err := s.authSvc.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		StudentNo:    studentNo,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	userCount, err := s.userRepo.CountAll()
	if err != nil {
		slog.Error("Failed to count users", "error", err)
	}

	roleName := models.RoleApplicant
	if userCount == 1 {
		roleName = models.RoleAdmin
		slog.Info("Assigning admin role to first user", "email", email)
	}

	role, err := s.roleRepo.GetByName(roleName)
	if err != nil || role == nil {
		slog.Error("Failed to find role", "role", roleName, "error", err)
	} else if err := s.userRepo.AssignRole(user.ID, role.ID); err != nil {
		slog.Error("Failed to assign role", "role", roleName, "user_id", user.ID, "error", err)
	}

	return user, nil
}

// Login authenticates a user and returns a signed token plus the user record.
func (s *UserService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil || user == nil {
		return "", nil, apperrors.Authorizationf("invalid credentials")
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return "", nil, apperrors.Authorizationf("invalid credentials")
	}

	if !user.IsActive {
		return "", nil, apperrors.Authorizationf("user account is inactive")
	}

	token, _, err := s.authSvc.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// GetWithRoles returns a user together with their role names.
func (s *UserService) GetWithRoles(userID uint) (*models.UserWithRoles, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFoundf("user %d not found", userID)
	}

	roles, err := s.userRepo.GetUserRoles(userID)
	if err != nil {
		return nil, err
	}

	return &models.UserWithRoles{User: *user, Roles: roles}, nil
}

// RoleNames returns the role names of a user, for building an Actor.
func (s *UserService) RoleNames(userID uint) ([]string, error) {
	roles, err := s.userRepo.GetUserRoles(userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names, nil
}

// GrantRole assigns a role to a user. Admin only.
func (s *UserService) GrantRole(actor Actor, userID uint, roleName string) error {
	if !hasRole(actor.Roles, models.RoleAdmin) {
		return apperrors.Authorizationf("not permitted")
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFoundf("user %d not found", userID)
	}

	role, err := s.roleRepo.GetByName(roleName)
	if err != nil {
		return err
	}
	if role == nil {
		return apperrors.NotFoundf("role %q not found", roleName)
	}

	return s.userRepo.AssignRole(userID, role.ID)
}
