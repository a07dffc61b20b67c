package services

import (
	"context"
	"errors"
	"fmt"

	"lims-backend/internal/auth"
	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserService manages staff accounts and login
type UserService struct {
	Store      *store.Store
	Recorder   *AuditRecorder
	JWTManager *auth.JWTManager
}

func NewUserService(st *store.Store, recorder *AuditRecorder, jwtManager *auth.JWTManager) *UserService {
	return &UserService{Store: st, Recorder: recorder, JWTManager: jwtManager}
}

// Signup creates a staff account
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = s.Store.Update(func(st *store.State) error {
		if st.UserByEmail(req.Email) != nil {
			return fmt.Errorf("email %s is already registered", req.Email)
		}
		role := req.Role
		if role == "" {
			role = models.RoleReceptionist
		}
		u := &models.User{
			ID:           st.NextID(store.ColUsers),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         role,
			IsActive:     true,
			CreatedAt:    timeutil.Now(),
		}
		st.Users[u.ID] = u
		st.Touch(store.ColUsers)
		s.Recorder.Log(st, u.ID, models.AuditActionCreate, "users",
			fmt.Sprintf("Account created for %s (%s)", u.Email, u.Role))
		created = u.Sanitized()
		return nil
	})
	return created, err
}

// Login checks credentials and issues a token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	var user *models.User
	s.Store.View(func(st *store.State) {
		if u := st.UserByEmail(req.Email); u != nil {
			cp := *u
			user = &cp
		}
	})
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, errors.New("account suspended")
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user.Sanitized()}, nil
}

// GetUser returns one account
func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user *models.User
	s.Store.View(func(st *store.State) {
		if u, ok := st.Users[id]; ok {
			user = u.Sanitized()
		}
	})
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// ListUsers returns all accounts, sanitized
func (s *UserService) ListUsers(ctx context.Context) []*models.User {
	var out []*models.User
	s.Store.View(func(st *store.State) {
		for _, u := range st.UserList() {
			out = append(out, u.Sanitized())
		}
	})
	return out
}
