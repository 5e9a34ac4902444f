package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"smartattendance_backend/internals/features/users/auth/dto"
	userModel "smartattendance_backend/internals/features/users/user/model"
	helper "smartattendance_backend/internals/helpers"
)

const tokenLifetime = 24 * time.Hour

// UserStore is the slice of the user repository the login flow needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*userModel.UserModel, error)
	FindByID(ctx context.Context, id uint64) (*userModel.UserModel, error)
}

type AuthService struct {
	Users  UserStore
	Secret []byte
	Now    func() time.Time
}

func NewAuthService(users UserStore, secret []byte) *AuthService {
	return &AuthService{Users: users, Secret: secret, Now: time.Now}
}

// Login verifies the credential pair and mints a signed bearer token. A
// wrong email and a wrong password return the same error so the endpoint
// does not leak which accounts exist.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, helper.SecurityErr(helper.CodeInvalidCredentials, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, helper.SecurityErr(helper.CodeInvalidCredentials, "Invalid email or password")
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: toUserInfo(user)}, nil
}

// Profile returns the authenticated user's own view.
func (s *AuthService) Profile(ctx context.Context, userID uint64) (*dto.UserInfo, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, helper.NotFoundErr("User not found")
	}
	info := toUserInfo(user)
	return &info, nil
}

func (s *AuthService) mintToken(user *userModel.UserModel) (string, error) {
	now := s.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenLifetime).Unix(),
	}
	if user.OrganisationID != nil {
		claims["organisation_id"] = *user.OrganisationID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func toUserInfo(user *userModel.UserModel) dto.UserInfo {
	return dto.UserInfo{
		ID:             user.ID,
		FullName:       user.FullName,
		Email:          user.Email,
		Role:           user.Role,
		OrganisationID: user.OrganisationID,
	}
}
