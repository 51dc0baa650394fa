package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joshua-takyi/businessly/internal/geo"
	"github.com/joshua-takyi/businessly/internal/geocode"
	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/models"
)

func newID() string {
	return uuid.New().String()
}

type CredentialsInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterInput struct {
	Type       models.AccountType    `json:"type" validate:"required,oneof=standard business"`
	Name       string                `json:"name"`
	Picture    string                `json:"picture"`
	Categories []string              `json:"categories" validate:"max=4,dive,oneof=Food Service Shop Health"`
	Business   *BusinessProfileInput `json:"business" validate:"-"`
}

type StandardProfileInput struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories" validate:"max=4,dive,oneof=Food Service Shop Health"`
}

type LocationInput struct {
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	Province string `json:"province" validate:"required"`
}

type Location struct {
	geo.Point
	Label string `json:"label"`
}

// AccountService covers identity (signup, login, refresh through the auth
// provider) and the profile that ties an identity to a standard or business
// account.
type AccountService struct {
	auth       models.AuthRepo
	users      models.UserRepo
	businesses models.BusinessRepo
	geocoder   geocode.Geocoder
	logger     *slog.Logger
}

func NewAccountService(auth models.AuthRepo, users models.UserRepo, businesses models.BusinessRepo, geocoder geocode.Geocoder, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		auth:       auth,
		users:      users,
		businesses: businesses,
		geocoder:   geocoder,
		logger:     logger,
	}
}

func (as *AccountService) SignUp(ctx context.Context, in CredentialsInput) (*types.SignupResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid credentials: %v: %w", err, models.ErrValidation)
	}
	if !helpers.IsPasswordStrong(in.Password) {
		return nil, fmt.Errorf("password must be at least 8 characters with upper, lower, number and special character: %w", models.ErrValidation)
	}
	return as.auth.SignUp(ctx, in.Email, in.Password)
}

func (as *AccountService) Login(ctx context.Context, in CredentialsInput) (*types.TokenResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid credentials: %v: %w", err, models.ErrValidation)
	}
	return as.auth.SignIn(ctx, in.Email, in.Password)
}

func (as *AccountService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, fmt.Errorf("refresh token is required: %w", models.ErrUnauthorized)
	}
	return as.auth.RefreshToken(ctx, refreshToken)
}

func (as *AccountService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return as.users.GetUser(ctx, userID)
}

// RegisterProfile creates the account record for an authenticated identity.
// A business account geocodes its address first and gets a Business with the
// same id; nothing is stored when geocoding fails.
func (as *AccountService) RegisterProfile(ctx context.Context, userID, email string, in RegisterInput) (*models.User, *models.Business, error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("user id is required: %w", models.ErrValidation)
	}
	if err := models.Validate.Struct(in); err != nil {
		return nil, nil, fmt.Errorf("invalid profile: %v: %w", err, models.ErrValidation)
	}
	if _, err := as.users.GetUser(ctx, userID); err == nil {
		return nil, nil, fmt.Errorf("profile already exists: %w", models.ErrValidation)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, nil, err
	}

	user := &models.User{
		ID:        userID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      strings.TrimSpace(in.Name),
		Picture:   strings.TrimSpace(in.Picture),
		Type:      in.Type,
		CreatedAt: time.Now().UTC(),
	}

	var business *models.Business
	if in.Type == models.AccountBusiness {
		if in.Business == nil {
			return nil, nil, fmt.Errorf("business details are required: %w", models.ErrValidation)
		}
		bin := *in.Business
		bin.Normalize()
		if err := models.Validate.Struct(bin); err != nil {
			return nil, nil, fmt.Errorf("please complete all required business fields: %v: %w", err, models.ErrValidation)
		}
		point, err := locateAddress(ctx, as.geocoder, bin.Address, bin.City, bin.Province)
		if err != nil {
			return nil, nil, err
		}

		business = &models.Business{
			ID:          userID,
			Name:        bin.Name,
			Category:    bin.Category,
			Address:     bin.Address,
			City:        bin.City,
			Province:    bin.Province,
			Country:     models.DefaultCountry,
			PostalCode:  bin.PostalCode,
			Description: bin.Description,
			Phone:       bin.Phone,
			Socials:     bin.socials(),
			ImageURL:    models.DefaultImageURL,
			Location:    models.NewGeoPoint(point.Lat, point.Lng),
			Comments:    map[string]models.Comment{},
			Coupons:     map[string]models.Coupon{},
		}
		if err := models.Validate.Struct(business); err != nil {
			return nil, nil, fmt.Errorf("invalid business: %v: %w", err, models.ErrValidation)
		}
		user.Name = bin.Name
		user.Categories = []string{}
		if err := as.businesses.CreateBusiness(ctx, business); err != nil {
			return nil, nil, err
		}
	} else {
		user.Categories = dedupe(in.Categories)
	}

	if err := as.users.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}
	as.logger.Info("Profile registered", "user_id", userID, "type", user.Type)
	user.Normalize()
	return user, business, nil
}

func (as *AccountService) UpdateStandardProfile(ctx context.Context, userID string, in StandardProfileInput) (*models.User, error) {
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid profile: %v: %w", err, models.ErrValidation)
	}
	if err := as.users.UpdateStandardProfile(ctx, userID, in.Name, dedupe(in.Categories)); err != nil {
		return nil, err
	}
	return as.users.GetUser(ctx, userID)
}

// SetLocation geocodes a free-form address into the point the feed ranks from.
func (as *AccountService) SetLocation(ctx context.Context, in LocationInput) (*Location, error) {
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Province = strings.TrimSpace(in.Province)
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid location: %v: %w", err, models.ErrValidation)
	}
	point, err := locateAddress(ctx, as.geocoder, in.Address, in.City, in.Province)
	if err != nil {
		return nil, err
	}
	title := cases.Title(language.English)
	return &Location{
		Point: point,
		Label: title.String(in.Address) + ", " + title.String(in.City),
	}, nil
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
