package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/angelmondragon/storefront/pkg/errors"
)

// BirthdayLayout is the date format profiles are read and written in.
const BirthdayLayout = "2006-01-02"

// Source is the backend user API.
type Source interface {
	GetUser(ctx context.Context, token, userID string) (*commerce.User, error)
	UpdateProfile(ctx context.Context, token string, req commerce.ProfileUpdate) error
}

type Service interface {
	Get(ctx context.Context, token string) (*Profile, error)
	Update(ctx context.Context, token string, input Update) (*Profile, error)
}

// Profile is the signed-in customer's account as shown on the profile page.
type Profile struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Birthday string `json:"birthday,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// Update carries the editable profile fields. Empty Birthday or Gender clears them.
type Update struct {
	FullName string
	Email    string
	Phone    string
	Birthday string
	Gender   string
}

type service struct {
	source Source
}

func NewService(source Source) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("profile source required")
	}
	return &service{source: source}, nil
}

// Get loads the account named by the token's subject claim.
func (s *service) Get(ctx context.Context, token string) (*Profile, error) {
	userID, err := subject(token)
	if err != nil {
		return nil, err
	}

	user, err := s.source.GetUser(ctx, token, userID)
	if err != nil {
		return nil, err
	}
	return fromUser(userID, user), nil
}

// Update saves the profile and returns it as re-read from the backend.
func (s *service) Update(ctx context.Context, token string, input Update) (*Profile, error) {
	if _, err := subject(token); err != nil {
		return nil, err
	}

	req := commerce.ProfileUpdate{
		FullName: strings.TrimSpace(input.FullName),
		Email:    strings.TrimSpace(input.Email),
		Phone:    strings.TrimSpace(input.Phone),
	}
	if birthday := strings.TrimSpace(input.Birthday); birthday != "" {
		if _, err := time.Parse(BirthdayLayout, birthday); err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "birthday must be YYYY-MM-DD")
		}
		req.Birthday = &birthday
	}
	if gender := strings.ToLower(strings.TrimSpace(input.Gender)); gender != "" {
		req.Gender = &gender
	}

	if err := s.source.UpdateProfile(ctx, token, req); err != nil {
		return nil, err
	}
	return s.Get(ctx, token)
}

func subject(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", errors.New(errors.CodeUnauthorized, "sign in to manage your profile")
	}
	claims, err := auth.ParseAccessToken(token)
	if err != nil {
		return "", errors.Wrap(errors.CodeUnauthorized, err, "access token rejected")
	}
	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return "", errors.New(errors.CodeUnauthorized, "access token has no subject")
	}
	return userID, nil
}

func fromUser(userID string, user *commerce.User) *Profile {
	p := &Profile{UserID: userID}
	if user == nil {
		return p
	}
	if id := user.UserID.String(); id != "" {
		p.UserID = id
	}
	p.Username = strings.TrimSpace(user.Username)
	p.Email = strings.TrimSpace(user.Email)
	p.Phone = strings.TrimSpace(user.Phone)
	p.FullName = strings.TrimSpace(user.FullName)
	if c := user.Customers; c != nil {
		p.Birthday = formatBirthday(c.Birthday)
		p.Gender = strings.TrimSpace(c.Gender)
	}
	return p
}

// formatBirthday reduces a backend timestamp to its date. Unparseable values are dropped.
func formatBirthday(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, BirthdayLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(BirthdayLayout)
		}
	}
	return ""
}
