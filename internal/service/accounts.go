package service

import (
	"context"
	"errors"
	"strings"

	"medeasy-api-server/internal/apperr"
	"medeasy-api-server/internal/auth"
	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"

	"github.com/google/uuid"
)

type Accounts struct {
	users   store.UserStore
	parties store.PartyStore
	tx      store.TxManager
	tokens  *auth.Manager
	clock   Clock
}

type SignupInput struct {
	Email     string
	Password  string
	Role      string
	StoreName string
	Address   string
	Latitude  *float64
	Longitude *float64
}

// Session is what a successful signup or login returns.
type Session struct {
	UserID  string      `json:"userId"`
	Role    models.Role `json:"role"`
	PartyID string      `json:"partyId,omitempty"`
	Token   string      `json:"token"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseLocation requires both coordinates or neither.
func parseLocation(lat, lng *float64, fullText string) (*models.Address, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, apperr.Validation(apperr.CodeInvalidLocation, "latitude and longitude must be given together")
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return nil, apperr.Validation(apperr.CodeInvalidLocation, "coordinates out of range")
	}
	return &models.Address{FullText: strings.TrimSpace(fullText), Latitude: *lat, Longitude: *lng}, nil
}

// Signup creates a user. Retailers and wholesalers get their own store in
// the same unit of work.
func (a *Accounts) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Validation(apperr.CodeMissingCredentials, "email and password are required")
	}

	role := models.RoleCustomer
	if strings.TrimSpace(in.Role) != "" {
		r, err := models.ParseRole(in.Role)
		if err != nil {
			return nil, apperr.Validation(apperr.CodeInvalidRole, "role must be customer, retailer or wholesaler").Wrap(err)
		}
		role = r
	}

	loc, err := parseLocation(in.Latitude, in.Longitude, in.Address)
	if err != nil {
		return nil, err
	}

	if _, err := a.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict(apperr.CodeUserExists, "user already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := a.tokens.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    a.clock().UTC(),
	}

	err = a.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if role.IsPartner() {
			name := strings.TrimSpace(in.StoreName)
			if name == "" {
				name = strings.SplitN(email, "@", 2)[0]
			}
			party := &models.Party{
				ID:          uuid.NewString(),
				Role:        role,
				Name:        name,
				OwnerUserID: user.ID,
				Location:    loc,
			}
			if err := a.parties.Create(ctx, party); err != nil {
				return err
			}
			user.PartyID = party.ID
		}
		return a.users.Create(ctx, user)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict(apperr.CodeUserExists, "user already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return a.session(user)
}

// Login authenticates customers only; partners use PartnerLogin.
func (a *Accounts) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := a.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleCustomer {
		return nil, invalidCredentials()
	}
	return a.session(user)
}

// PartnerLogin authenticates a retailer or wholesaler for the given role.
func (a *Accounts) PartnerLogin(ctx context.Context, email, password, role string) (*Session, error) {
	r, err := models.ParseRole(role)
	if err != nil || !r.IsPartner() {
		return nil, apperr.Validation(apperr.CodeInvalidRole, "role must be retailer or wholesaler")
	}
	user, err := a.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user.Role != r {
		return nil, invalidCredentials()
	}
	return a.session(user)
}

func invalidCredentials() error {
	return apperr.Auth(apperr.CodeInvalidCredentials, "invalid credentials")
}

func (a *Accounts) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation(apperr.CodeMissingCredentials, "email and password are required")
	}
	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !a.tokens.CheckPasswordHash(password, user.PasswordHash) {
		return nil, invalidCredentials()
	}
	return user, nil
}

func (a *Accounts) session(u *models.User) (*Session, error) {
	token, err := a.tokens.GenerateJWT(u)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{UserID: u.ID, Role: u.Role, PartyID: u.PartyID, Token: token}, nil
}
