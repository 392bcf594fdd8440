package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"authgate/api/internal/apperrors"
	"authgate/api/internal/config"
	"authgate/api/internal/events"
	"authgate/api/internal/ids"
	"authgate/api/internal/metrics"
	"authgate/api/internal/models"
	"authgate/api/internal/oauth"
	"authgate/api/internal/repository"
	"authgate/api/internal/security"
	"authgate/api/internal/state"
)

var (
	ErrNoEmail         = apperrors.Provider("Email not provided by Google")
	ErrEmailUnverified = apperrors.Provider("Google email is not verified")
	ErrEmailMismatch   = apperrors.Validation("Google email must match your account email")
	ErrCodeRequired    = apperrors.Validation("Authorization code required")
)

// GoogleProvider is the subset of the OAuth client the service drives.
type GoogleProvider interface {
	BuildAuthorizationURL(redirectURI, frontendURL, nonce string) (string, error)
	ExchangeCode(ctx context.Context, code, redirectURI string) (oauth.TokenSet, error)
	FetchUserProfile(ctx context.Context, accessToken string) (oauth.Profile, error)
	VerifyIDToken(ctx context.Context, raw string) *oauth.IDTokenClaims
	IsAllowedRedirectURI(uri string) bool
	DecodeState(raw string) state.Payload
}

type AuthService struct {
	users    repository.UserStore
	sessions repository.SessionStore
	hasher   *security.Hasher
	tokens   *security.TokenIssuer
	google   GoogleProvider
	events   events.Publisher
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	store repository.Store,
	hasher *security.Hasher,
	tokens *security.TokenIssuer,
	google GoogleProvider,
	publisher events.Publisher,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &AuthService{
		users:    store.Users,
		sessions: store.Sessions,
		hasher:   hasher,
		tokens:   tokens,
		google:   google,
		events:   publisher,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type AuthResult struct {
	AccessToken string
	User        models.User
}

// GoogleLogin is the outcome of a Google sign-in: a bearer token plus the
// session that replaced any earlier one for the same user.
type GoogleLogin struct {
	AuthResult
	SessionToken     string
	SessionExpiresAt time.Time
	NewAccount       bool
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (res AuthResult, err error) {
	defer func() { metrics.ObserveAuth("register", err) }()

	email := normalizeEmail(input.Email)
	name := security.SanitizeName(input.Name, s.cfg.Profile.MaxNameLength)
	if email == "" || input.Password == "" {
		return AuthResult{}, apperrors.Validation("Email and password are required")
	}
	if name == "" {
		return AuthResult{}, apperrors.Validation("Name is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return AuthResult{}, apperrors.ErrEmailRegistered
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, fmt.Errorf("lookup email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(ids.PrefixUser),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         models.UserRoleStudent,
		AuthProvider: models.AuthProviderEmail,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return AuthResult{}, apperrors.ErrEmailRegistered
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}
	user.PasswordHash = nil

	token, err := s.tokens.Create(user.ID, user.Email, string(user.Role))
	if err != nil {
		return AuthResult{}, err
	}

	s.publish(ctx, events.Event{Type: events.UserRegistered, UserID: user.ID, Email: user.Email, Provider: string(user.AuthProvider), NewAccount: true})
	return AuthResult{AccessToken: token, User: user}, nil
}

type LoginInput struct {
	Email    string
	Password string
}

// Login checks an email and password and issues a bearer token. Unknown
// emails and passwordless accounts still pay for one hash verification so the
// failure cannot be told apart from a wrong password by timing.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (res AuthResult, err error) {
	defer func() { metrics.ObserveAuth("password", err) }()

	email := normalizeEmail(input.Email)
	user, err := s.users.FindCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.VerifyDummy(input.Password)
			return AuthResult{}, apperrors.ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("lookup credentials: %w", err)
	}

	if len(user.PasswordHash) == 0 {
		s.hasher.VerifyDummy(input.Password)
		return AuthResult{}, apperrors.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
		return AuthResult{}, apperrors.ErrInvalidCredentials
	}
	if !ok {
		return AuthResult{}, apperrors.ErrInvalidCredentials
	}
	user.PasswordHash = nil

	token, err := s.tokens.Create(user.ID, user.Email, string(user.Role))
	if err != nil {
		return AuthResult{}, err
	}

	s.publish(ctx, events.Event{Type: events.UserLogin, UserID: user.ID, Email: user.Email, Provider: string(models.AuthProviderEmail)})
	return AuthResult{AccessToken: token, User: user}, nil
}

// GoogleAuthURL builds the consent URL. frontendURL is carried through the
// signed state and restored by the GET callback.
func (s *AuthService) GoogleAuthURL(redirectURI, frontendURL, nonce string) (string, error) {
	authURL, err := s.google.BuildAuthorizationURL(redirectURI, frontendURL, nonce)
	if err != nil {
		return "", oauthError(err)
	}
	return authURL, nil
}

// FrontendURL recovers the frontend return URL from a state value, falling
// back to the configured default.
func (s *AuthService) FrontendURL(rawState string) string {
	if rawState != "" {
		if f := s.google.DecodeState(rawState).FrontendURL; f != "" {
			return strings.TrimRight(f, "/")
		}
	}
	return strings.TrimRight(s.cfg.Google.DefaultFrontendURL, "/")
}

// CompleteGoogleCallback exchanges code, loads the Google profile and signs
// the owner of its email in, creating the account on first use. An empty
// redirectURI means the configured default callback.
func (s *AuthService) CompleteGoogleCallback(ctx context.Context, method, code, redirectURI string) (res GoogleLogin, err error) {
	defer func() { metrics.ObserveAuth(method, err) }()

	if strings.TrimSpace(code) == "" {
		return GoogleLogin{}, ErrCodeRequired
	}
	if redirectURI != "" && !s.google.IsAllowedRedirectURI(redirectURI) {
		return GoogleLogin{}, oauthError(fmt.Errorf("%w: %s", oauth.ErrRedirectNotAllowed, redirectURI))
	}

	profile, err := s.googleProfile(ctx, code, redirectURI)
	if err != nil {
		return GoogleLogin{}, err
	}
	return s.signInWithGoogle(ctx, profile)
}

// CompleteOneTap signs in with a Google ID token credential.
func (s *AuthService) CompleteOneTap(ctx context.Context, credential string) (res GoogleLogin, err error) {
	defer func() { metrics.ObserveAuth("google_one_tap", err) }()

	claims := s.google.VerifyIDToken(ctx, credential)
	if claims == nil {
		return GoogleLogin{}, apperrors.Unauthenticated("Invalid Google credential")
	}
	if claims.Email != "" && !claims.EmailVerified {
		return GoogleLogin{}, ErrEmailUnverified
	}

	return s.signInWithGoogle(ctx, oauth.Profile{
		ProviderID:    claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	})
}

func (s *AuthService) googleProfile(ctx context.Context, code, redirectURI string) (oauth.Profile, error) {
	tokens, err := s.google.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return oauth.Profile{}, oauthError(err)
	}
	if tokens.AccessToken == "" {
		return oauth.Profile{}, oauthError(&oauth.ProviderError{
			Op:          "token exchange",
			Code:        "token_exchange_failed",
			Description: "Failed to obtain access token",
		})
	}

	profile, err := s.google.FetchUserProfile(ctx, tokens.AccessToken)
	if err != nil {
		return oauth.Profile{}, oauthError(err)
	}
	return profile, nil
}

// signInWithGoogle upserts the account keyed by email, replaces the user's
// session and issues a bearer token. An existing account keeps its id, role,
// provider and creation time; only the profile fields are refreshed.
func (s *AuthService) signInWithGoogle(ctx context.Context, profile oauth.Profile) (GoogleLogin, error) {
	email := normalizeEmail(profile.Email)
	if email == "" {
		return GoogleLogin{}, ErrNoEmail
	}
	name := security.SanitizeName(profile.Name, s.cfg.Profile.MaxNameLength)
	now := s.now().UTC()

	user, created, err := s.upsertGoogleUser(ctx, email, name, profile, now)
	if err != nil {
		return GoogleLogin{}, err
	}

	session := models.Session{
		UserID:       user.ID,
		SessionToken: ids.New(ids.PrefixSession),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.cfg.Security.SessionTTL),
	}
	if err := s.sessions.UpsertForUser(ctx, session); err != nil {
		return GoogleLogin{}, fmt.Errorf("store session: %w", err)
	}

	token, err := s.tokens.Create(user.ID, user.Email, string(user.Role))
	if err != nil {
		return GoogleLogin{}, err
	}

	s.publish(ctx, events.Event{Type: events.UserGoogleLogin, UserID: user.ID, Email: user.Email, Provider: string(user.AuthProvider), NewAccount: created})
	return GoogleLogin{
		AuthResult:       AuthResult{AccessToken: token, User: user},
		SessionToken:     session.SessionToken,
		SessionExpiresAt: session.ExpiresAt,
		NewAccount:       created,
	}, nil
}

func (s *AuthService) upsertGoogleUser(ctx context.Context, email, name string, profile oauth.Profile, now time.Time) (models.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return s.syncGoogleProfile(ctx, user, name, profile, now)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, false, fmt.Errorf("lookup email: %w", err)
	}

	user = models.User{
		ID:           ids.New(ids.PrefixUser),
		Email:        email,
		Name:         name,
		Role:         models.UserRoleStudent,
		Picture:      optional(profile.Picture),
		AuthProvider: models.AuthProviderGoogle,
		GoogleID:     optional(profile.ProviderID),
		CreatedAt:    now,
		LastLogin:    &now,
	}
	err = s.users.Create(ctx, user)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, repository.ErrEmailTaken) {
		return models.User{}, false, fmt.Errorf("create user: %w", err)
	}

	// lost a race with a concurrent first login for the same email
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return models.User{}, false, fmt.Errorf("lookup email: %w", err)
	}
	return s.syncGoogleProfile(ctx, existing, name, profile, now)
}

func (s *AuthService) syncGoogleProfile(ctx context.Context, user models.User, name string, profile oauth.Profile, now time.Time) (models.User, bool, error) {
	update := models.UserUpdate{LastLogin: &now}
	if name != "" {
		update.Name = &name
	}
	if profile.Picture != "" {
		update.Picture = &profile.Picture
	}
	if profile.ProviderID != "" {
		update.GoogleID = &profile.ProviderID
	}
	if err := s.users.UpdateByEmail(ctx, user.Email, update); err != nil {
		return models.User{}, false, fmt.Errorf("update user: %w", err)
	}
	update.Apply(&user)
	return user, false, nil
}

// ResolveCurrentUser identifies the caller from the session cookie first and
// the bearer token second. The first source that yields a user wins.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, sessionToken, bearer string) (models.User, error) {
	if sessionToken != "" {
		user, err := s.userFromSession(ctx, sessionToken)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrSessionNotFound) && !errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, err
		}
	}

	if bearer != "" {
		if claims, ok := s.tokens.Decode(bearer); ok {
			user, err := s.users.GetByID(ctx, claims.UserID)
			if err == nil {
				return user, nil
			}
			if !errors.Is(err, repository.ErrUserNotFound) {
				return models.User{}, fmt.Errorf("load user: %w", err)
			}
		}
	}

	return models.User{}, apperrors.ErrAuthRequired
}

func (s *AuthService) userFromSession(ctx context.Context, token string) (models.User, error) {
	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		return models.User{}, err
	}
	if !session.Valid(s.now()) {
		return models.User{}, repository.ErrSessionNotFound
	}
	return s.users.GetByID(ctx, session.UserID)
}

// Logout removes the session behind token. A missing session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(ctx, sessionToken); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LinkGoogle attaches the Google identity behind code to user. The Google
// email must equal the account email after lowercasing. Accounts that have a
// password become hybrid; Google-only accounts stay google.
func (s *AuthService) LinkGoogle(ctx context.Context, user models.User, code, redirectURI string) (linked models.User, err error) {
	defer func() { metrics.ObserveAuth("link_google", err) }()

	if strings.TrimSpace(code) == "" {
		return models.User{}, ErrCodeRequired
	}
	if redirectURI != "" && !s.google.IsAllowedRedirectURI(redirectURI) {
		return models.User{}, oauthError(fmt.Errorf("%w: %s", oauth.ErrRedirectNotAllowed, redirectURI))
	}

	profile, err := s.googleProfile(ctx, code, redirectURI)
	if err != nil {
		return models.User{}, err
	}
	if normalizeEmail(profile.Email) != normalizeEmail(user.Email) {
		return models.User{}, ErrEmailMismatch
	}

	update := models.UserUpdate{}
	if profile.ProviderID != "" {
		update.GoogleID = &profile.ProviderID
	}
	if profile.Picture != "" {
		update.Picture = &profile.Picture
	}

	creds, err := s.users.FindCredentialsByEmail(ctx, normalizeEmail(user.Email))
	if err != nil {
		return models.User{}, fmt.Errorf("lookup credentials: %w", err)
	}
	if len(creds.PasswordHash) > 0 && update.GoogleID != nil {
		hybrid := models.AuthProviderHybrid
		update.AuthProvider = &hybrid
	}

	if !update.Empty() {
		if err := s.users.UpdateByID(ctx, user.ID, update); err != nil {
			return models.User{}, fmt.Errorf("link google: %w", err)
		}
	}
	update.Apply(&user)

	s.publish(ctx, events.Event{Type: events.UserGoogleLinked, UserID: user.ID, Email: user.Email, Provider: string(user.AuthProvider)})
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, apperrors.NotFound("User not found")
	}
	return user, err
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now().UTC()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", string(event.Type)).Str("user_id", event.UserID).Msg("publish auth event failed")
	}
}

// oauthError maps OAuth client failures onto the error taxonomy. The
// original error stays reachable through errors.As.
func oauthError(err error) error {
	var pe *oauth.ProviderError
	switch {
	case errors.As(err, &pe):
		return apperrors.Provider(pe.Error()).Wrap(err)
	case errors.Is(err, oauth.ErrNotConfigured):
		return apperrors.ProviderMisconfigured("Google OAuth is not configured").Wrap(err)
	case errors.Is(err, oauth.ErrRedirectNotAllowed):
		return apperrors.Validation("redirect_uri is not allowed").Wrap(err)
	default:
		return err
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
