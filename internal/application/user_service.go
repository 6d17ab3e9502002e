package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/travelgo/travelgo/config"
	"github.com/travelgo/travelgo/internal/apperr"
	"github.com/travelgo/travelgo/internal/domain/entity"
	repo "github.com/travelgo/travelgo/internal/domain/repository"
	"github.com/travelgo/travelgo/pkg/helpers"
	"github.com/travelgo/travelgo/pkg/mailer"
	tpl "github.com/travelgo/travelgo/pkg/mailer/templates"
)

// Service owns the user flows: sign-up, authentication, password lifecycle,
// profile updates and soft deletion. Every failure it returns is either an
// operational apperr or one of the tagged variants the terminal handler
// classifies.
type Service struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	Redis        *redis.Client
	Logger       *logrus.Logger
	Pub          *helpers.RabbitPublisher
	Cfg          *config.Config
	GCS          *storage.Client
	GCSBucket    string
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, pub *helpers.RabbitPublisher, cfg *config.Config, gcs *storage.Client, gcsBucket string, es *elasticsearch.Client, esUsersIndex string) *Service {
	return &Service{
		Repo:         r,
		JWT:          jwt,
		Redis:        rdb,
		Logger:       logger,
		Pub:          pub,
		Cfg:          cfg,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		ES:           es,
		ESUsersIndex: esUsersIndex,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// RequestContext carries per-request metadata into security-sensitive emails.
type RequestContext struct {
	IP        string
	UserAgent string
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// SignUp creates a new active user and sends the welcome email. The
// plaintext password is staged on the entity and hashed by the credential
// lifecycle inside the repository.
func (s *Service) SignUp(ctx context.Context, in SignUpInput, rc RequestContext) (*entity.User, TokenPair, error) {
	u := entity.NewUser(in.Name, in.Email)
	u.SetPassword(in.Password, in.PasswordConfirm)

	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}

	s.enqueueEmail(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.Welcome,
		Data:     tpl.NewWelcomeData(s.Cfg, u.FirstName(), u.Email),
	})
	_ = s.indexUser(ctx, u)

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Authenticate validates email/password and returns the user without issuing
// tokens. Unknown emails and wrong passwords are indistinguishable to the
// caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, apperr.New("Incorrect email or password", http.StatusUnauthorized)
		}
		return nil, err
	}
	if !u.CorrectPassword(password) {
		return nil, apperr.New("Incorrect email or password", http.StatusUnauthorized)
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"role":       string(u.Role),
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the token pair. The active filter on GetByID means a
// soft-deleted user cannot refresh, and a password change after the refresh
// token was issued invalidates it.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", err
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return TokenPair{}, "", apperr.New("The user belonging to this token does no longer exist.", http.StatusUnauthorized)
		}
		return TokenPair{}, "", err
	}
	if u.ChangedPasswordAfter(claims.IssuedAtUnix()) {
		return TokenPair{}, "", apperr.New("User recently changed password! Please log in again.", http.StatusUnauthorized)
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, apperr.New("No user found with that ID", http.StatusNotFound)
		}
		return nil, err
	}
	return u, nil
}

type UpdateMeInput struct {
	Name  string
	Email string
}

// UpdateMe updates non-credential profile fields. Password changes must go
// through UpdatePassword so the credential lifecycle runs.
func (s *Service) UpdateMe(ctx context.Context, userID string, in UpdateMeInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Email != "" {
		u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// UpdatePassword is the explicit update-and-rehash path for authenticated
// users. The new pair is issued because the change timestamp invalidates all
// previously issued tokens.
func (s *Service) UpdatePassword(ctx context.Context, userID, current, password, passwordConfirm string) (*entity.User, TokenPair, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !u.CorrectPassword(current) {
		return nil, TokenPair{}, apperr.New("Your current password is wrong.", http.StatusUnauthorized)
	}
	u.SetPassword(password, passwordConfirm)
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// ForgotPassword issues a reset token and emails the plaintext to the user.
// Only the token's hash is persisted. If the email cannot be enqueued the
// token is cleared again so a dangling token never outlives its delivery.
func (s *Service) ForgotPassword(ctx context.Context, email string, rc RequestContext) error {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return apperr.New("There is no user with that email address.", http.StatusNotFound)
		}
		return err
	}

	plain, err := u.CreatePasswordResetToken()
	if err != nil {
		return err
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return err
	}

	resetURL := s.Cfg.ResetPasswordURL + "?token=" + plain
	data := tpl.NewPasswordResetData(
		s.Cfg,
		u.FirstName(),
		u.Email,
		resetURL,
		tpl.WithTime(time.Now()),
		tpl.WithExpiresIn(10*time.Minute),
		tpl.WithIP(rc.IP),
		tpl.WithUserAgent(rc.UserAgent),
		tpl.WithGeoFromIP(ctx, tpl.IPAPIResolver{}, rc.IP),
	)
	job := mailer.EmailJob{To: u.Email, Template: tpl.PasswordReset, Data: data}

	if err := s.publishEmail(ctx, job); err != nil {
		u.ClearPasswordResetToken()
		if clearErr := s.Repo.Update(ctx, u); clearErr != nil && s.Logger != nil {
			s.Logger.WithError(clearErr).WithField("user_id", u.ID).Error("failed to clear reset token")
		}
		return apperr.Wrap(err, "There was an error sending the email. Try again later!", http.StatusInternalServerError)
	}
	return nil
}

// ResetPassword consumes a plaintext reset token. The stored hash and expiry
// are checked on the user found by the token's hash; on success the token is
// cleared and the password rehashed by the lifecycle.
func (s *Service) ResetPassword(ctx context.Context, token, password, passwordConfirm string) (*entity.User, TokenPair, error) {
	u, err := s.Repo.GetByResetTokenHash(ctx, entity.HashResetToken(token))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, TokenPair{}, apperr.New("Token is invalid or has expired", http.StatusBadRequest)
		}
		return nil, TokenPair{}, err
	}
	if !u.ResetTokenValid(token, time.Now()) {
		return nil, TokenPair{}, apperr.New("Token is invalid or has expired", http.StatusBadRequest)
	}

	u.SetPassword(password, passwordConfirm)
	u.ClearPasswordResetToken()
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// DeleteMe soft-deletes the user and drops any active session.
func (s *Service) DeleteMe(ctx context.Context, userID string) error {
	if err := s.Repo.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return apperr.New("No user found with that ID", http.StatusNotFound)
		}
		return err
	}
	if s.Redis != nil {
		_ = s.Redis.Del(ctx, sessionKey(userID)).Err()
	}
	return nil
}

// UploadPhoto stores a user photo in GCS and records its public URL.
func (s *Service) UploadPhoto(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("photos", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.Photo = url
	if err := s.Repo.Update(ctx, u); err != nil {
		return "", err
	}
	_ = s.indexUser(ctx, u)
	return url, nil
}

func (s *Service) enqueueEmail(ctx context.Context, job mailer.EmailJob) {
	if err := s.publishEmail(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", job.Template).Warn("failed to enqueue email")
	}
}

func (s *Service) publishEmail(ctx context.Context, job mailer.EmailJob) error {
	if s.Pub == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled {
		return nil
	}
	return s.Pub.PublishJSON(ctx, job)
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       string(u.Role),
		"photo":      u.Photo,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a simple multi_match search on email and name. Admin
// only; backs the user-management screen.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
