package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chakravyuh-round/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role is carried in every token.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleJudge       Role = "judge"
	RoleAdmin       Role = "admin"
)

// Claims identify a team (participant) or a judge. Subject holds the numeric id.
type Claims struct {
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID parses the numeric id out of Subject.
func (c *Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", domain.ErrAuth)
	}
	return id, nil
}

// IsJudge reports whether the token may use the judge panel; admins may.
func (c *Claims) IsJudge() bool {
	return c.Role == RoleJudge || c.Role == RoleAdmin
}

// Directory resolves credentials to accounts.
type Directory interface {
	TeamByAccessToken(ctx context.Context, token string) (domain.Team, error)
	JudgeByUsername(ctx context.Context, username string) (domain.Judge, error)
}

type Service struct {
	dir Directory
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewService(dir Directory, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{dir: dir, key: []byte(secret), ttl: ttl, now: time.Now}
}

// JudgeLogin checks a username and password and returns a judge token.
func (s *Service) JudgeLogin(ctx context.Context, username, password string) (string, domain.Judge, error) {
	judge, err := s.dir.JudgeByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.Judge{}, fmt.Errorf("%w: invalid credentials", domain.ErrAuth)
	}
	if err != nil {
		return "", domain.Judge{}, err
	}
	if err := CheckPassword(judge.PasswordHash, password); err != nil {
		return "", domain.Judge{}, err
	}
	token, err := s.Issue(RoleJudge, judge.ID, judge.Username)
	if err != nil {
		return "", domain.Judge{}, err
	}
	return token, judge, nil
}

// ParticipantAccess exchanges a team's provisioned access token for a session token.
func (s *Service) ParticipantAccess(ctx context.Context, accessToken string) (string, domain.Team, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return "", domain.Team{}, fmt.Errorf("%w: access token is required", domain.ErrAuth)
	}
	team, err := s.dir.TeamByAccessToken(ctx, accessToken)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.Team{}, fmt.Errorf("%w: unknown access token", domain.ErrAuth)
	}
	if err != nil {
		return "", domain.Team{}, err
	}
	token, err := s.Issue(RoleParticipant, team.ID, team.Name)
	if err != nil {
		return "", domain.Team{}, err
	}
	return token, team, nil
}

// Issue signs a token for subject id with role.
func (s *Service) Issue(role Role, id int64, name string) (string, error) {
	now := s.now()
	claims := &Claims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Verify validates a token and returns its claims.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrAuth)
	}
	switch claims.Role {
	case RoleParticipant, RoleJudge, RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrAuth, claims.Role)
	}
	if _, err := claims.SubjectID(); err != nil {
		return nil, err
	}
	return claims, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("%w: invalid credentials", domain.ErrAuth)
	}
	return nil
}

type claimsKey struct{}

// WithClaims stores verified claims on ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// FromContext returns the claims stored by WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}
