package auth

import (
	"context"
	"testing"
	"time"

	"chakravyuh-round/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	teams  map[string]domain.Team
	judges map[string]domain.Judge
}

func (d stubDirectory) TeamByAccessToken(_ context.Context, token string) (domain.Team, error) {
	if t, ok := d.teams[token]; ok {
		return t, nil
	}
	return domain.Team{}, domain.ErrNotFound
}

func (d stubDirectory) JudgeByUsername(_ context.Context, username string) (domain.Judge, error) {
	if j, ok := d.judges[username]; ok {
		return j, nil
	}
	return domain.Judge{}, domain.ErrNotFound
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	dir := stubDirectory{
		teams:  map[string]domain.Team{"team-token": {ID: 4, Code: "T4", Name: "Vyuh"}},
		judges: map[string]domain.Judge{"judge": {ID: 9, Username: "judge", PasswordHash: hash}},
	}
	return NewService(dir, "test-secret", time.Hour)
}

func TestJudgeLogin(t *testing.T) {
	svc := newTestService(t)

	token, judge, err := svc.JudgeLogin(context.Background(), " judge ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(9), judge.ID)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleJudge, claims.Role)
	assert.True(t, claims.IsJudge())
	assert.NotEmpty(t, claims.ID)
	id, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	_, _, err = svc.JudgeLogin(context.Background(), "judge", "wrong")
	assert.ErrorIs(t, err, domain.ErrAuth)
	_, _, err = svc.JudgeLogin(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestParticipantAccess(t *testing.T) {
	svc := newTestService(t)

	token, team, err := svc.ParticipantAccess(context.Background(), "team-token")
	require.NoError(t, err)
	assert.Equal(t, "Vyuh", team.Name)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleParticipant, claims.Role)
	assert.False(t, claims.IsJudge())

	_, _, err = svc.ParticipantAccess(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrAuth)
	_, _, err = svc.ParticipantAccess(context.Background(), "other")
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Issue(RoleAdmin, 1, "root")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.True(t, claims.IsJudge(), "admins use the judge panel")

	other := NewService(stubDirectory{}, "another-secret", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuth)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuth)

	_, err = svc.Verify("not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestClaimsContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{Role: RoleJudge})
	c, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, RoleJudge, c.Role)
}
