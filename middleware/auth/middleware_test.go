package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/paygate/services/jwt"
	"github.com/tech-arch1tect/paygate/services/refreshtoken"
	"github.com/tech-arch1tect/paygate/services/user"
	"github.com/tech-arch1tect/paygate/testutils"
	"go.uber.org/zap/zapcore"
)

type spyFinder struct {
	inner UserFinder
	calls int
}

func (s *spyFinder) FindByRefreshID(ctx context.Context, refreshID string) (*user.User, error) {
	s.calls++
	return s.inner.FindByRefreshID(ctx, refreshID)
}

type mockRotator struct {
	mock.Mock
}

func (m *mockRotator) Rotate(ctx context.Context, userID uint, presented string) (*refreshtoken.TokenPair, *user.User, error) {
	args := m.Called(ctx, userID, presented)
	pair, _ := args.Get(0).(*refreshtoken.TokenPair)
	u, _ := args.Get(1).(*user.User)
	return pair, u, args.Error(2)
}

type harness struct {
	codec   *jwt.Service
	expired *jwt.Service
	repo    *user.Repository
	issuer  *refreshtoken.Service
	finder  *spyFinder
	user    *user.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := testutils.GetTestConfig()
	repo := user.NewRepository(testutils.SetupTestDB(t, &user.User{}), nil)
	codec := jwt.NewService(cfg, nil)

	expiredCfg := testutils.GetTestConfig()
	expiredCfg.JWT.AccessExpiry = -time.Minute

	u := &user.User{
		Email:     "ada@example.com",
		Firstname: "Ada",
		Lastname:  "Obi",
		Username:  "ada",
		Password:  "hash",
		Phone:     "+2348012345678",
		Country:   "NG",
		State:     "Lagos",
		Role:      user.RoleUser,
		Status:    user.StatusActive,
		Gender:    user.GenderFemale,
	}
	require.NoError(t, repo.Create(context.Background(), u))

	return &harness{
		codec:   codec,
		expired: jwt.NewService(expiredCfg, nil),
		repo:    repo,
		issuer:  refreshtoken.NewService(repo, codec, cfg, nil),
		finder:  &spyFinder{inner: repo},
		user:    u,
	}
}

func (h *harness) config() *Config {
	return &Config{
		Verifier: h.codec,
		Users:    h.finder,
		Rotator:  h.issuer,
	}
}

func (h *harness) expiredAccess(t *testing.T) string {
	t.Helper()
	token, err := h.expired.SignAccess(h.user.Identity())
	require.NoError(t, err)
	return token
}

type result struct {
	rec      *httptest.ResponseRecorder
	err      error
	called   bool
	identity *jwt.Identity
	fromCtx  *jwt.Identity
}

func run(cfg *Config, headers map[string]string) result {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var res result
	res.rec = rec
	res.err = Middleware(cfg)(func(c echo.Context) error {
		res.called = true
		res.identity = GetIdentity(c)
		res.fromCtx = IdentityFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)

	return res
}

func TestMiddleware_Anonymous(t *testing.T) {
	h := newHarness(t)

	t.Run("no headers", func(t *testing.T) {
		res := run(h.config(), nil)

		require.NoError(t, res.err)
		assert.True(t, res.called)
		assert.Nil(t, res.identity)
		assert.Nil(t, res.fromCtx)
		assert.Zero(t, h.finder.calls)
		assert.Empty(t, res.rec.Header().Get("X-Access-Token"))
		assert.Empty(t, res.rec.Header().Get("X-Refresh-Token"))
		assert.Empty(t, res.rec.Header().Get(echo.HeaderAccessControlExposeHeaders))
	})

	t.Run("lone valid access token stays anonymous by default", func(t *testing.T) {
		access, err := h.codec.SignAccess(h.user.Identity())
		require.NoError(t, err)

		res := run(h.config(), map[string]string{"X-Access-Token": access})

		require.NoError(t, res.err)
		assert.Nil(t, res.identity)
	})

	t.Run("lone valid access token authenticates when allowed", func(t *testing.T) {
		access, err := h.codec.SignAccess(h.user.Identity())
		require.NoError(t, err)
		cfg := h.config()
		cfg.AllowAccessOnly = true

		res := run(cfg, map[string]string{"X-Access-Token": access})

		require.NoError(t, res.err)
		require.NotNil(t, res.identity)
		assert.Equal(t, h.user.Identity(), *res.identity)
	})

	t.Run("lone refresh token is anonymous", func(t *testing.T) {
		refresh, err := h.codec.SignRefresh(h.user.ID, "anything")
		require.NoError(t, err)

		res := run(h.config(), map[string]string{"X-Refresh-Token": refresh})

		require.NoError(t, res.err)
		assert.Nil(t, res.identity)
		assert.Zero(t, h.finder.calls)
	})
}

func TestMiddleware_AccessValid(t *testing.T) {
	h := newHarness(t)
	access, err := h.codec.SignAccess(h.user.Identity())
	require.NoError(t, err)

	for name, refresh := range map[string]string{
		"garbage refresh":  "not-a-token",
		"unsigned refresh": "eyJhbGciOiJIUzI1NiJ9.e30.x",
	} {
		t.Run(name, func(t *testing.T) {
			res := run(h.config(), map[string]string{
				"X-Access-Token":  access,
				"X-Refresh-Token": refresh,
			})

			require.NoError(t, res.err)
			require.NotNil(t, res.identity)
			assert.Equal(t, h.user.Identity(), *res.identity)
			assert.Equal(t, res.identity, res.fromCtx)
			assert.Zero(t, h.finder.calls)
			assert.Empty(t, res.rec.Header().Get("X-Access-Token"))
		})
	}
}

func TestMiddleware_Rotation(t *testing.T) {
	ctx := context.Background()

	t.Run("expired access with a current refresh token rotates", func(t *testing.T) {
		h := newHarness(t)
		pair, err := h.issuer.Issue(ctx, h.user.ID)
		require.NoError(t, err)
		expiredAccess := h.expiredAccess(t)

		res := run(h.config(), map[string]string{
			"X-Access-Token":  expiredAccess,
			"X-Refresh-Token": pair.RefreshToken,
		})

		require.NoError(t, res.err)
		require.NotNil(t, res.identity)
		assert.Equal(t, h.user.Identity(), *res.identity)
		assert.Equal(t, res.identity, res.fromCtx)

		newAccess := res.rec.Header().Get("X-Access-Token")
		newRefresh := res.rec.Header().Get("X-Refresh-Token")
		assert.NotEmpty(t, newAccess)
		assert.NotEqual(t, expiredAccess, newAccess)
		assert.NotEqual(t, pair.RefreshToken, newRefresh)
		assert.Equal(t, "X-Access-Token, X-Refresh-Token", res.rec.Header().Get(echo.HeaderAccessControlExposeHeaders))

		claims, err := h.codec.VerifyRefresh(newRefresh)
		require.NoError(t, err)
		stored, err := h.repo.FindByID(ctx, h.user.ID)
		require.NoError(t, err)
		assert.Equal(t, claims.RefreshID, *stored.RefreshID)

		_, err = h.codec.VerifyAccess(newAccess)
		assert.NoError(t, err)
	})

	t.Run("custom header names are honoured", func(t *testing.T) {
		h := newHarness(t)
		pair, err := h.issuer.Issue(ctx, h.user.ID)
		require.NoError(t, err)
		cfg := h.config()
		cfg.AccessHeader = "X-A"
		cfg.RefreshHeader = "X-R"

		res := run(cfg, map[string]string{
			"X-A": "stale",
			"X-R": pair.RefreshToken,
		})

		require.NoError(t, res.err)
		assert.NotNil(t, res.identity)
		assert.NotEmpty(t, res.rec.Header().Get("X-A"))
		assert.Equal(t, "X-A, X-R", res.rec.Header().Get(echo.HeaderAccessControlExposeHeaders))
	})

	t.Run("superseded refresh identifier is anonymous", func(t *testing.T) {
		h := newHarness(t)
		first, err := h.issuer.Issue(ctx, h.user.ID)
		require.NoError(t, err)
		_, err = h.issuer.Issue(ctx, h.user.ID)
		require.NoError(t, err)

		res := run(h.config(), map[string]string{
			"X-Access-Token":  h.expiredAccess(t),
			"X-Refresh-Token": first.RefreshToken,
		})

		require.NoError(t, res.err)
		assert.True(t, res.called)
		assert.Nil(t, res.identity)
		assert.Equal(t, 1, h.finder.calls)
		assert.Empty(t, res.rec.Header().Get("X-Access-Token"))
		assert.Empty(t, res.rec.Header().Get(echo.HeaderAccessControlExposeHeaders))
	})

	t.Run("refresh identifier owned by another user is anonymous", func(t *testing.T) {
		h := newHarness(t)
		pair, err := h.issuer.Issue(ctx, h.user.ID)
		require.NoError(t, err)
		forged, err := h.codec.SignRefresh(h.user.ID+100, pair.RefreshID)
		require.NoError(t, err)

		res := run(h.config(), map[string]string{
			"X-Access-Token":  h.expiredAccess(t),
			"X-Refresh-Token": forged,
		})

		require.NoError(t, res.err)
		assert.Nil(t, res.identity)
		assert.Empty(t, res.rec.Header().Get("X-Access-Token"))
	})

	t.Run("lost compare-and-swap degrades to anonymous", func(t *testing.T) {
		h := newHarness(t)
		pair, err := h.issuer.Issue(ctx, h.user.ID)
		require.NoError(t, err)

		rotator := &mockRotator{}
		rotator.On("Rotate", mock.Anything, h.user.ID, pair.RefreshID).
			Return(nil, nil, refreshtoken.ErrPersistence)
		logger, recorded := testutils.ObservedLogger(zapcore.WarnLevel)
		cfg := h.config()
		cfg.Rotator = rotator
		cfg.Logger = logger

		res := run(cfg, map[string]string{
			"X-Access-Token":  h.expiredAccess(t),
			"X-Refresh-Token": pair.RefreshToken,
		})

		require.NoError(t, res.err)
		assert.Nil(t, res.identity)
		assert.Empty(t, res.rec.Header().Get("X-Access-Token"))
		assert.Equal(t, 1, recorded.FilterMessage("token rotation failed").Len())
		rotator.AssertExpectations(t)
	})

	t.Run("store failure degrades to anonymous", func(t *testing.T) {
		h := newHarness(t)
		db, _ := testutils.SetupMockDB(t)
		logger, recorded := testutils.ObservedLogger(zapcore.ErrorLevel)
		refresh, err := h.codec.SignRefresh(h.user.ID, "some-refresh-id")
		require.NoError(t, err)

		cfg := h.config()
		cfg.Users = user.NewRepository(db, nil)
		cfg.Logger = logger

		res := run(cfg, map[string]string{
			"X-Access-Token":  h.expiredAccess(t),
			"X-Refresh-Token": refresh,
		})

		require.NoError(t, res.err)
		assert.True(t, res.called)
		assert.Nil(t, res.identity)
		assert.Equal(t, http.StatusOK, res.rec.Code)
		assert.Equal(t, 1, recorded.FilterMessage("refresh lookup failed").Len())
	})
}

func TestMiddleware_Relogin(t *testing.T) {
	h := newHarness(t)

	emptyID, err := h.codec.SignRefresh(h.user.ID, "")
	require.NoError(t, err)
	accessAsRefresh, err := h.codec.SignAccess(h.user.Identity())
	require.NoError(t, err)

	for name, refresh := range map[string]string{
		"malformed refresh":            "garbage",
		"refresh without identifier":   emptyID,
		"access token in refresh slot": accessAsRefresh,
	} {
		t.Run(name, func(t *testing.T) {
			res := run(h.config(), map[string]string{
				"X-Access-Token":  "garbage",
				"X-Refresh-Token": refresh,
			})

			require.Error(t, res.err)
			httpErr, ok := res.err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
			assert.Equal(t, "RELOGIN", httpErr.Message)
			assert.False(t, res.called)
		})
	}

	t.Run("custom relogin handler", func(t *testing.T) {
		cfg := h.config()
		cfg.OnRelogin = func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]any{"errors": []map[string]string{{"message": "RELOGIN"}}})
		}

		res := run(cfg, map[string]string{
			"X-Access-Token":  "garbage",
			"X-Refresh-Token": "garbage",
		})

		require.NoError(t, res.err)
		assert.False(t, res.called)
		assert.Contains(t, res.rec.Body.String(), "RELOGIN")
	})
}

func TestIdentityFromContext(t *testing.T) {
	assert.Nil(t, IdentityFromContext(context.Background()))

	identity := &jwt.Identity{ID: 9}
	assert.Equal(t, identity, IdentityFromContext(WithIdentity(context.Background(), identity)))
}
