package navigation

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"beer-tasting-go/internal/apiclient"
	"beer-tasting-go/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(token string) (*Router, *session.MemoryStore) {
	store := session.NewMemoryStore(token)
	r := NewRouter(DefaultRoutes, store, nil)
	r.BeforeEach(AuthGuard(store))
	return r, store
}

func TestResolve(t *testing.T) {
	r := NewRouter(DefaultRoutes, session.NewMemoryStore(""), nil)

	cases := []struct {
		path   string
		name   string
		params map[string]string
	}{
		{"/", RouteHome, map[string]string{}},
		{"", RouteHome, map[string]string{}},
		{"/about", RouteAbout, map[string]string{}},
		{"/login?next=/rooms", RouteLogin, map[string]string{}},
		{"/register/", RouteRegister, map[string]string{}},
		{"/profile", RouteProfile, map[string]string{}},
		{"/rooms", RouteRoomList, map[string]string{}},
		{"/rooms/new", RouteNewRoom, map[string]string{}},
		{"/rooms/12", RouteRoom, map[string]string{"roomId": "12"}},
		{"/rooms/12/beer/7", RouteBeer, map[string]string{"roomId": "12", "beerId": "7"}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			loc, err := r.Resolve(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.name, loc.Name)
			assert.Equal(t, tc.params, loc.Params)
		})
	}

	loc, err := r.Resolve("/rooms/12/beers")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Empty(t, loc.Name)
	assert.Equal(t, "/rooms/12/beers", loc.Path)
}

func TestResolveName(t *testing.T) {
	r := NewRouter(DefaultRoutes, session.NewMemoryStore(""), nil)

	loc, err := r.ResolveName(RouteBeer, map[string]string{"roomId": "3", "beerId": "9"})
	require.NoError(t, err)
	assert.Equal(t, "/rooms/3/beer/9", loc.Path)

	loc, err = r.ResolveName(RouteRoomList, nil)
	require.NoError(t, err)
	assert.Equal(t, "/rooms", loc.Path)

	_, err = r.ResolveName(RouteRoom, nil)
	assert.ErrorIs(t, err, ErrMissingParam)
	_, err = r.ResolveName("cellar", nil)
	assert.ErrorIs(t, err, ErrUnknownRoute)
}

func TestAuthGuard_SignedOut(t *testing.T) {
	ctx := context.Background()
	r, _ := newRouter("")

	for _, p := range []string{"/", "/login", "/register"} {
		loc, err := r.Push(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, p, loc.Path, "public route stays put")
	}

	for _, p := range []string{"/about", "/profile", "/rooms", "/rooms/new", "/rooms/4", "/rooms/4/beer/2", "/nowhere"} {
		loc, err := r.Push(ctx, p)
		require.NoError(t, err, p)
		assert.Equal(t, RouteLogin, loc.Name, p)
		assert.Equal(t, "/login", loc.Path, p)
	}
}

func TestAuthGuard_SignedIn(t *testing.T) {
	ctx := context.Background()
	r, _ := newRouter("jwt")

	loc, err := r.Push(ctx, "/rooms/4/beer/2")
	require.NoError(t, err)
	assert.Equal(t, RouteBeer, loc.Name)

	_, err = r.Push(ctx, "/nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, RouteBeer, r.Current().Name, "failed navigation does not commit")
}

func TestAuthGuard_CustomPublicSet(t *testing.T) {
	store := session.NewMemoryStore("")
	r := NewRouter(DefaultRoutes, store, nil)
	r.BeforeEach(AuthGuard(store, RouteLogin, RouteAbout))

	loc, err := r.Push(context.Background(), "/about")
	require.NoError(t, err)
	assert.Equal(t, RouteAbout, loc.Name)
	loc, err = r.Push(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, loc.Name)
}

func TestGuards_OrderAndLoops(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore("jwt")
	r := NewRouter(DefaultRoutes, store, nil)

	var seen []string
	r.BeforeEach(func(_ context.Context, to, _ Location) (*Location, error) {
		seen = append(seen, "first:"+to.Name)
		if to.Name == RouteNewRoom {
			return &Location{Path: "/rooms"}, nil
		}
		return nil, nil
	})
	r.BeforeEach(func(_ context.Context, to, _ Location) (*Location, error) {
		seen = append(seen, "second:"+to.Name)
		return nil, nil
	})

	loc, err := r.Push(ctx, "/rooms/new")
	require.NoError(t, err)
	assert.Equal(t, RouteRoomList, loc.Name)
	assert.Equal(t, []string{"first:new-room", "first:roomlist", "second:roomlist"}, seen)

	r.BeforeEach(func(_ context.Context, to, _ Location) (*Location, error) {
		if to.Name == RouteAbout {
			return &Location{Name: RouteAbout}, nil
		}
		return nil, nil
	})
	_, err = r.Push(ctx, "/about")
	assert.ErrorIs(t, err, ErrTooManyRedirects)

	boom := errors.New("boom")
	r.BeforeEach(func(context.Context, Location, Location) (*Location, error) { return nil, boom })
	_, err = r.Push(ctx, "/profile")
	assert.ErrorIs(t, err, boom)
}

func TestPushAndReplaceHistory(t *testing.T) {
	ctx := context.Background()
	r, _ := newRouter("jwt")
	assert.Equal(t, StartLocation, r.Current())

	_, err := r.Push(ctx, "/rooms")
	require.NoError(t, err)
	_, err = r.Push(ctx, "/rooms/1")
	require.NoError(t, err)
	_, err = r.Replace(ctx, "/rooms/2")
	require.NoError(t, err)

	h := r.History()
	require.Len(t, h, 2)
	assert.Equal(t, "/rooms", h[0].Path)
	assert.Equal(t, "/rooms/2", h[1].Path)
}

type verifierFunc func(ctx context.Context) error

func (f verifierFunc) VerifyToken(ctx context.Context) error { return f(ctx) }

func TestCheckToken(t *testing.T) {
	ctx := context.Background()

	t.Run("no token is a no-op", func(t *testing.T) {
		r, _ := newRouter("")
		called := false
		require.NoError(t, r.CheckToken(ctx, verifierFunc(func(context.Context) error { called = true; return nil })))
		assert.False(t, called)
		assert.Empty(t, r.History())
	})

	t.Run("valid token", func(t *testing.T) {
		r, store := newRouter("jwt")
		require.NoError(t, r.CheckToken(ctx, verifierFunc(func(context.Context) error { return nil })))
		tok, _ := store.Token(ctx)
		assert.Equal(t, "jwt", tok)
	})

	t.Run("4xx clears token and goes to login", func(t *testing.T) {
		r, store := newRouter("jwt")
		_, err := r.Push(ctx, "/rooms/3")
		require.NoError(t, err)

		require.NoError(t, r.CheckToken(ctx, verifierFunc(func(context.Context) error {
			return &apiclient.StatusError{Code: http.StatusUnauthorized}
		})))
		tok, _ := store.Token(ctx)
		assert.Empty(t, tok)
		assert.Equal(t, RouteLogin, r.Current().Name)
		assert.Len(t, r.History(), 1, "replace, not push")
	})

	t.Run("network or 5xx keeps token", func(t *testing.T) {
		r, store := newRouter("jwt")
		require.NoError(t, r.CheckToken(ctx, verifierFunc(func(context.Context) error {
			return &apiclient.StatusError{Code: http.StatusBadGateway}
		})))
		require.NoError(t, r.CheckToken(ctx, verifierFunc(func(context.Context) error {
			return errors.New("connection refused")
		})))
		tok, _ := store.Token(ctx)
		assert.Equal(t, "jwt", tok)
	})
}
