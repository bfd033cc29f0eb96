package settings

import (
	"context"
	"testing"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, storage.KV) {
	t.Helper()
	mr := miniredis.RunT(t)
	kv := storage.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { kv.Close() })
	return NewStore(kv, nil), kv
}

func TestLoad_Defaults(t *testing.T) {
	s, _ := newTestStore(t)

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, st.LoggedIn())

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLoad_CorruptRecord(t *testing.T) {
	s, kv := newTestStore(t)
	require.NoError(t, kv.Set(context.Background(), storage.KeyUser, []byte("garbage")))

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.Settings{}, st)
}

func TestSignInAndOut(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.SetLocation(ctx, domain.Coordinates{Lat: 6.9, Lon: 79.8})
	require.NoError(t, err)
	_, err = s.Update(ctx, func(st *domain.Settings) { st.Language = "si" })
	require.NoError(t, err)

	st, err := s.SignIn(ctx, "jwt", "u1", "Nimal", "n@example.com")
	require.NoError(t, err)
	assert.True(t, st.LoggedIn())

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)

	_, err = s.SetAddress(ctx, "12 Temple Rd")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx))
	st, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Token)
	assert.Empty(t, st.UserID)
	assert.Empty(t, st.Address)
	assert.Equal(t, "si", st.Language)
	require.NotNil(t, st.Location)
	assert.Equal(t, 6.9, st.Location.Lat)
}
