package settings

import (
	"os"
	"testing"

	"github.com/clubcal/clubcal/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var pool *pgxpool.Pool
var truncate func()

func TestMain(m *testing.M) {
	container, db, reset := test_utils.TestWithDB()
	pool, truncate = db, reset
	code := m.Run()
	pool.Close()
	if err := testcontainers.TerminateContainer(container); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func TestRepositoryImpl_Get_EmptyDocument(t *testing.T) {
	t.Cleanup(truncate)
	repo := NewRepository(pool)

	doc, err := repo.Get(ctx)

	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestRepositoryImpl_Merge(t *testing.T) {
	// given
	t.Cleanup(truncate)
	repo := NewRepository(pool)
	_, err := repo.Merge(ctx, map[string]any{KeyClubName: "Club de Tenis", KeyHolidaysSeeded: true})
	require.NoError(t, err)

	// when
	merged, err := repo.Merge(ctx, map[string]any{KeyClubName: "Club de Pádel"})

	// then
	require.NoError(t, err)
	expected := map[string]any{KeyClubName: "Club de Pádel", KeyHolidaysSeeded: true}
	assert.Equal(t, expected, merged)
	doc, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, doc)
}

func TestServiceImpl_WithDatabase(t *testing.T) {
	t.Cleanup(truncate)
	service := NewService(NewRepository(pool), nil, defaultName)
	require.NoError(t, service.SetClubName(ctx, "Club Náutico"))

	reloaded := NewService(NewRepository(pool), nil, defaultName)
	require.NoError(t, reloaded.Init(ctx))

	assert.Equal(t, "Club Náutico", reloaded.ClubName())
}
