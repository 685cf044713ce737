package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(Config{Driver: "sqlite", SQLitePath: ":memory:"}, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"}, false)
	assert.Error(t, err)

	_, err = Open(Config{Driver: "postgres"}, false)
	assert.Error(t, err)
}

func TestSettingRepoUpsert(t *testing.T) {
	repo := NewSettingRepoWith(openTestDB(t))

	_, ok, err := repo.Lookup("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set("notify_telegram_token", "a"))
	require.NoError(t, repo.Set("notify_telegram_token", "b"))
	v, err := repo.Get("notify_telegram_token")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	require.NoError(t, repo.SetBatch(map[string]string{"x": "1", "y": "2"}))
	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, repo.Delete("x"))
	_, ok, err = repo.Lookup("x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScopedSettingsIsolatesClients(t *testing.T) {
	repo := NewSettingRepoWith(openTestDB(t))
	a := NewScopedSettings(repo, "alpha")
	b := NewScopedSettings(repo, "beta")

	require.NoError(t, a.Set("krishimitra-language", "hi"))
	v, ok, err := a.Get("krishimitra-language")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hi", v)

	_, ok, err = b.Get("krishimitra-language")
	require.NoError(t, err)
	assert.False(t, ok)

	raw, err := repo.Get("client:alpha:krishimitra-language")
	require.NoError(t, err)
	assert.Equal(t, "hi", raw)
}

func TestActivityRepoListAndCounts(t *testing.T) {
	repo := NewActivityRepoWith(openTestDB(t))
	since := time.Now().Add(-time.Hour)

	for i, lang := range []string{"hi", "hi", "ta"} {
		require.NoError(t, repo.Create(&Activity{
			ClientID: "alpha",
			Category: CategoryLanguage,
			Language: lang,
			Source:   "manual",
			Summary:  fmt.Sprintf("switch %d", i),
		}))
	}
	require.NoError(t, repo.Create(&Activity{ClientID: "beta", Category: CategoryFeedback, Language: "en", Summary: "great"}))

	n, err := repo.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	byLang, err := repo.CountByLanguage(since)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"hi": 2, "ta": 1}, byLang)

	byCat, err := repo.CountByCategory(since)
	require.NoError(t, err)
	assert.EqualValues(t, 3, byCat[CategoryLanguage])
	assert.EqualValues(t, 1, byCat[CategoryFeedback])

	list, total, err := repo.List(ActivityFilter{ClientID: "alpha", PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "switch 2", list[0].Summary)
}

func TestActivityFilterOffset(t *testing.T) {
	f := ActivityFilter{Page: 3, PageSize: 500}
	assert.Equal(t, 200, f.Offset())
	assert.Equal(t, 100, f.PageSize)

	f = ActivityFilter{}
	assert.Equal(t, 0, f.Offset())
	assert.Equal(t, 20, f.PageSize)
}
