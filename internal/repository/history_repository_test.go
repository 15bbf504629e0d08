package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
)

func appendRecord(t *testing.T, repo *HistoryRepository, record *model.HistoryRecord) {
	t.Helper()
	require.NoError(t, repo.Append(context.Background(), record))
}

func TestHistoryRepository_ListForKeyNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	// 显式时间戳保证排序确定
	appendRecord(t, repo, &model.HistoryRecord{ConfigKey: "ocr.language", PreviousValue: "en", NewValue: "zh", ChangedBy: "a", ChangedAt: 1000})
	appendRecord(t, repo, &model.HistoryRecord{ConfigKey: "ocr.language", PreviousValue: "zh", NewValue: "ja", ChangedBy: "b", ChangedAt: 2000})
	appendRecord(t, repo, &model.HistoryRecord{ConfigKey: "ocr.mode", PreviousValue: "fast", NewValue: "accurate", ChangedBy: "c", ChangedAt: 3000})

	page := &model.Pagination{}
	records, err := repo.ListForKey(ctx, "ocr.language", page)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "ja", records[0].NewValue)
	assert.Equal(t, "zh", records[1].NewValue)
}

func TestHistoryRepository_LatestAndCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	appendRecord(t, repo, &model.HistoryRecord{ConfigKey: "ocr.language", PreviousValue: "en", NewValue: "zh", ChangedAt: 1000})
	appendRecord(t, repo, &model.HistoryRecord{ConfigKey: "ocr.language", PreviousValue: "zh", NewValue: "ja", ChangedAt: 2000})

	latest, err := repo.LatestForKey(ctx, "ocr.language")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "ja", latest.NewValue)

	latest, err = repo.LatestForKey(ctx, "no.such.key")
	require.NoError(t, err)
	assert.Nil(t, latest)

	count, err := repo.CountForKey(ctx, "ocr.language")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestHistoryRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	source := int64(7)
	record := &model.HistoryRecord{
		ConfigKey:        "ocr.language",
		PreviousValue:    "zh",
		NewValue:         "en",
		IsRollback:       true,
		RollbackSourceID: &source,
		ChangeReason:     "回滚至历史记录 #7",
		ChangedBy:        "admin",
	}
	appendRecord(t, repo, record)

	got, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsRollback)
	require.NotNil(t, got.RollbackSourceID)
	assert.Equal(t, int64(7), *got.RollbackSourceID)

	got, err = repo.GetByID(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHistoryRepository_VerifyChain(t *testing.T) {
	t.Run("consistent chain", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)
		key := "ocr.confidence_threshold"

		appendRecord(t, repo, &model.HistoryRecord{ConfigKey: key, PreviousValue: "", NewValue: "0.8", ChangeReason: model.ChangeReasonSeed, ChangedAt: 1000})
		appendRecord(t, repo, &model.HistoryRecord{ConfigKey: key, PreviousValue: "0.8", NewValue: "0.85", ChangedAt: 2000})
		appendRecord(t, repo, &model.HistoryRecord{ConfigKey: key, PreviousValue: "0.85", NewValue: "0.9", ChangedAt: 3000})

		ok, err := repo.VerifyChain(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("broken chain", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)
		key := "ocr.confidence_threshold"

		appendRecord(t, repo, &model.HistoryRecord{ConfigKey: key, PreviousValue: "0.8", NewValue: "0.85", ChangedAt: 1000})
		// previous_value 与前一条 new_value 不一致
		appendRecord(t, repo, &model.HistoryRecord{ConfigKey: key, PreviousValue: "0.7", NewValue: "0.9", ChangedAt: 2000})

		ok, err := repo.VerifyChain(context.Background(), key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("seed record resets chain", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)
		key := "ocr.confidence_threshold"

		appendRecord(t, repo, &model.HistoryRecord{ConfigKey: key, PreviousValue: "0.8", NewValue: "0.85", ChangedAt: 1000})
		// 重新播种后链从新起点继续, 不与前驱比较
		appendRecord(t, repo, &model.HistoryRecord{ConfigKey: key, PreviousValue: "", NewValue: "0.75", ChangeReason: model.ChangeReasonSeed, ChangedAt: 2000})
		appendRecord(t, repo, &model.HistoryRecord{ConfigKey: key, PreviousValue: "0.75", NewValue: "0.7", ChangedAt: 3000})

		ok, err := repo.VerifyChain(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("empty and single record chains", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		ok, err := repo.VerifyChain(context.Background(), "no.records")
		require.NoError(t, err)
		assert.True(t, ok)

		appendRecord(t, repo, &model.HistoryRecord{ConfigKey: "single", PreviousValue: "a", NewValue: "b", ChangedAt: 1000})
		ok, err = repo.VerifyChain(context.Background(), "single")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
