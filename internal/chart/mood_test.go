package chart

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_hub/internal/model"
)

func TestBucketByDay(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	entries := []*model.MoodEntry{
		{Score: 5, CreatedAt: today},
		{Score: 3, CreatedAt: today.Add(-2 * time.Hour)},
		{Score: 1, CreatedAt: today.AddDate(0, 0, -2)},
		{Score: 4, CreatedAt: today.AddDate(0, 0, -10)},
	}

	buckets := bucketByDay(entries, 3, today)
	require.Len(t, buckets, 3)

	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), buckets[0].day)
	assert.Equal(t, 1, buckets[0].count)
	assert.Equal(t, 0, buckets[1].count)
	assert.Equal(t, 2, buckets[2].count)
	assert.Equal(t, 4.0, buckets[2].average())
	assert.Equal(t, 0.0, buckets[1].average())
}

func TestRenderMoodProducesPNG(t *testing.T) {
	today := time.Now()
	history := &model.MoodHistory{
		Entries: []*model.MoodEntry{
			{Score: 4, CreatedAt: today},
			{Score: 2, CreatedAt: today.AddDate(0, 0, -1)},
		},
		Summary: model.MoodSummary{Count: 2, Average: 3, StreakDays: 2},
	}

	data, err := RenderMood(history, 30, today)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestRenderMoodEmptyAndInvalid(t *testing.T) {
	_, err := RenderMood(&model.MoodHistory{}, 7, time.Now())
	require.NoError(t, err)

	_, err = RenderMood(&model.MoodHistory{}, 0, time.Now())
	assert.Error(t, err)
}
