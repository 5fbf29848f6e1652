// Package storetest holds behavior tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/basket/pkg/basket"
	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/report"
	"github.com/cognicore/basket/pkg/basket/store"
)

// Run exercises st. st must be empty.
func Run(t *testing.T, st store.Store) {
	ctx := context.Background()

	opts := basket.DefaultOptions()
	opts.MinSupport = 0.5
	res, err := basket.Mine([][]string{
		{"apple", "milk"},
		{"apple", "bread"},
		{"apple", "milk", "bread"},
		{"milk"},
	}, opts)
	require.NoError(t, err)

	b := report.New()
	first := b.Build("first.txt", res)
	time.Sleep(2 * time.Millisecond)
	second := b.Build("second.txt", res)

	t.Run("empty", func(t *testing.T) {
		list, err := st.ListReports(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = st.GetReport(ctx, "missing")
		assert.ErrorIs(t, err, internalerr.ErrNotFound)
	})

	t.Run("save and get", func(t *testing.T) {
		require.NoError(t, st.SaveReport(ctx, first))
		require.NoError(t, st.SaveReport(ctx, second))

		got, err := st.GetReport(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Source, got.Source)
		assert.Equal(t, first.Rules, got.Rules)
		assert.Equal(t, first.Pivot, got.Pivot)
		assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("upsert", func(t *testing.T) {
		first.Source = "renamed.txt"
		require.NoError(t, st.SaveReport(ctx, first))
		got, err := st.GetReport(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed.txt", got.Source)
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := st.ListReports(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
		assert.Equal(t, 4, list[0].Transactions)
		assert.Equal(t, len(second.Rules), list[0].Rules)

		list, err = st.ListReports(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, st.DeleteReport(ctx, first.ID))
		_, err := st.GetReport(ctx, first.ID)
		assert.ErrorIs(t, err, internalerr.ErrNotFound)
		assert.ErrorIs(t, st.DeleteReport(ctx, first.ID), internalerr.ErrNotFound)
		assert.ErrorIs(t, st.DeleteReport(ctx, "no-such-report"), internalerr.ErrNotFound)
	})

	t.Run("reject missing id", func(t *testing.T) {
		err := st.SaveReport(ctx, &report.Report{})
		assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	})

	t.Run("stopwords", func(t *testing.T) {
		stops, err := st.Stopwords(ctx)
		require.NoError(t, err)
		assert.Empty(t, stops)

		require.NoError(t, st.AddStopwords(ctx, []string{"video", "", "really"}))
		require.NoError(t, st.AddStopwords(ctx, []string{"video"}))

		stops, err = st.Stopwords(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"really", "video"}, stops)
	})
}
