package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/connector/core"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	src := core.ExtractorFunc[models.RateRecord](func(context.Context) ([]models.RateRecord, error) {
		return nil, nil
	})
	dst := core.LoaderFunc[models.NormalizedRateRecord](func(context.Context, []models.NormalizedRateRecord) error {
		return nil
	})

	require.NoError(t, r.RegisterSource("stub", "stub source", func(*config.Config) (RateSource, error) { return src, nil }))
	require.NoError(t, r.RegisterDestination("b-sink", "second", func(*config.Config) (RateDestination, error) { return dst, nil }))
	require.NoError(t, r.RegisterDestination("a-sink", "first", func(*config.Config) (RateDestination, error) {
		return nil, errors.New(errors.ErrorTypeFile, "cannot open")
	}))

	t.Run("duplicate", func(t *testing.T) {
		err := r.RegisterSource("stub", "", nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("create", func(t *testing.T) {
		got, err := r.CreateSource("stub", config.Default())
		require.NoError(t, err)
		assert.NotNil(t, got)

		_, err = r.CreateDestination("b-sink", config.Default())
		require.NoError(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := r.CreateSource("missing", config.Default())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source connector missing not found")

		_, err = r.CreateDestination("missing", config.Default())
		require.Error(t, err)
	})

	t.Run("factory failure", func(t *testing.T) {
		_, err := r.CreateDestination("a-sink", config.Default())
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		assert.Contains(t, err.Error(), "cannot open")
	})

	t.Run("list", func(t *testing.T) {
		dests := r.ListDestinations()
		require.Len(t, dests, 2)
		assert.Equal(t, "a-sink", dests[0].Name)
		assert.Equal(t, "b-sink", dests[1].Name)
		assert.Equal(t, core.ConnectorTypeDestination, dests[0].Type)

		srcs := r.ListSources()
		require.Len(t, srcs, 1)
		assert.Equal(t, "stub source", srcs[0].Description)

		assert.True(t, r.HasSource("stub"))
		assert.False(t, r.HasDestination("stub"))
	})
}
