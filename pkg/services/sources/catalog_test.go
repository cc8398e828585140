package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Add(t *testing.T) {
	c := NewCatalog()
	ctor := func(deps Dependencies) Source { return NewSnowForecast(deps) }

	require.NoError(t, c.Add("mirror", ctor))
	assert.Error(t, c.Add("mirror", ctor))
	assert.Error(t, c.Add("", ctor))
	assert.Error(t, c.Add("Mirror", ctor))
	assert.Error(t, c.Add("other", nil))
	assert.Equal(t, []string{"mirror"}, c.List())
}

func TestCatalog_Build(t *testing.T) {
	c := BuiltinCatalog()

	t.Run("keeps configured order", func(t *testing.T) {
		// Given
		enabled := []string{PowderSearchName, SnowForecastName, MountainForecastName}

		// When
		all, err := c.Build(enabled, Dependencies{})

		// Then
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, PowderSearchName, all[0].Name())
		assert.Equal(t, SnowForecastName, all[1].Name())
		assert.Equal(t, MountainForecastName, all[2].Name())
	})

	t.Run("normalizes and drops repeats", func(t *testing.T) {
		all, err := c.Build([]string{" SnowForecast", "snowforecast", PowderSearchName}, Dependencies{})

		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, SnowForecastName, all[0].Name())
		assert.Equal(t, PowderSearchName, all[1].Name())
	})

	t.Run("reports every unknown name", func(t *testing.T) {
		_, err := c.Build([]string{"weathernews", SnowForecastName, "tenki"}, Dependencies{})

		require.ErrorIs(t, err, ErrUnknownSource)
		assert.ErrorContains(t, err, "weathernews, tenki")
		assert.ErrorContains(t, err, "known: mountainforecast, powdersearch, snowforecast")
	})

	t.Run("nothing enabled", func(t *testing.T) {
		_, err := c.Build(nil, Dependencies{})
		assert.Error(t, err)
	})
}

func TestCatalog_Status(t *testing.T) {
	got := BuiltinCatalog().Status([]string{SnowForecastName})

	assert.Equal(t, []SourceStatus{
		{Name: MountainForecastName},
		{Name: PowderSearchName},
		{Name: SnowForecastName, Enabled: true},
	}, got)
}
