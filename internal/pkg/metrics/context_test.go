package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
)

func TestFromContext_NoCollector(t *testing.T) {
	c := FromContext(context.Background())

	require.NotNil(t, c, "FromContext должен вернуть не nil")
	_, isNop := c.(*NopCollector)
	assert.True(t, isNop, "без привязки должен вернуться NopCollector")
}

func TestWithCollector_RoundTrip(t *testing.T) {
	collector, err := NewPrometheusCollector(testConfig(), logging.NewNopLogger())
	require.NoError(t, err)

	ctx := WithCollector(context.Background(), collector)
	got := FromContext(ctx)

	assert.Same(t, collector, got, "должен вернуться привязанный Collector")
}

func TestWithCollector_NilCollector(t *testing.T) {
	ctx := WithCollector(context.Background(), nil)

	c := FromContext(ctx)
	_, isNop := c.(*NopCollector)
	assert.True(t, isNop, "nil Collector не должен привязываться")
}
