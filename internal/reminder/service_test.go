package reminder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/pkg/config"
	"github.com/tradefin/cfaam/pkg/logger"
	"github.com/tradefin/cfaam/pkg/redis"
)

type captureSink struct {
	published []*contracts.RunSummary
}

func (c *captureSink) Publish(summary *contracts.RunSummary) {
	c.published = append(c.published, summary)
}

func noopCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "cfaam")
}

func TestRunForPublishesToSinks(t *testing.T) {
	a := record("CFAAM-001")
	a.InitialAlertDate = scanDay

	scanner := NewScanner(newFakeStore(a), newFakeDispatcher(), logger.NewNop())
	sink := &captureSink{}
	svc := NewService(scanner, noopCache(t), logger.NewNop(), sink)

	summary, err := svc.RunFor(context.Background(), scanDay)
	require.NoError(t, err)

	require.Len(t, sink.published, 1)
	assert.Equal(t, summary, sink.published[0])
	assert.Equal(t, scanDay, summary.RunDate)
}

func TestAddSinkAfterConstruction(t *testing.T) {
	scanner := NewScanner(newFakeStore(), newFakeDispatcher(), logger.NewNop())
	svc := NewService(scanner, noopCache(t), logger.NewNop())

	sink := &captureSink{}
	svc.AddSink(sink)

	_, err := svc.RunFor(context.Background(), scanDay)
	require.NoError(t, err)
	assert.Len(t, sink.published, 1)
}

func TestLastRunWithoutCache(t *testing.T) {
	scanner := NewScanner(newFakeStore(), newFakeDispatcher(), logger.NewNop())
	svc := NewService(scanner, noopCache(t), logger.NewNop())

	summary, ok, err := svc.LastRun(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, summary)
}
