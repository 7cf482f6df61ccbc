package sink

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/arloliu/tablemix/internal/kvutil"
	mixtest "github.com/arloliu/tablemix/testing"
	"github.com/arloliu/tablemix/types"
	"github.com/stretchr/testify/require"
)

func TestKV_Publish(t *testing.T) {
	_, nc := mixtest.StartEmbeddedNATS(t)
	bucket := mixtest.CreateJetStreamKV(t, nc, "results")
	ctx := context.Background()

	s := NewKV(bucket, "", mixtest.NewTestLogger(t))
	require.Equal(t, "kv", s.Name())
	require.Equal(t, "tablemix.latest", s.LatestKey())

	result := sampleResult()
	require.NoError(t, s.Publish(ctx, result))

	entry, err := bucket.Get(ctx, s.ContainerKey("run-1", 0))
	require.NoError(t, err)
	var container ContainerEntry
	require.NoError(t, json.Unmarshal(entry.Value(), &container))
	require.Equal(t, "run-1", container.RunID)
	require.Equal(t, types.StateConverged, container.State)
	require.Equal(t, 2, container.Container.Size)
	require.Len(t, container.Members, 2)
	require.Equal(t, "Ada", container.Members[0].Name)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, "run-1", latest.RunID)
	require.Equal(t, 2, latest.Containers)
	require.Equal(t, 3, latest.Items)
	require.InDelta(t, 6.0, latest.TotalScore, 1e-9)
}

func TestKV_PublishReplacesPreviousRun(t *testing.T) {
	_, nc := mixtest.StartEmbeddedNATS(t)
	bucket := mixtest.CreateJetStreamKV(t, nc, "results")
	ctx := context.Background()

	_, err := bucket.Put(ctx, "other.key", []byte("kept"))
	require.NoError(t, err)

	s := NewKV(bucket, "seating", nil)
	require.NoError(t, s.Publish(ctx, sampleResult()))

	second := sampleResult()
	second.RunID = "run-2"
	second.Containers = second.Containers[:1]
	second.Placements = second.Placements[:2]
	require.NoError(t, s.Publish(ctx, second))

	keys, err := kvutil.KeysWithPrefix(ctx, bucket, "seating.")
	require.NoError(t, err)
	require.Equal(t, []string{
		"seating.latest",
		"seating.run-2.container.1",
		"seating.run-2.summary",
	}, keys)

	other, err := bucket.Get(ctx, "other.key")
	require.NoError(t, err)
	require.Equal(t, []byte("kept"), other.Value())

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, "run-2", latest.RunID)
}
