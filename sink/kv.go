package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/tablemix/internal/kvutil"
	"github.com/arloliu/tablemix/internal/logger"
	"github.com/arloliu/tablemix/types"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultKVPrefix is the key prefix used when none is configured.
const DefaultKVPrefix = "tablemix"

// ContainerEntry is the JSON value stored for one container.
type ContainerEntry struct {
	RunID     string                 `json:"runId"`
	State     types.RunState         `json:"state"`
	Container types.ContainerSummary `json:"container"`
	Members   []types.Placement      `json:"members"`
}

// RunEntry is the JSON value stored under the run summary key.
type RunEntry struct {
	RunID             string         `json:"runId"`
	State             types.RunState `json:"state"`
	Attributes        []string       `json:"attributes"`
	Containers        int            `json:"containers"`
	Items             int            `json:"items"`
	TotalScore        float64        `json:"totalScore"`
	TotalViolation    int            `json:"totalViolation"`
	PenaltyViolation  int            `json:"penaltyViolation"`
	PenaltyContainers []int          `json:"penaltyContainers"`
	Stats             types.RunStats `json:"stats"`
}

// KV publishes results into a NATS JetStream key-value bucket.
//
// Key layout, for prefix "tablemix" and run id R:
//
//	tablemix.latest          → R
//	tablemix.R.summary       → RunEntry
//	tablemix.R.container.1   → ContainerEntry for container id 0
//
// Keys of earlier runs under the same prefix are deleted after the new run is
// written, so the bucket holds exactly one run.
type KV struct {
	kv        jetstream.KeyValue
	prefix    string
	keyPrefix string // cached "prefix."
	logger    types.Logger
}

var _ types.ResultSink = (*KV)(nil)

// NewKV creates a KV sink.
//
// Parameters:
//   - kv: Target bucket
//   - prefix: Key prefix (DefaultKVPrefix when empty)
//   - log: Logger (nil disables logging)
//
// Returns:
//   - *KV: Sink ready to publish
//
// Example:
//
//	js, _ := jetstream.New(nc)
//	bucket, _ := kvutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{Bucket: "tablemix"}, 3)
//	out := sink.NewKV(bucket, "seating", log)
func NewKV(kv jetstream.KeyValue, prefix string, log types.Logger) *KV {
	if prefix == "" {
		prefix = DefaultKVPrefix
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &KV{kv: kv, prefix: prefix, keyPrefix: prefix + ".", logger: log}
}

// Name returns "kv".
func (s *KV) Name() string { return "kv" }

// LatestKey returns the key holding the id of the most recent run.
func (s *KV) LatestKey() string { return s.keyPrefix + "latest" }

// SummaryKey returns the run summary key of runID.
func (s *KV) SummaryKey(runID string) string { return s.keyPrefix + runID + ".summary" }

// ContainerKey returns the key of a container (0-based id) of runID.
func (s *KV) ContainerKey(runID string, containerID int) string {
	return s.keyPrefix + runID + ".container." + strconv.Itoa(containerID+1)
}

// Publish writes every container entry, the run summary and the latest pointer,
// then removes keys left by earlier runs.
func (s *KV) Publish(ctx context.Context, result *types.Result) error {
	members := make(map[int][]types.Placement, len(result.Containers))
	for _, p := range result.Placements {
		members[p.ContainerID] = append(members[p.ContainerID], p)
	}

	for _, c := range result.Containers {
		entry := ContainerEntry{
			RunID:     result.RunID,
			State:     result.State,
			Container: c,
			Members:   members[c.ContainerID],
		}
		if err := s.put(ctx, s.ContainerKey(result.RunID, c.ContainerID), entry); err != nil {
			return err
		}
	}

	summary := RunEntry{
		RunID:             result.RunID,
		State:             result.State,
		Attributes:        result.Attributes,
		Containers:        len(result.Containers),
		Items:             len(result.Placements),
		TotalScore:        result.TotalScore,
		TotalViolation:    result.TotalViolation,
		PenaltyViolation:  result.PenaltyViolation,
		PenaltyContainers: result.PenaltyContainers,
		Stats:             result.Stats,
	}
	if err := s.put(ctx, s.SummaryKey(result.RunID), summary); err != nil {
		return err
	}
	if _, err := s.kv.PutString(ctx, s.LatestKey(), result.RunID); err != nil {
		return fmt.Errorf("%w: put %s: %w", types.ErrPublishFailed, s.LatestKey(), err)
	}

	if err := s.cleanupStale(ctx, result.RunID); err != nil {
		s.logger.Warn("stale result cleanup failed", "error", err)
	}

	s.logger.Info("result published to KV",
		"bucket", s.kv.Bucket(),
		"run_id", result.RunID,
		"containers", len(result.Containers),
	)

	return nil
}

func (s *KV) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if _, err := s.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("%w: put %s: %w", types.ErrPublishFailed, key, err)
	}

	return nil
}

// cleanupStale deletes keys of runs other than runID.
func (s *KV) cleanupStale(ctx context.Context, runID string) error {
	keys, err := kvutil.KeysWithPrefix(ctx, s.kv, s.keyPrefix)
	if err != nil {
		return err
	}

	current := s.keyPrefix + runID + "."
	deleted := 0
	for _, key := range keys {
		if key == s.LatestKey() || strings.HasPrefix(key, current) {
			continue
		}
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete stale result key", "key", key, "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		s.logger.Debug("cleaned up stale result keys", "deleted", deleted)
	}

	return nil
}

// Latest reads the summary of the most recently published run.
func (s *KV) Latest(ctx context.Context) (*RunEntry, error) {
	ptr, err := s.kv.Get(ctx, s.LatestKey())
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.LatestKey(), err)
	}
	entry, err := s.kv.Get(ctx, s.SummaryKey(string(ptr.Value())))
	if err != nil {
		return nil, fmt.Errorf("get run summary: %w", err)
	}

	var run RunEntry
	if err := json.Unmarshal(entry.Value(), &run); err != nil {
		return nil, fmt.Errorf("decode run summary: %w", err)
	}

	return &run, nil
}
