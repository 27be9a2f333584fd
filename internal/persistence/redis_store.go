package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/mlind/stepflow/pkg/api"
)

// RedisInstanceStore is an InstanceStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>inst:<id>            => JSON-encoded WorkflowInstance
//	<prefix>idx:all              => SET of all instance IDs
//	<prefix>idx:wf:<workflow>    => SET of instance IDs for a given workflow
//	<prefix>idx:status:<status>  => SET of instance IDs for a given status
//
// The name and status indexes narrow candidate sets; because Save can
// change an instance's status, stale index members are tolerated and
// every candidate is re-checked against its payload before it is
// returned. Time-window and offset/limit filtering happen payload-side.
type RedisInstanceStore struct {
	client *redis.Client
	prefix string
}

var _ InstanceStore = (*RedisInstanceStore)(nil)

// NewRedisInstanceStore creates a RedisInstanceStore.
// prefix is optional but recommended (e.g. "stepflow:").
func NewRedisInstanceStore(client *redis.Client, prefix string) *RedisInstanceStore {
	if prefix == "" {
		prefix = "stepflow:"
	}
	return &RedisInstanceStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisInstanceStore) keyInstance(id string) string {
	return s.prefix + "inst:" + id
}

func (s *RedisInstanceStore) keyAll() string {
	return s.prefix + "idx:all"
}

func (s *RedisInstanceStore) keyWorkflow(name string) string {
	return s.prefix + "idx:wf:" + name
}

func (s *RedisInstanceStore) keyStatus(status api.Status) string {
	return s.prefix + "idx:status:" + string(status)
}

func (s *RedisInstanceStore) Save(ctx context.Context, inst *api.WorkflowInstance) error {
	data, err := json.Marshal(inst)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.keyInstance(inst.ID), data, 0).Err(); err != nil {
		return err
	}

	// Update indexes (best-effort; we don't treat index failures as fatal).
	// Old status memberships are removed so the status sets stay small.
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.keyAll(), inst.ID)
	pipe.SAdd(ctx, s.keyWorkflow(inst.WorkflowName), inst.ID)
	for _, st := range []api.Status{
		api.StatusPending, api.StatusRunning, api.StatusWaiting, api.StatusPaused,
		api.StatusCompleted, api.StatusFailed, api.StatusCancelled,
	} {
		if st == inst.Status {
			pipe.SAdd(ctx, s.keyStatus(st), inst.ID)
		} else {
			pipe.SRem(ctx, s.keyStatus(st), inst.ID)
		}
	}
	_, _ = pipe.Exec(ctx)

	return nil
}

func (s *RedisInstanceStore) Get(ctx context.Context, id string) (*api.WorkflowInstance, error) {
	data, err := s.client.Get(ctx, s.keyInstance(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return decodeRedisInstance(data, id)
}

func (s *RedisInstanceStore) List(ctx context.Context, filter api.InstanceFilter) ([]*api.WorkflowInstance, error) {
	var ids []string
	var err error

	switch {
	case filter.WorkflowName != "" && filter.Status != "":
		ids, err = s.client.SInter(ctx,
			s.keyWorkflow(filter.WorkflowName),
			s.keyStatus(filter.Status),
		).Result()
	case filter.WorkflowName != "":
		ids, err = s.client.SMembers(ctx, s.keyWorkflow(filter.WorkflowName)).Result()
	case filter.Status != "":
		ids, err = s.client.SMembers(ctx, s.keyStatus(filter.Status)).Result()
	default:
		ids, err = s.client.SMembers(ctx, s.keyAll()).Result()
	}
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.keyInstance(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var instances []*api.WorkflowInstance
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Stale index member; the payload was deleted.
				continue
			}
			return nil, err
		}
		inst, err := decodeRedisInstance(data, ids[i])
		if err != nil {
			return nil, err
		}
		if matchesFilter(inst, filter) {
			instances = append(instances, inst)
		}
	}
	return applyWindow(instances, filter), nil
}

func (s *RedisInstanceStore) Delete(ctx context.Context, id string) error {
	inst, err := s.Get(ctx, id)
	if err != nil {
		var nf *api.InstanceNotFoundError
		if errors.As(err, &nf) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keyInstance(id))
	pipe.SRem(ctx, s.keyAll(), id)
	pipe.SRem(ctx, s.keyWorkflow(inst.WorkflowName), id)
	pipe.SRem(ctx, s.keyStatus(inst.Status), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisInstanceStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyInstance(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func decodeRedisInstance(data []byte, id string) (*api.WorkflowInstance, error) {
	if len(data) == 0 {
		return nil, notFound(id)
	}
	var inst api.WorkflowInstance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}
