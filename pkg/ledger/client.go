package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// txnMaxAttempts bounds optimistic-lock retries before giving up.
const txnMaxAttempts = 10

// Client provides instance-scoped Redis operations for the ledger.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new ledger client for the specified instance.
// The client automatically namespaces all keys and channels with the instance name.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: Drey instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
// Returns an error if Redis is not reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// InstanceName returns the instance this client is scoped to.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// RedisClient exposes the underlying connection for callers that need raw
// operations (SCAN-based listing, cleanup in tests). Prefer the typed methods.
func (c *Client) RedisClient() *redis.Client {
	return c.rdb
}

// Txn runs fn inside a WATCH/MULTI/EXEC transaction over the given keys.
// Reads issued through tx observe pre-transaction state; writes staged on pipe
// are applied atomically when fn returns nil, and not at all when fn returns
// an error. If a watched key is modified concurrently the whole transaction is
// retried from the top, so fn must be safe to run more than once.
//
// This is the only write path for simulation state: every mutation reads its
// preconditions and stages its writes plus journal events inside one Txn call,
// which is what makes failed operations leave no partial state behind.
func (c *Client) Txn(ctx context.Context, fn func(tx *redis.Tx, pipe redis.Pipeliner) error, keys ...string) error {
	for attempt := 0; attempt < txnMaxAttempts; attempt++ {
		err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				return fn(tx, pipe)
			})
			return err
		}, keys...)

		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("transaction aborted after %d attempts: %w", txnMaxAttempts, redis.TxFailedErr)
}

// --- Quantum state ---

// GetQuantumState retrieves a character's quantum record.
// Returns (nil, redis.Nil) if the character was never initialized.
// Use IsNotFound() to check for not-found errors.
func (c *Client) GetQuantumState(ctx context.Context, characterID uint64) (*QuantumState, error) {
	return c.quantumState(ctx, c.rdb, characterID)
}

// QuantumStateTx reads a quantum record through an open transaction.
func (c *Client) QuantumStateTx(ctx context.Context, tx *redis.Tx, characterID uint64) (*QuantumState, error) {
	return c.quantumState(ctx, tx, characterID)
}

func (c *Client) quantumState(ctx context.Context, r redis.Cmdable, characterID uint64) (*QuantumState, error) {
	key := QuantumKey(c.instanceName, characterID)

	hashData, err := r.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read quantum state from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	state, err := HashToQuantum(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize quantum state: %w", err)
	}

	return state, nil
}

// StageQuantumState stages a full write of a quantum record on pipe.
// Validates the record before staging.
func (c *Client) StageQuantumState(ctx context.Context, pipe redis.Pipeliner, q *QuantumState) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("invalid quantum state: %w", err)
	}

	hash, err := QuantumToHash(q)
	if err != nil {
		return fmt.Errorf("failed to serialize quantum state: %w", err)
	}

	pipe.HSet(ctx, QuantumKey(c.instanceName, q.CharacterID), hash)
	return nil
}

// GetBonds retrieves a character's bond map (peer ID to strength).
// Returns an empty map if the character has no bonds (not an error).
func (c *Client) GetBonds(ctx context.Context, characterID uint64) (map[uint64]uint64, error) {
	key := BondsKey(c.instanceName, characterID)

	raw, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read bonds from Redis: %w", err)
	}

	bonds, err := parseUintMap(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bonds: %w", err)
	}

	return bonds, nil
}

// GetBondStrength retrieves the bond strength between two characters.
// Returns 0 if no bond exists (not an error): an unbonded pair has zero strength.
func (c *Client) GetBondStrength(ctx context.Context, a, b uint64) (uint64, error) {
	key := BondsKey(c.instanceName, a)

	raw, err := c.rdb.HGet(ctx, key, uintField(b)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read bond strength from Redis: %w", err)
	}

	strength, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bond strength: %w", err)
	}

	return strength, nil
}

// StageBond stages one direction of a bond strength entry on pipe.
// Callers write both directions to keep the bond map symmetric.
func (c *Client) StageBond(ctx context.Context, pipe redis.Pipeliner, owner, peer, strength uint64) {
	pipe.HSet(ctx, BondsKey(c.instanceName, owner), uintField(peer), strength)
}

// Linked reports whether two characters are entangled.
// Links are symmetric, so the direction queried does not matter.
func (c *Client) Linked(ctx context.Context, a, b uint64) (bool, error) {
	return c.linked(ctx, c.rdb, a, b)
}

// LinkedTx reads link existence through an open transaction.
func (c *Client) LinkedTx(ctx context.Context, tx *redis.Tx, a, b uint64) (bool, error) {
	return c.linked(ctx, tx, a, b)
}

func (c *Client) linked(ctx context.Context, r redis.Cmdable, a, b uint64) (bool, error) {
	key := LinksKey(c.instanceName, a)

	exists, err := r.HExists(ctx, key, uintField(b)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check link existence: %w", err)
	}

	return exists, nil
}

// GetLinks retrieves the sorted peer IDs a character is entangled with.
func (c *Client) GetLinks(ctx context.Context, characterID uint64) ([]uint64, error) {
	key := LinksKey(c.instanceName, characterID)

	fields, err := c.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read links from Redis: %w", err)
	}

	peers := make([]uint64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid link field %q: %w", f, err)
		}
		peers = append(peers, id)
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers, nil
}

// StageLink stages one direction of an adjacency entry on pipe.
// Callers write both directions to keep the relation symmetric.
func (c *Client) StageLink(ctx context.Context, pipe redis.Pipeliner, owner, peer uint64) {
	pipe.HSet(ctx, LinksKey(c.instanceName, owner), uintField(peer), "1")
}

// --- Memetic pattern ---

// GetMemeticPattern assembles a character's full meme state.
// A character that has never sent or received a meme yields a zero-valued
// pattern, not an error: meme state materializes lazily.
func (c *Client) GetMemeticPattern(ctx context.Context, characterID uint64) (*MemeticPattern, error) {
	scalars, err := c.rdb.HGetAll(ctx, MemeKey(c.instanceName, characterID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read meme scalars from Redis: %w", err)
	}

	virality, err := parseUintField(scalars, "virality")
	if err != nil {
		return nil, err
	}

	mutationRate, err := parseUintField(scalars, "mutation_rate")
	if err != nil {
		return nil, err
	}

	memes, err := c.rdb.LRange(ctx, MemesKey(c.instanceName, characterID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read memes from Redis: %w", err)
	}
	if memes == nil {
		memes = []string{}
	}

	rawPaths, err := c.rdb.HGetAll(ctx, PathsKey(c.instanceName, characterID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read propagation paths from Redis: %w", err)
	}

	paths, err := parseUintMap(rawPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to parse propagation paths: %w", err)
	}

	return &MemeticPattern{
		CharacterID:      characterID,
		Memes:            memes,
		Virality:         virality,
		MutationRate:     mutationRate,
		PropagationPaths: paths,
	}, nil
}

// MutationRateTx reads a character's mutation rate through an open transaction.
// Returns 0 if the rate was never set.
func (c *Client) MutationRateTx(ctx context.Context, tx *redis.Tx, characterID uint64) (uint64, error) {
	raw, err := tx.HGet(ctx, MemeKey(c.instanceName, characterID), "mutation_rate").Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read mutation rate from Redis: %w", err)
	}

	rate, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid mutation rate: %w", err)
	}

	return rate, nil
}

// StageMemeAppend stages an append to a character's meme list on pipe.
func (c *Client) StageMemeAppend(ctx context.Context, pipe redis.Pipeliner, characterID uint64, meme string) {
	pipe.RPush(ctx, MemesKey(c.instanceName, characterID), meme)
}

// StageMutationRate stages a mutation rate write on pipe.
func (c *Client) StageMutationRate(ctx context.Context, pipe redis.Pipeliner, characterID, rate uint64) {
	pipe.HSet(ctx, MemeKey(c.instanceName, characterID), "mutation_rate", rate)
}

// StageViralityIncr stages a virality counter increment on pipe.
func (c *Client) StageViralityIncr(ctx context.Context, pipe redis.Pipeliner, characterID uint64) {
	pipe.HIncrBy(ctx, MemeKey(c.instanceName, characterID), "virality", 1)
}

// StagePathIncr stages a propagation path counter increment on pipe.
// The counter lives on the receiving character, keyed by the source.
func (c *Client) StagePathIncr(ctx context.Context, pipe redis.Pipeliner, characterID, sourceID uint64) {
	pipe.HIncrBy(ctx, PathsKey(c.instanceName, characterID), uintField(sourceID), 1)
}

// --- Mind record ---

// GetMindRecord retrieves a character's consciousness scalar record.
// Returns (nil, redis.Nil) if consciousness was never initialized.
func (c *Client) GetMindRecord(ctx context.Context, characterID uint64) (*MindRecord, error) {
	return c.mindRecord(ctx, c.rdb, characterID)
}

// MindRecordTx reads a consciousness record through an open transaction.
func (c *Client) MindRecordTx(ctx context.Context, tx *redis.Tx, characterID uint64) (*MindRecord, error) {
	return c.mindRecord(ctx, tx, characterID)
}

func (c *Client) mindRecord(ctx context.Context, r redis.Cmdable, characterID uint64) (*MindRecord, error) {
	key := MindKey(c.instanceName, characterID)

	hashData, err := r.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read mind record from Redis: %w", err)
	}

	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	record, err := HashToMind(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize mind record: %w", err)
	}

	return record, nil
}

// StageMindRecord stages a full write of a consciousness record on pipe.
// Validates the record before staging.
func (c *Client) StageMindRecord(ctx context.Context, pipe redis.Pipeliner, m *MindRecord) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid mind record: %w", err)
	}

	pipe.HSet(ctx, MindKey(c.instanceName, m.CharacterID), MindToHash(m))
	return nil
}

// GetBeliefs retrieves a character's belief list in append order.
func (c *Client) GetBeliefs(ctx context.Context, characterID uint64) ([]string, error) {
	return c.readList(ctx, BeliefsKey(c.instanceName, characterID))
}

// GetValues retrieves a character's value list in append order.
func (c *Client) GetValues(ctx context.Context, characterID uint64) ([]string, error) {
	return c.readList(ctx, ValuesKey(c.instanceName, characterID))
}

// GetGoals retrieves a character's goal list in append order.
func (c *Client) GetGoals(ctx context.Context, characterID uint64) ([]string, error) {
	return c.readList(ctx, GoalsKey(c.instanceName, characterID))
}

// GoalsTx reads the goal list through an open transaction.
func (c *Client) GoalsTx(ctx context.Context, tx *redis.Tx, characterID uint64) ([]string, error) {
	key := GoalsKey(c.instanceName, characterID)

	goals, err := tx.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", key, err)
	}
	if goals == nil {
		goals = []string{}
	}
	return goals, nil
}

func (c *Client) readList(ctx context.Context, key string) ([]string, error) {
	items, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", key, err)
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

// StageBeliefAppend stages a belief append on pipe.
func (c *Client) StageBeliefAppend(ctx context.Context, pipe redis.Pipeliner, characterID uint64, belief string) {
	pipe.RPush(ctx, BeliefsKey(c.instanceName, characterID), belief)
}

// StageValueAppend stages a value append on pipe.
func (c *Client) StageValueAppend(ctx context.Context, pipe redis.Pipeliner, characterID uint64, value string) {
	pipe.RPush(ctx, ValuesKey(c.instanceName, characterID), value)
}

// StageGoalAppend stages a goal append on pipe.
func (c *Client) StageGoalAppend(ctx context.Context, pipe redis.Pipeliner, characterID uint64, goal string) {
	pipe.RPush(ctx, GoalsKey(c.instanceName, characterID), goal)
}

// GetPriorities retrieves a character's priority map.
// Returns an empty map if none exist (not an error).
func (c *Client) GetPriorities(ctx context.Context, characterID uint64) (map[string]uint64, error) {
	key := PrioritiesKey(c.instanceName, characterID)

	raw, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read priorities from Redis: %w", err)
	}

	priorities, err := parsePriorityMap(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse priorities: %w", err)
	}

	return priorities, nil
}

// GetPriority retrieves a single priority level by value name.
// Returns (0, redis.Nil) if the value has no priority entry.
func (c *Client) GetPriority(ctx context.Context, characterID uint64, name string) (uint64, error) {
	key := PrioritiesKey(c.instanceName, characterID)

	raw, err := c.rdb.HGet(ctx, key, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, redis.Nil
		}
		return 0, fmt.Errorf("failed to read priority from Redis: %w", err)
	}

	priority, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid priority: %w", err)
	}

	return priority, nil
}

// StagePriority stages a priority upsert on pipe. Last write wins.
func (c *Client) StagePriority(ctx context.Context, pipe redis.Pipeliner, characterID uint64, name string, priority uint64) {
	pipe.HSet(ctx, PrioritiesKey(c.instanceName, characterID), name, priority)
}

// GetDecisions retrieves a character's decision history in append order.
func (c *Client) GetDecisions(ctx context.Context, characterID uint64) ([]Decision, error) {
	key := DecisionsKey(c.instanceName, characterID)

	raw, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read decisions from Redis: %w", err)
	}

	decisions := make([]Decision, 0, len(raw))
	for i, entry := range raw {
		d, err := JSONToDecision(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to decode decision at index %d: %w", i, err)
		}
		decisions = append(decisions, *d)
	}

	return decisions, nil
}

// StageDecisionAppend stages a decision history append on pipe.
// Validates the decision before staging.
func (c *Client) StageDecisionAppend(ctx context.Context, pipe redis.Pipeliner, characterID uint64, d *Decision) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid decision: %w", err)
	}

	data, err := DecisionToJSON(d)
	if err != nil {
		return err
	}

	pipe.RPush(ctx, DecisionsKey(c.instanceName, characterID), data)
	return nil
}

// HasBreakthrough reports whether an experience already achieved a breakthrough.
func (c *Client) HasBreakthrough(ctx context.Context, characterID uint64, experience string) (bool, error) {
	return c.hasBreakthrough(ctx, c.rdb, characterID, experience)
}

// HasBreakthroughTx reads breakthrough membership through an open transaction.
func (c *Client) HasBreakthroughTx(ctx context.Context, tx *redis.Tx, characterID uint64, experience string) (bool, error) {
	return c.hasBreakthrough(ctx, tx, characterID, experience)
}

func (c *Client) hasBreakthrough(ctx context.Context, r redis.Cmdable, characterID uint64, experience string) (bool, error) {
	key := BreakthroughsKey(c.instanceName, characterID)

	member, err := r.SIsMember(ctx, key, experience).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check breakthrough membership: %w", err)
	}

	return member, nil
}

// GetBreakthroughs retrieves a character's breakthroughs, sorted for stable output.
func (c *Client) GetBreakthroughs(ctx context.Context, characterID uint64) ([]string, error) {
	key := BreakthroughsKey(c.instanceName, characterID)

	members, err := c.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read breakthroughs from Redis: %w", err)
	}

	sort.Strings(members)
	return members, nil
}

// StageBreakthrough stages a breakthrough set addition on pipe.
func (c *Client) StageBreakthrough(ctx context.Context, pipe redis.Pipeliner, characterID uint64, experience string) {
	pipe.SAdd(ctx, BreakthroughsKey(c.instanceName, characterID), experience)
}

// GetMindSnapshot assembles the full consciousness view of a character.
// Returns (nil, redis.Nil) if consciousness was never initialized.
func (c *Client) GetMindSnapshot(ctx context.Context, characterID uint64) (*MindSnapshot, error) {
	record, err := c.GetMindRecord(ctx, characterID)
	if err != nil {
		return nil, err
	}

	beliefs, err := c.GetBeliefs(ctx, characterID)
	if err != nil {
		return nil, err
	}

	values, err := c.GetValues(ctx, characterID)
	if err != nil {
		return nil, err
	}

	goals, err := c.GetGoals(ctx, characterID)
	if err != nil {
		return nil, err
	}

	priorities, err := c.GetPriorities(ctx, characterID)
	if err != nil {
		return nil, err
	}

	decisions, err := c.GetDecisions(ctx, characterID)
	if err != nil {
		return nil, err
	}

	breakthroughs, err := c.GetBreakthroughs(ctx, characterID)
	if err != nil {
		return nil, err
	}

	return &MindSnapshot{
		MindRecord:    *record,
		Beliefs:       beliefs,
		Values:        values,
		Goals:         goals,
		Priorities:    priorities,
		Decisions:     decisions,
		Breakthroughs: breakthroughs,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
// Use this to check if a Get returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
