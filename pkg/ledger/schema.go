package ledger

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name to enable
// multiple Drey instances to safely coexist on a single Redis server.
//
// Key pattern: drey:{instance_name}:{entity}:{character_id}
// Channel pattern: drey:{instance_name}:{subsystem}_events

// QuantumKey returns the Redis key for a character's quantum state hash.
// Pattern: drey:{instance_name}:quantum:{character_id}
func QuantumKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:quantum:%d", instanceName, characterID)
}

// BondsKey returns the Redis key for a character's bond strength hash.
// Fields are peer character IDs, values are bond strengths.
// Pattern: drey:{instance_name}:quantum:{character_id}:bonds
func BondsKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:quantum:%d:bonds", instanceName, characterID)
}

// LinksKey returns the Redis key for a character's entanglement adjacency hash.
// Fields are peer character IDs; presence of a field means the pair is linked.
// Links are written symmetrically and never removed.
// Pattern: drey:{instance_name}:quantum:{character_id}:links
func LinksKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:quantum:%d:links", instanceName, characterID)
}

// MemeKey returns the Redis key for a character's meme scalar hash
// (virality, mutation_rate).
// Pattern: drey:{instance_name}:meme:{character_id}
func MemeKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:meme:%d", instanceName, characterID)
}

// MemesKey returns the Redis key for a character's append-only meme list.
// Pattern: drey:{instance_name}:meme:{character_id}:memes
func MemesKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:meme:%d:memes", instanceName, characterID)
}

// PathsKey returns the Redis key for a character's propagation path hash.
// Fields are source character IDs, values are inbound propagation counts.
// Pattern: drey:{instance_name}:meme:{character_id}:paths
func PathsKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:meme:%d:paths", instanceName, characterID)
}

// MindKey returns the Redis key for a character's consciousness scalar hash.
// Pattern: drey:{instance_name}:mind:{character_id}
func MindKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:mind:%d", instanceName, characterID)
}

// BeliefsKey returns the Redis key for a character's belief list.
// Pattern: drey:{instance_name}:mind:{character_id}:beliefs
func BeliefsKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:mind:%d:beliefs", instanceName, characterID)
}

// ValuesKey returns the Redis key for a character's value list.
// Pattern: drey:{instance_name}:mind:{character_id}:values
func ValuesKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:mind:%d:values", instanceName, characterID)
}

// GoalsKey returns the Redis key for a character's goal list.
// Pattern: drey:{instance_name}:mind:{character_id}:goals
func GoalsKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:mind:%d:goals", instanceName, characterID)
}

// PrioritiesKey returns the Redis key for a character's priority hash.
// Fields are value names, values are priority levels (0-100).
// Pattern: drey:{instance_name}:mind:{character_id}:priorities
func PrioritiesKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:mind:%d:priorities", instanceName, characterID)
}

// DecisionsKey returns the Redis key for a character's decision history list.
// Entries are JSON-encoded Decision records in append order.
// Pattern: drey:{instance_name}:mind:{character_id}:decisions
func DecisionsKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:mind:%d:decisions", instanceName, characterID)
}

// BreakthroughsKey returns the Redis key for a character's breakthrough set.
// Members are experience strings; membership is write-once.
// Pattern: drey:{instance_name}:mind:{character_id}:breakthroughs
func BreakthroughsKey(instanceName string, characterID uint64) string {
	return fmt.Sprintf("drey:%s:mind:%d:breakthroughs", instanceName, characterID)
}

// EventsKey returns the Redis key for the instance's append-only journal list.
// Pattern: drey:{instance_name}:events
func EventsKey(instanceName string) string {
	return fmt.Sprintf("drey:%s:events", instanceName)
}

// DigestKey returns the Redis key for the rolling journal digest.
// The digest folds in every appended event and feeds entropy derivation.
// Pattern: drey:{instance_name}:digest
func DigestKey(instanceName string) string {
	return fmt.Sprintf("drey:%s:digest", instanceName)
}

// ObserverCursorKey returns the Redis key for the observer's journal cursor.
// Pattern: drey:{instance_name}:observer:cursor
func ObserverCursorKey(instanceName string) string {
	return fmt.Sprintf("drey:%s:observer:cursor", instanceName)
}

// EventsChannel returns the Pub/Sub channel name carrying every event.
// Pattern: drey:{instance_name}:events
func EventsChannel(instanceName string) string {
	return fmt.Sprintf("drey:%s:events", instanceName)
}

// QuantumEventsChannel returns the Pub/Sub channel name for entanglement and
// meme events.
// Pattern: drey:{instance_name}:quantum_events
func QuantumEventsChannel(instanceName string) string {
	return fmt.Sprintf("drey:%s:quantum_events", instanceName)
}

// MindEventsChannel returns the Pub/Sub channel name for consciousness events.
// Pattern: drey:{instance_name}:mind_events
func MindEventsChannel(instanceName string) string {
	return fmt.Sprintf("drey:%s:mind_events", instanceName)
}
