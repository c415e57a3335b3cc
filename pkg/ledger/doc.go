// Package ledger provides type-safe Go definitions and Redis schema patterns
// for the Drey character ledger.
//
// # Overview
//
// The ledger is the shared state system where all Drey components (simulation
// engines, observer, CLI) interact via well-defined data structures stored in
// Redis. Characters are keyed by numeric ID and carry two independent bundles
// of state: a quantum entanglement record with memetic pattern, and a
// consciousness record. The two subsystems share nothing but the character ID
// namespace and this storage layer.
//
// # Core Concepts
//
// QuantumState records a character's entanglement factor, collapse flag and
// superposition labels. Bonds and links live in nested per-character hashes so
// pairwise state stays queryable field by field.
//
// MemeticPattern assembles a character's meme list, virality, mutation rate
// and propagation paths. Meme state materializes lazily on first propagation.
//
// MindRecord holds consciousness scalars; beliefs, values, goals, priorities,
// decisions and breakthroughs live in nested containers.
//
// Events form an append-only journal. Every successful mutation appends its
// events inside the same Redis transaction as its writes, so the journal is a
// complete, ordered public history. A rolling SHA-256 digest folds in each
// event and serves as chain context for entropy derivation.
//
// # Transactions
//
// All writes go through Client.Txn, a WATCH/MULTI/EXEC wrapper. Operations
// read their preconditions through the transaction, stage every write on the
// pipeline, and either commit completely or leave no trace. Concurrent
// modification of a watched key retries the transaction.
//
// # Multi-Instance Support
//
// All Redis keys and Pub/Sub channels are namespaced by instance name to
// enable multiple Drey instances to safely coexist on a single Redis server
// without interference.
//
// # Usage Example
//
//	import "github.com/dyluth/drey/pkg/ledger"
//
//	client, err := ledger.NewClient(&redis.Options{Addr: "localhost:6379"}, "default-1")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	state, err := client.GetQuantumState(ctx, 7)
//	if ledger.IsNotFound(err) {
//		// character 7 was never initialized
//	}
//
// # Redis Schema
//
// All Redis keys follow the pattern: drey:{instance_name}:{entity}:{character_id}
//
// Quantum state: drey:{instance_name}:quantum:{id} (+ :bonds, :links)
// Meme state: drey:{instance_name}:meme:{id} (+ :memes, :paths)
// Mind state: drey:{instance_name}:mind:{id} (+ :beliefs, :values, :goals,
// :priorities, :decisions, :breakthroughs)
// Journal: drey:{instance_name}:events, digest at drey:{instance_name}:digest
//
// Pub/Sub channels: drey:{instance_name}:events (firehose),
// drey:{instance_name}:quantum_events, drey:{instance_name}:mind_events
package ledger
