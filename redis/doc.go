// Package redis wraps go-redis with the project's logging, configuration
// conventions and component lifecycle. It backs the region index store.
//
// TypedStore keeps small JSON documents next to the index data:
//
//	manifests := redis.NewTypedStore[Manifest](client, "genes:loads", "genes:inputs")
//	manifests.Save(ctx, "refseq.bed", &m, 0)
package redis
