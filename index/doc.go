// Package index loads genomic features (VCF, BED, GFF or converted Avro
// files) into a region index held in Redis sorted sets and answers overlap
// queries against it.
//
// Each chromosome of a database namespace is one sorted set scored by the
// 1-based start coordinate:
//
//	<database>:regions:<chrom>   ZSET  member "start-end|kind|name"
//	<database>:chroms            SET   chromosomes with at least one region
//	<database>:loads:<input>     JSON  Manifest of the last load of <input>
package index
