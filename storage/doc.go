// Package storage publishes converted files to object storage.
//
// Backends register themselves by provider name:
//
//   - storage/local: a directory on the local filesystem
//   - storage/s3: Amazon S3 and S3-compatible services (MinIO)
//
// A Publisher uploads the container file and its metadata side file under a
// configured key prefix, retrying transient failures:
//
//	storage:
//	  enabled: true
//	  provider: "s3"
//	  bucket: "variants"
//	  prefix: "runs/2024-06"
package storage
