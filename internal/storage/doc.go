// Package storage wraps the object-storage backends the file manager talks to.
// Two drivers implement Store: an AWS SDK v2 driver for Amazon S3 and a
// minio-go driver for MinIO and other S3-compatible endpoints. Handlers never
// see the backend SDKs directly, only Store and the error helpers here.
package storage
