/*
Package blob abstracts source-file discovery and download across the
object storage providers a tenant may use: Azure Blob Storage, S3 (also
serving MinIO and GCS over their S3-compatible APIs), and a local
filesystem provider for development and tests.

Fetcher is the narrow interface every provider implements: List, Open,
Head. Downloader wraps a Fetcher with the engine's download contract —
write to a ".part" file, fsync, atomic rename, transparent gzip
decompression, and exponential-backoff retries via
github.com/cenkalti/backoff/v4, with 403/404 responses classified
permanent so they fail fast instead of retrying.
*/
package blob
