/*
Package security provides at-rest encryption for tenant secrets in the
LatticeFlow engine.

Tenant .env files carry database passwords, object-storage keys, and
business-constants-store credentials — values pkg/config refuses to
accept from YAML (see pkg/config's secret-leak rejection) but which do
need to live somewhere once read from disk, for reuse across job runs
without re-parsing the .env file on every access.

SecretsManager wraps AES-256-GCM: EncryptSecret/DecryptSecret operate on
raw bytes with the nonce prepended to the ciphertext; CreateSecret/
GetSecretData wrap a single named tenant value as a TenantSecret ready
for the in-memory cache. A process-wide key, set once via
SetEngineEncryptionKey (typically derived from an operator-supplied
master secret with DeriveKeyFromMasterSecret), backs the package-level
Encrypt/Decrypt helpers used for anything that doesn't need per-tenant
key separation.
*/
package security
