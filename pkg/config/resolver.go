package config

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lakeforge/etl/pkg/security"
	"github.com/lakeforge/etl/pkg/tenant"
	"gopkg.in/yaml.v3"
)

// Resolver loads tenant configuration from a directory tree rooted at Root:
//
//	Root/shared/common_business_rules.yaml
//	Root/shared/defaults.yaml
//	Root/starrocks/connection_pool.yaml
//	Root/starrocks/stream_load_defaults.yaml
//	Root/tenants/<slug>/config.yaml
//	Root/tenants/<slug>/.env
//
// Table definitions are read from the merged `tables:` section.
type Resolver struct {
	Root string

	secrets  *security.SecretsManager
	mu       sync.Mutex // guards envCache
	envCache map[string]map[string]*security.TenantSecret
}

// NewResolver constructs a Resolver rooted at dir. It does not read
// anything from disk until ListTenants or Get is called.
//
// Each tenant's .env is read from its on-disk plaintext once per
// process lifetime; subsequent Get calls serve the tenant secrets from
// an in-memory cache that never holds plaintext, only AES-256-GCM
// ciphertext keyed by a process-local key (see pkg/security). Set
// LATTICEFLOW_MASTER_KEY to make that key stable across restarts;
// otherwise a random key is generated and the cache is effectively
// single-process.
func NewResolver(dir string) *Resolver {
	return &Resolver{
		Root:     dir,
		secrets:  newProcessSecretsManager(),
		envCache: map[string]map[string]*security.TenantSecret{},
	}
}

func newProcessSecretsManager() *security.SecretsManager {
	if master := os.Getenv("LATTICEFLOW_MASTER_KEY"); master != "" {
		if sm, err := security.NewSecretsManager(security.DeriveKeyFromMasterSecret(master)); err == nil {
			return sm
		}
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("config: failed to generate secret cache key: " + err.Error())
	}
	sm, err := security.NewSecretsManager(key)
	if err != nil {
		panic("config: " + err.Error())
	}
	return sm
}

// ListTenants parses tenant_registry.yaml and returns entries sorted by
// SchedulePriority ascending. Disabled tenants are omitted unless
// includeDisabled is true.
func (r *Resolver) ListTenants(includeDisabled bool) ([]tenant.RegistryEntry, error) {
	path := filepath.Join(r.Root, "tenant_registry.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newErr(KindMissingFile, path, err)
	}

	var doc struct {
		Tenants []struct {
			Slug             string `yaml:"slug"`
			UUID             string `yaml:"uuid"`
			DisplayName      string `yaml:"display_name"`
			Disabled         bool   `yaml:"disabled"`
			SchedulePriority int    `yaml:"schedule_priority"`
		} `yaml:"tenants"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, newErr(KindInvalidYAML, path, err)
	}

	entries := make([]tenant.RegistryEntry, 0, len(doc.Tenants))
	for _, t := range doc.Tenants {
		if t.Slug == "" {
			return nil, newErr(KindMissingField, path, fmt.Errorf("tenant entry missing slug"))
		}
		if !includeDisabled && t.Disabled {
			continue
		}
		entries = append(entries, tenant.RegistryEntry{
			Slug:             t.Slug,
			UUID:             t.UUID,
			DisplayName:      t.DisplayName,
			Disabled:         t.Disabled,
			SchedulePriority: t.SchedulePriority,
			ConfigDir:        filepath.Join(r.Root, "tenants", t.Slug),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SchedulePriority < entries[j].SchedulePriority
	})
	return entries, nil
}

// Get resolves the full layered configuration for one tenant, matched by
// either its slug or its UUID, and returns a frozen TenantContext.
func (r *Resolver) Get(slug string) (*tenant.TenantContext, error) {
	entries, err := r.ListTenants(true)
	if err != nil {
		return nil, err
	}
	var entry *tenant.RegistryEntry
	for i := range entries {
		if entries[i].Slug == slug || (entries[i].UUID != "" && entries[i].UUID == slug) {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return nil, newErr(KindUnknownTenant, slug, fmt.Errorf("tenant %q not found in registry", slug))
	}

	merged, err := r.mergedYAML(entry.Slug)
	if err != nil {
		return nil, err
	}

	envPath := filepath.Join(entry.ConfigDir, ".env")
	env, err := r.loadEnvCached(entry.Slug, envPath)
	if err != nil {
		return nil, err
	}

	ctx, err := buildTenantContext(*entry, merged, env)
	if err != nil {
		return nil, err
	}
	ctx.Freeze()
	return ctx, nil
}

// mergedYAML loads and deep-merges the five YAML layers, in order:
// shared defaults, starrocks connection pool, starrocks stream-load
// defaults, shared business rules, tenant config — then applies
// {tenant_slug} templating over the merged tree. Each layer is
// unmarshalled once into an untyped map, which is checked for reserved
// secret-shaped keys before merging.
func (r *Resolver) mergedYAML(slug string) (map[string]any, error) {
	layers := []string{
		filepath.Join(r.Root, "shared", "defaults.yaml"),
		filepath.Join(r.Root, "starrocks", "connection_pool.yaml"),
		filepath.Join(r.Root, "starrocks", "stream_load_defaults.yaml"),
		filepath.Join(r.Root, "shared", "common_business_rules.yaml"),
		filepath.Join(r.Root, "tenants", slug, "config.yaml"),
	}

	merged := map[string]any{}
	for _, path := range layers {
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // optional layers (e.g. stream_load_defaults.yaml) may be absent
			}
			return nil, newErr(KindMissingFile, path, err)
		}

		var untyped map[string]any
		if err := yaml.Unmarshal(raw, &untyped); err != nil {
			return nil, newErr(KindInvalidYAML, path, err)
		}
		if err := checkNoSecrets("", untyped); err != nil {
			return nil, newErr(KindSecretInYAML, path, err)
		}

		merged = deepMergeMaps(merged, untyped)
	}

	return applyTemplating(merged, slug).(map[string]any), nil
}

// loadEnvFile reads a flat KEY=VALUE .env file. Unlike the YAML layers,
// this is never deep-merged into the config tree and is exposed to
// callers only through TenantContext.Env.
func loadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, newErr(KindMissingFile, path, err)
	}
	defer f.Close()

	env := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		env[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, newErr(KindInvalidYAML, path, err)
	}
	return env, nil
}

// loadEnvCached returns slug's .env contents, reading and encrypting it
// from disk only the first time it's requested; later calls decrypt
// from the in-memory cache instead of touching the filesystem again.
func (r *Resolver) loadEnvCached(slug, path string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.envCache[slug]; ok {
		env := make(map[string]string, len(cached))
		for key, secret := range cached {
			if secret == nil {
				env[key] = ""
				continue
			}
			plain, err := r.secrets.GetSecretData(secret)
			if err != nil {
				return nil, newErr(KindSecretCache, path, fmt.Errorf("decrypting cached secret %q: %w", key, err))
			}
			env[key] = string(plain)
		}
		return env, nil
	}

	env, err := loadEnvFile(path)
	if err != nil {
		return nil, err
	}

	cached := make(map[string]*security.TenantSecret, len(env))
	for key, val := range env {
		if val == "" {
			cached[key] = nil
			continue
		}
		secret, err := r.secrets.CreateSecret(slug, key, []byte(val))
		if err != nil {
			return nil, newErr(KindSecretCache, path, fmt.Errorf("caching secret %q: %w", key, err))
		}
		cached[key] = secret
	}
	r.envCache[slug] = cached
	return env, nil
}

// buildTenantContext converts the merged untyped tree plus env into a
// typed TenantContext, applying required-field checks.
func buildTenantContext(entry tenant.RegistryEntry, merged map[string]any, env map[string]string) (*tenant.TenantContext, error) {
	storageSection, _ := merged["storage"].(map[string]any)
	provider, _ := storageSection["provider"].(string)
	if provider == "" {
		return nil, newErr(KindMissingField, entry.Slug, fmt.Errorf("storage.provider is required"))
	}

	storageConfig := map[string]string{}
	for k, v := range storageSection {
		if s, ok := v.(string); ok {
			storageConfig[k] = s
		}
	}

	sr := parseStarRocks(merged)
	blobCfg := parseBlobConfig(merged)
	constants := parseConstants(merged, entry.UUID)
	tables, err := parseTables(merged)
	if err != nil {
		return nil, err
	}
	lookupTables := parseLookupTables(merged)

	return &tenant.TenantContext{
		Slug:              entry.Slug,
		UUID:              entry.UUID,
		StorageProvider:   tenant.StorageProvider(provider),
		StorageConfig:     storageConfig,
		Env:               env,
		Blob:              blobCfg,
		StarRocks:         sr,
		Tables:            tables,
		BusinessConstants: constants,
		LookupTables:      lookupTables,
	}, nil
}

// parseLookupTables reads the optional shared `lookup_tables:` section —
// name -> {key -> value} — that RuleLookup computed columns reference by
// name via tenant.LookupParams.Table.
func parseLookupTables(merged map[string]any) map[string]map[string]string {
	section, _ := merged["lookup_tables"].(map[string]any)
	out := make(map[string]map[string]string, len(section))
	for name, raw := range section {
		entries, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		table := make(map[string]string, len(entries))
		for k, v := range entries {
			table[k] = fmt.Sprintf("%v", v)
		}
		out[name] = table
	}
	return out
}

func parseStarRocks(merged map[string]any) tenant.StarRocksConfig {
	sr, _ := merged["starrocks"].(map[string]any)
	cfg := tenant.StarRocksConfig{
		HTTPPort:        8040,
		QueryPort:       9030,
		ConnMaxOpen:     10,
		ConnMaxIdle:     5,
		ColumnSeparator: '\x01',
		ChunkRowSize:    8192,
		MaxFilterRatio:  0.0,
		TimeoutSeconds:  900,
	}
	if host, ok := sr["host"].(string); ok {
		cfg.Host = host
	}
	if db, ok := sr["database"].(string); ok {
		cfg.Database = db
	}
	if v, ok := sr["http_port"].(int); ok {
		cfg.HTTPPort = v
	}
	if v, ok := sr["query_port"].(int); ok {
		cfg.QueryPort = v
	}
	pool, _ := sr["connection_pool"].(map[string]any)
	if v, ok := pool["max_open"].(int); ok {
		cfg.ConnMaxOpen = v
	}
	if v, ok := pool["max_idle"].(int); ok {
		cfg.ConnMaxIdle = v
	}
	streamLoad, _ := sr["stream_load"].(map[string]any)
	if v, ok := streamLoad["chunk_row_size"].(int); ok {
		cfg.ChunkRowSize = v
	}
	if v, ok := streamLoad["max_filter_ratio"].(float64); ok {
		cfg.MaxFilterRatio = v
	}
	if v, ok := streamLoad["column_separator"].(string); ok && len(v) == 1 {
		cfg.ColumnSeparator = v[0]
	}
	return cfg
}

func parseBlobConfig(merged map[string]any) tenant.BlobConfig {
	cfg := tenant.BlobConfig{MaxAttempts: 5, MaxConcurrentBlobs: 1, ProgressEvery: 5}
	blob, _ := merged["blob"].(map[string]any)
	if v, ok := blob["max_attempts"].(int); ok {
		cfg.MaxAttempts = v
	}
	if v, ok := blob["max_concurrent_blobs"].(int); ok {
		cfg.MaxConcurrentBlobs = v
	}
	if v, ok := blob["progress_every"].(int); ok {
		cfg.ProgressEvery = v
	}
	return cfg
}

func parseConstants(merged map[string]any, uuid string) tenant.ConstantsConfig {
	cfg := tenant.ConstantsConfig{Backend: "same_db", TableName: "business_constants"}
	bc, _ := merged["business_constants"].(map[string]any)
	if v, ok := bc["backend"].(string); ok {
		cfg.Backend = v
	}
	if v, ok := bc["table_name"].(string); ok {
		cfg.TableName = v
	}
	if v, ok := bc["bucket_path"].(string); ok {
		cfg.BucketPath = v
	}
	prefix := uuid
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	cfg.EnvPrefix = "BC_" + prefix + "_"
	return cfg
}

func parseTables(merged map[string]any) (map[string]*tenant.TableSchema, error) {
	raw, _ := merged["tables"].(map[string]any)
	out := make(map[string]*tenant.TableSchema, len(raw))
	for name, v := range raw {
		spec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		schema, err := parseTableSchema(name, spec)
		if err != nil {
			return nil, err
		}
		out[name] = schema
	}
	return out, nil
}

func parseTableSchema(name string, spec map[string]any) (*tenant.TableSchema, error) {
	kind, _ := spec["kind"].(string)
	if kind == "" {
		kind = string(tenant.KindFact)
	}
	format, _ := spec["source_format"].(string)
	if format == "" {
		return nil, newErr(KindMissingField, name, fmt.Errorf("table %q missing source_format", name))
	}
	sourcePath, _ := spec["source_path"].(string)

	mapping := tenant.ColumnMapping{
		Rename:     map[string]string{},
		Types:      map[string]string{},
		Cleaning:   map[string][]tenant.CleaningStep{},
		OnTypeFail: tenant.FailNull,
	}
	if m, ok := spec["mapping"].(map[string]any); ok {
		if rename, ok := m["rename"].(map[string]any); ok {
			for k, v := range rename {
				if s, ok := v.(string); ok {
					mapping.Rename[k] = s
				}
			}
		}
		if types, ok := m["types"].(map[string]any); ok {
			for k, v := range types {
				if s, ok := v.(string); ok {
					mapping.Types[k] = s
				}
			}
		}
		if onFail, ok := m["on_type_fail"].(string); ok {
			mapping.OnTypeFail = tenant.FailurePolicy(onFail)
		}
		if cleaning, ok := m["cleaning"].(map[string]any); ok {
			for target, stepsRaw := range cleaning {
				steps, ok := stepsRaw.([]any)
				if !ok {
					continue
				}
				for _, s := range steps {
					step, ok := s.(map[string]any)
					if !ok {
						continue
					}
					name, _ := step["name"].(string)
					if name == "" {
						continue
					}
					arg, _ := step["arg"].(string)
					mapping.Cleaning[target] = append(mapping.Cleaning[target], tenant.CleaningStep{Name: name, Arg: arg})
				}
			}
		}
	}

	var filters []string
	if fs, ok := spec["filters"].([]any); ok {
		for _, f := range fs {
			if s, ok := f.(string); ok {
				filters = append(filters, s)
			}
		}
	}

	computed, err := parseComputedColumns(spec)
	if err != nil {
		return nil, err
	}

	return &tenant.TableSchema{
		Name:         name,
		Kind:         tenant.TableKind(kind),
		SourcePath:   sourcePath,
		SourceFormat: tenant.SourceFormat(format),
		Mapping:      mapping,
		Computed:     computed,
		Filters:      filters,
	}, nil
}

func parseComputedColumns(spec map[string]any) ([]tenant.ComputedColumnRule, error) {
	raw, ok := spec["computed_columns"].([]any)
	if !ok {
		return nil, nil
	}
	var rules []tenant.ComputedColumnRule
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		target, _ := m["target"].(string)
		kind, _ := m["kind"].(string)
		if target == "" || kind == "" {
			return nil, fmt.Errorf("computed column rule missing target or kind")
		}
		rule := tenant.ComputedColumnRule{Target: target, Kind: tenant.RuleKind(kind)}
		switch rule.Kind {
		case tenant.RuleConcat:
			cols, _ := m["columns"].([]any)
			sep, _ := m["separator"].(string)
			var strCols []string
			for _, c := range cols {
				if s, ok := c.(string); ok {
					strCols = append(strCols, s)
				}
			}
			rule.Concat = &tenant.ConcatParams{Columns: strCols, Separator: sep}
		case tenant.RuleArithmetic:
			expr, _ := m["expression"].(string)
			rule.Arithmetic = &tenant.ArithmeticParams{Expression: expr}
		case tenant.RuleLookup:
			src, _ := m["source_column"].(string)
			def, _ := m["default"].(string)
			table, _ := m["table"].(string)
			rule.Lookup = &tenant.LookupParams{SourceColumn: src, Table: table, Default: def}
		case tenant.RuleTransform:
			fn, _ := m["function"].(string)
			args := map[string]string{}
			if a, ok := m["args"].(map[string]any); ok {
				for k, v := range a {
					args[k] = fmt.Sprintf("%v", v)
				}
			}
			rule.Transform = &tenant.TransformParams{Function: fn, Args: args}
		default:
			return nil, fmt.Errorf("unknown computed column rule kind %q", kind)
		}
		rules = append(rules, rule)
	}

	if _, err := tenant.BuildDependencyGraph(rules); err != nil {
		return nil, err
	}
	return rules, nil
}
