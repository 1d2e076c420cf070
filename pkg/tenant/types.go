package tenant

import "time"

// StorageProvider identifies which blob backend a tenant's source files live on.
type StorageProvider string

const (
	ProviderAzure StorageProvider = "azure"
	ProviderS3    StorageProvider = "s3"
	ProviderGCS   StorageProvider = "gcs"
	ProviderMinIO StorageProvider = "minio"
	ProviderLocal StorageProvider = "local"
)

// TableKind distinguishes how a table is loaded.
type TableKind string

const (
	KindDimension TableKind = "dimension"
	KindFact      TableKind = "fact"
)

// LoadMode controls truncate-vs-append semantics for a table run.
type LoadMode string

const (
	LoadModeFullRefresh LoadMode = "full_refresh"
	LoadModeIncremental LoadMode = "incremental"
)

// RegistryEntry is one row of tenant_registry.yaml.
type RegistryEntry struct {
	Slug             string
	UUID             string
	DisplayName      string
	Disabled         bool
	SchedulePriority int
	ConfigDir        string
}

// TenantContext is the fully merged configuration a pipeline run
// operates against. It is produced once by config.Resolver.Get; no code
// in this module mutates it afterward, but its fields are exported and
// nothing prevents a caller from assigning them.
type TenantContext struct {
	Slug            string
	UUID            string
	StorageProvider StorageProvider
	StorageConfig   map[string]string
	Env             map[string]string // flat .env layer, never deep-merged

	Blob       BlobConfig
	StarRocks  StarRocksConfig
	Tables     map[string]*TableSchema
	BusinessConstants ConstantsConfig
	LookupTables map[string]map[string]string // small in-memory tables for RuleLookup, keyed by table name

	frozen bool
}

// Freeze marks the context as finalized. Only Frozen reads the flag; it
// does not guard the exported fields, so a frozen context can still be
// mutated. Resolver.Get always returns a frozen context.
func (c *TenantContext) Freeze() { c.frozen = true }

// Frozen reports whether the context has been finalized by the resolver.
func (c *TenantContext) Frozen() bool { return c.frozen }

// BlobConfig controls download/retry behavior for a tenant's source files.
type BlobConfig struct {
	MaxAttempts        int
	MaxConcurrentBlobs int
	ProgressEvery      int
}

// StarRocksConfig is the tenant's connection and stream-load configuration.
type StarRocksConfig struct {
	Host             string
	HTTPPort         int
	QueryPort        int
	Database         string
	ConnMaxOpen      int
	ConnMaxIdle      int
	ConnMaxLifetime  time.Duration
	ColumnSeparator  byte
	ChunkRowSize     int
	MaxFilterRatio   float64
	TimeoutSeconds   int
}

// ConstantsConfig selects and configures the business-constants backend.
type ConstantsConfig struct {
	Backend    string // "sql", "document", "same_db"
	EnvPrefix  string // e.g. "BC_a1b2c3d4_"
	TableName  string
	BucketPath string
}

// TableSchema describes one tenant table: its source layout, column
// mapping, computed columns, and load behavior.
type TableSchema struct {
	Name        string
	Kind        TableKind
	SourcePath  string
	SourceFormat SourceFormat
	Mapping     ColumnMapping
	Computed    []ComputedColumnRule
	Filters     []string // govaluate predicate expressions, applied last
}

// SourceFormat identifies the raw file format a table's source blobs use.
type SourceFormat string

const (
	FormatCSV     SourceFormat = "csv"
	FormatExcel   SourceFormat = "excel"
	FormatParquet SourceFormat = "parquet"
)

// ColumnMapping renames and types source columns into silver-layer columns.
type ColumnMapping struct {
	Rename     map[string]string // source column -> target column
	Types      map[string]string // target column -> logical type (int64, float64, string, bool, time)
	Cleaning   map[string][]CleaningStep
	OnTypeFail FailurePolicy
}

// FailurePolicy controls what happens when a value can't be coerced to its declared type.
type FailurePolicy string

const (
	FailNull            FailurePolicy = "null"
	FailZero            FailurePolicy = "zero"
	FailFlagAndKeepString FailurePolicy = "flag_and_keep_string"
)

// CleaningStep is a single named cleaning operation applied during type coercion.
type CleaningStep struct {
	Name string // "trim", "uppercase", "round", "parse_date"
	Arg  string // e.g. round precision, or a time layout string
}

// ComputedColumnRule adds a derived column to the silver frame. Kind
// selects which of the *Params fields is populated.
type ComputedColumnRule struct {
	Target     string
	Kind       RuleKind
	Concat     *ConcatParams
	Arithmetic *ArithmeticParams
	Lookup     *LookupParams
	Transform  *TransformParams
}

// RuleKind is the tag of a ComputedColumnRule's variant.
type RuleKind string

const (
	RuleConcat     RuleKind = "concat"
	RuleArithmetic RuleKind = "arithmetic"
	RuleLookup     RuleKind = "lookup"
	RuleTransform  RuleKind = "transform"
)

// ConcatParams joins several columns with a separator.
type ConcatParams struct {
	Columns   []string
	Separator string
}

// ArithmeticParams evaluates a govaluate expression over row columns.
// Division by zero or null yields a null result rather than +Inf/panic.
type ArithmeticParams struct {
	Expression string
}

// LookupParams maps a source column's value through a named static
// table supplied separately to transform.ApplyComputedColumns.
type LookupParams struct {
	SourceColumn string
	Table        string
	Default      string
}

// TransformParams calls a named built-in transform function with arguments.
type TransformParams struct {
	Function string
	Args     map[string]string
}
