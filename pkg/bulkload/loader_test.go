package bulkload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/loadcheck"
	"github.com/lakeforge/etl/pkg/tenant"
)

// fakeControl is a hand-written controller fake recording Truncate/Widen
// calls instead of issuing real DDL.
type fakeControl struct {
	mu          sync.Mutex
	truncated   []string
	widened     []string
	truncateErr error
	widenErr    error
}

func (f *fakeControl) Truncate(ctx context.Context, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.truncated = append(f.truncated, table)
	return f.truncateErr
}

func (f *fakeControl) WidenColumn(ctx context.Context, table, column string, newWidth int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.widened = append(f.widened, column)
	return f.widenErr
}

// splitHostPort parses an httptest.Server URL into the host/port pair
// Client expects.
func splitHostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return u.Hostname(), port
}

func newTestFrame(t *testing.T, rows int) *frame.Frame {
	t.Helper()
	codeCol := frame.NewColumn("dealer_code", frame.TypeString, rows)
	qtyCol := frame.NewColumn("qty", frame.TypeInt64, rows)
	for i := 0; i < rows; i++ {
		codeCol.Strings[i] = "D" + strconv.Itoa(i)
		qtyCol.Int64s[i] = int64(i)
	}
	f, err := frame.New([]frame.Column{codeCol, qtyCol})
	require.NoError(t, err)
	return f
}

func liveSchemaFor(f *frame.Frame) loadcheck.LiveSchema {
	cols := make([]loadcheck.ColumnMeta, 0, len(f.Columns()))
	for _, c := range f.Columns() {
		cols = append(cols, loadcheck.ColumnMeta{Name: c.Name, DataType: "varchar", CharMaxLength: 255, Nullable: true})
	}
	if len(cols) > 1 {
		cols[1] = loadcheck.ColumnMeta{Name: f.Columns()[1].Name, DataType: "bigint", Nullable: true}
	}
	return loadcheck.LiveSchema{Table: "dim_dealer_master", Columns: cols}
}

func TestLoader_LoadTable_SuccessSingleChunk(t *testing.T) {
	var gotLabels []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLabels = append(gotLabels, r.Header.Get("label"))
		body, _ := io.ReadAll(r.Body)
		rows := strings.Count(string(body), "\n")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Status":           "Success",
			"NumberLoadedRows": rows,
		})
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.URL)
	client := NewClient(host, port, srv.Client())
	control := &fakeControl{}
	f := newTestFrame(t, 3)
	live := liveSchemaFor(f)

	loader := &Loader{Client: client, Control: control, widened: map[string]map[string]bool{}}

	opts := Options{
		Table: "dim_dealer_master", Database: "analytics",
		ColumnSeparator: '\x01', ChunkRowSize: 10, MaxFilterRatio: 0.1,
		TenantSlug: "t-demo", WallClockDate: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
	}

	result, err := loader.LoadTable(context.Background(), f, live, tenant.KindDimension, tenant.LoadModeFullRefresh, opts)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, result.Status)
	require.Equal(t, int64(3), result.RowsLoaded)
	require.Len(t, control.truncated, 1)
	require.Equal(t, "dim_dealer_master", control.truncated[0])
	require.Len(t, gotLabels, 1)
	require.Equal(t, "t-demo_dim_dealer_master_0_20260731", gotLabels[0])
}

func TestLoader_LoadTable_IncrementalSkipsTruncate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Status": "Success", "NumberLoadedRows": 1})
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.URL)
	client := NewClient(host, port, srv.Client())
	control := &fakeControl{}
	f := newTestFrame(t, 1)
	live := liveSchemaFor(f)
	loader := &Loader{Client: client, Control: control, widened: map[string]map[string]bool{}}

	opts := Options{Table: "fact_orders", Database: "analytics", ColumnSeparator: '\x01',
		TenantSlug: "t-demo", WallClockDate: time.Now().UTC()}
	_, err := loader.LoadTable(context.Background(), f, live, tenant.KindFact, tenant.LoadModeIncremental, opts)
	require.NoError(t, err)
	require.Empty(t, control.truncated)
}

func TestLoader_LoadTable_WidensAndRefetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Status": "Success", "NumberLoadedRows": 1})
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.URL)
	client := NewClient(host, port, srv.Client())
	control := &fakeControl{}

	codeCol := frame.NewColumn("dealer_code", frame.TypeString, 1)
	codeCol.Strings[0] = strings.Repeat("X", 300) // overflows a varchar(255) live column
	codeCol.Null[0] = false
	f, err := frame.New([]frame.Column{codeCol})
	require.NoError(t, err)

	narrow := loadcheck.LiveSchema{Table: "dim_dealer_master", Columns: []loadcheck.ColumnMeta{
		{Name: "dealer_code", DataType: "varchar", CharMaxLength: 255, Nullable: true},
	}}
	widened := loadcheck.LiveSchema{Table: "dim_dealer_master", Columns: []loadcheck.ColumnMeta{
		{Name: "dealer_code", DataType: "varchar", CharMaxLength: 512, Nullable: true},
	}}

	refetchCalls := 0
	loader := &Loader{
		Client:  client,
		Control: control,
		Refetch: func(ctx context.Context, database, table string) (loadcheck.LiveSchema, error) {
			refetchCalls++
			return widened, nil
		},
		widened: map[string]map[string]bool{},
	}

	opts := Options{Table: "dim_dealer_master", Database: "analytics", ColumnSeparator: '\x01',
		MaxVarcharWidth: 1024, TenantSlug: "t-demo", WallClockDate: time.Now().UTC()}

	result, err := loader.LoadTable(context.Background(), f, narrow, tenant.KindDimension, tenant.LoadModeFullRefresh, opts)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, result.Status)
	require.Equal(t, 1, refetchCalls)
	require.Equal(t, []string{"dealer_code"}, control.widened)
}

func TestLoader_PostChunkWithRetry_RetriesOnPublishTimeoutThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{"Status": "Publish Timeout", "Message": "timed out"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"Status": "Success", "NumberLoadedRows": 1})
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.URL)
	client := NewClient(host, port, srv.Client())
	loader := &Loader{Client: client, Control: &fakeControl{}, widened: map[string]map[string]bool{}}

	opts := Options{Table: "dim_dealer_master", Database: "analytics", ColumnSeparator: '\x01',
		MaxAttempts: 3, TenantSlug: "t-demo", WallClockDate: time.Now().UTC()}

	result, err := loader.postChunkWithRetry(context.Background(), []byte("D0\x010\n"), "lbl", opts)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, 2, attempts)
}

func TestLoader_PostChunkWithRetry_LabelAlreadyExistsIsIdempotentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Status": "Label Already Exists"})
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.URL)
	client := NewClient(host, port, srv.Client())
	loader := &Loader{Client: client, Control: &fakeControl{}, widened: map[string]map[string]bool{}}

	opts := Options{Table: "dim_dealer_master", Database: "analytics", MaxFilterRatio: 0.1}
	result, err := loader.postChunkWithRetry(context.Background(), []byte("x\n"), "lbl", opts)
	require.NoError(t, err)
	require.Equal(t, StatusLabelAlreadyExists, result.Status)
}

func TestLoader_PostChunkWithRetry_StrictFilterRatioRejectsAnyFiltered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Status": "Success", "NumberFilteredRows": 2})
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.URL)
	client := NewClient(host, port, srv.Client())
	loader := &Loader{Client: client, Control: &fakeControl{}, widened: map[string]map[string]bool{}}

	opts := Options{Table: "dim_dealer_master", Database: "analytics", MaxFilterRatio: 0}
	_, err := loader.postChunkWithRetry(context.Background(), []byte("x\n"), "lbl", opts)
	require.Error(t, err)
	require.True(t, Is(err, KindFilterRatio))
}
