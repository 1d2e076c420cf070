package bulkload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// StreamStatus is the database's reported outcome for one chunk POST.
type StreamStatus string

const (
	StatusSuccess           StreamStatus = "Success"
	StatusFail              StreamStatus = "Fail"
	StatusPublishTimeout    StreamStatus = "Publish Timeout"
	StatusLabelAlreadyExists StreamStatus = "Label Already Exists"
)

// chunkResult is one chunk POST's raw stream-load outcome (spec.md §6.4
// response body). Loader.LoadTable aggregates these across a table's
// chunks into the spec's table-level LoadResult (spec.md §3).
type chunkResult struct {
	Status         StreamStatus
	RowsLoaded     int64
	RowsFiltered   int64
	RowsUnselected int64
	ErrorURL       string
	Message        string
}

// streamLoadResponse is the raw JSON body the endpoint returns.
type streamLoadResponse struct {
	Status             string `json:"Status"`
	NumberLoadedRows   int64  `json:"NumberLoadedRows"`
	NumberFilteredRows int64  `json:"NumberFilteredRows"`
	NumberUnselectedRows int64 `json:"NumberUnselectedRows"`
	ErrorURL           string `json:"ErrorURL"`
	Message            string `json:"Message"`
}

// Client issues stream-load HTTP PUT requests per spec.md §6.4. It
// holds no table-kind/mode business logic — that lives in Loader.
type Client struct {
	HTTP *http.Client

	Host     string
	HTTPPort int
}

// NewClient builds a stream-load Client targeting host:httpPort.
func NewClient(host string, httpPort int, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{HTTP: httpClient, Host: host, HTTPPort: httpPort}
}

// ChunkRequest carries everything one stream-load POST needs.
type ChunkRequest struct {
	Database        string
	Table           string
	Label           string
	ColumnSeparator byte
	Timeout         int
	MaxFilterRatio  float64
	StrictMode      bool
	Body            []byte
}

// PostChunk issues the PUT for one chunk and decodes the JSON response
// into a chunkResult. It does not retry or classify the result —
// Loader.postChunkWithRetry owns that.
func (c *Client) PostChunk(ctx context.Context, req ChunkRequest) (chunkResult, error) {
	url := fmt.Sprintf("http://%s:%d/api/%s/%s/_stream_load", c.Host, c.HTTPPort, req.Database, req.Table)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(req.Body))
	if err != nil {
		return chunkResult{}, fmt.Errorf("bulkload: build stream-load request: %w", err)
	}
	httpReq.Header.Set("label", req.Label)
	httpReq.Header.Set("format", "csv")
	httpReq.Header.Set("column_separator", string(req.ColumnSeparator))
	httpReq.Header.Set("row_delimiter", "\\n")
	httpReq.Header.Set("max_filter_ratio", strconv.FormatFloat(req.MaxFilterRatio, 'f', -1, 64))
	httpReq.Header.Set("strict_mode", strconv.FormatBool(req.StrictMode))
	httpReq.Header.Set("timeout", strconv.Itoa(req.Timeout))
	httpReq.Header.Set("Expect", "100-continue")
	httpReq.ContentLength = int64(len(req.Body))

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return chunkResult{}, fmt.Errorf("bulkload: stream-load POST %s: %w", req.Table, err)
	}
	defer resp.Body.Close()

	var body streamLoadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return chunkResult{}, fmt.Errorf("bulkload: decode stream-load response for %s: %w", req.Table, err)
	}

	return chunkResult{
		Status:         StreamStatus(body.Status),
		RowsLoaded:     body.NumberLoadedRows,
		RowsFiltered:   body.NumberFilteredRows,
		RowsUnselected: body.NumberUnselectedRows,
		ErrorURL:       body.ErrorURL,
		Message:        body.Message,
	}, nil
}
