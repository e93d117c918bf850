package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkerResponse — строка таблицы workers.
type WorkerResponse struct {
	WorkerID            string `json:"worker_id"`
	Cores               int    `json:"cores"`
	RunRate             *int64 `json:"run_rate"`
	AssembliesCompleted int    `json:"assemblies_completed"`
	ProgramsRun         int64  `json:"programs_run"`
	Status              string `json:"status"`
}

// SolvedResponse — завершённая assembly.
type SolvedResponse struct {
	Assembly          int64 `json:"assembly"`
	ProgramsCompleted int64 `json:"programs_completed"`
}

// ConsoleResponse — состояние кластера.
type ConsoleResponse struct {
	Status      string            `json:"status"`
	SearchID    string            `json:"search_id,omitempty"`
	Solver      string            `json:"solver,omitempty"`
	Total       int64             `json:"total"`
	ProgramsRun int64             `json:"programs_run"`
	Solutions   []json.RawMessage `json:"solutions"`
	Unsolved    []int64           `json:"unsolved"`
	Workers     []WorkerResponse  `json:"workers"`
	Solved      []SolvedResponse  `json:"solved"`
}

// SolverResponse — запись каталога solver.
type SolverResponse struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Total int64  `json:"total"`
	Error string `json:"error,omitempty"`
}

// SearchResponse — поиск из архива.
type SearchResponse struct {
	ID          string `json:"id"`
	SolverText  string `json:"solver_text,omitempty"`
	Depth       int    `json:"depth"`
	Total       int64  `json:"total"`
	Status      string `json:"status"`
	ProgramsRun int64  `json:"programs_run"`
	StartedAt   string `json:"started_at"`
	ExhaustedAt string `json:"exhausted_at,omitempty"`

	// Только в ответе GET /searches/{id}
	Completed      int64             `json:"assemblies_completed,omitempty"`
	LatestSnapshot *SnapshotResponse `json:"latest_snapshot,omitempty"`
}

// SnapshotResponse — срез прогресса.
type SnapshotResponse struct {
	TakenAt         string `json:"taken_at"`
	Status          string `json:"status"`
	Unsolved        int    `json:"unsolved"`
	ProgramsRun     int64  `json:"programs_run"`
	Solutions       int    `json:"solutions"`
	WorkersActive   int    `json:"workers_active"`
	WorkersPaused   int    `json:"workers_paused"`
	WorkersInactive int    `json:"workers_inactive"`
	RunRate         int64  `json:"run_rate"`
}

// ArchivedSolutionResponse — решение из архива.
type ArchivedSolutionResponse struct {
	WorkerID string          `json:"worker_id"`
	Assembly int64           `json:"assembly"`
	Payload  json.RawMessage `json:"payload"`
	FoundAt  string          `json:"found_at"`
}

// --- Request types ---

// ConsoleRequest — команда оператора.
type ConsoleRequest struct {
	Command    string  `json:"command"`
	Solver     *string `json:"solver,omitempty"`
	SolverName string  `json:"solver_name,omitempty"`
}

// PageOpts — параметры постраничной выборки архива.
type PageOpts struct {
	Limit  int
	Offset int
}

func (p PageOpts) values() url.Values {
	params := url.Values{}
	if p.Limit > 0 {
		params.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		params.Set("offset", strconv.Itoa(p.Offset))
	}
	return params
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ErrNoArchive — адрес архива не задан.
var ErrNoArchive = errors.New("archive URL is not configured (use --archive-url)")

// --- Client ---

// Client — HTTP-клиент для API координатора и архива.
type Client struct {
	baseURL    string
	archiveURL string
	user       string
	password   string
	httpClient *http.Client
}

// ClientConfig — параметры Client.
type ClientConfig struct {
	// URL — адрес координатора.
	URL string

	// ArchiveURL — адрес archiver'а (опционально).
	ArchiveURL string

	// User, Password — basic auth консоли.
	User     string
	Password string
}

// NewClient создаёт клиент для API.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		baseURL:    cfg.URL,
		archiveURL: cfg.ArchiveURL,
		user:       cfg.User,
		password:   cfg.Password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Console ---

// Console возвращает состояние кластера.
func (c *Client) Console() (*ConsoleResponse, error) {
	var view ConsoleResponse
	err := c.get(c.baseURL, "/api/v1/console", &view)
	return &view, err
}

// Command отправляет команду оператора (run, pause, unpause, stop).
func (c *Client) Command(command string) (*ConsoleResponse, error) {
	var view ConsoleResponse
	err := c.post(c.baseURL, "/api/v1/console", ConsoleRequest{Command: command}, &view)
	return &view, err
}

// Reset загружает solver: текстом или по имени из каталога.
func (c *Client) Reset(solverText, solverName string) (*ConsoleResponse, error) {
	req := ConsoleRequest{Command: "reset", SolverName: solverName}
	if solverName == "" {
		req.Solver = &solverText
	}

	var view ConsoleResponse
	err := c.post(c.baseURL, "/api/v1/console", req, &view)
	return &view, err
}

// Solvers возвращает каталог solver-файлов.
func (c *Client) Solvers() ([]SolverResponse, error) {
	var list []SolverResponse
	err := c.list(c.baseURL, "/api/v1/solvers", nil, &list)
	return list, err
}

// --- Archive ---

// ListSearches возвращает поиски из архива.
func (c *Client) ListSearches(opts PageOpts) ([]SearchResponse, error) {
	if c.archiveURL == "" {
		return nil, ErrNoArchive
	}
	var searches []SearchResponse
	err := c.list(c.archiveURL, "/api/v1/searches", opts.values(), &searches)
	return searches, err
}

// GetSearch возвращает поиск по ID.
func (c *Client) GetSearch(id string) (*SearchResponse, error) {
	if c.archiveURL == "" {
		return nil, ErrNoArchive
	}
	var search SearchResponse
	err := c.get(c.archiveURL, "/api/v1/searches/"+url.PathEscape(id), &search)
	return &search, err
}

// ListArchivedSolutions возвращает решения поиска.
func (c *Client) ListArchivedSolutions(id string, opts PageOpts) ([]ArchivedSolutionResponse, error) {
	if c.archiveURL == "" {
		return nil, ErrNoArchive
	}
	var solutions []ArchivedSolutionResponse
	err := c.list(c.archiveURL, "/api/v1/searches/"+url.PathEscape(id)+"/solutions", opts.values(), &solutions)
	return solutions, err
}

// --- HTTP helpers ---

func (c *Client) get(base, path string, result any) error {
	return c.doData(http.MethodGet, base, path, nil, result)
}

func (c *Client) post(base, path string, body any, result any) error {
	return c.doData(http.MethodPost, base, path, body, result)
}

func (c *Client) list(base, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, base, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, base, path string, body any, result any) error {
	resp, err := c.do(method, base, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, base, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, base+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if base == c.baseURL && c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	slog.Debug("api request",
		"method", method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error.Code == "" {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
