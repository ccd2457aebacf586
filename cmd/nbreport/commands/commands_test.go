// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/nbreport/cmd/nbreport/cli"
	"github.com/bureau-foundation/nbreport/lib/compute"
	"github.com/bureau-foundation/nbreport/lib/instance"
	"github.com/bureau-foundation/nbreport/lib/notebook"
	"github.com/bureau-foundation/nbreport/lib/repo"
	"github.com/bureau-foundation/nbreport/lib/testutil"
	"github.com/bureau-foundation/nbreport/lib/userconfig"
)

// answerEngine stands in for a kernel: every code cell gets an
// execute_result of 42, or the configured failure is returned.
type answerEngine struct {
	mutex   sync.Mutex
	request compute.Request
	calls   int
	failure error
}

func (e *answerEngine) Execute(_ context.Context, document *notebook.Notebook, request compute.Request) (*notebook.Notebook, error) {
	e.mutex.Lock()
	e.request = request
	e.calls++
	e.mutex.Unlock()
	if e.failure != nil {
		return nil, e.failure
	}
	data, err := document.Bytes()
	if err != nil {
		return nil, err
	}
	executed, err := notebook.Parse(data)
	if err != nil {
		return nil, err
	}
	for _, cell := range executed.Cells {
		if cell.Type != notebook.CodeCell {
			continue
		}
		executionCount := 1
		cell.ExecutionCount = &executionCount
		cell.Outputs = []json.RawMessage{json.RawMessage(
			`{"output_type": "execute_result", "execution_count": 1, "data": {"text/plain": "42"}, "metadata": {}}`)}
	}
	return executed, nil
}

// publicationService fakes the nbreport service for the TESTR-000
// report and records what it receives.
type publicationService struct {
	server *httptest.Server

	mutex    sync.Mutex
	paths    []string
	uploaded []byte
}

func newPublicationService(t *testing.T) *publicationService {
	t.Helper()
	service := &publicationService{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /nbreport/reports/", func(writer http.ResponseWriter, request *http.Request) {
		service.record(request, nil)
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusCreated)
		io.WriteString(writer, `{"product": "testr-000", "published_url": "https://testr-000.lsst.io", "product_url": "https://keeper.lsst.codes/products/testr-000"}`)
	})
	mux.HandleFunc("POST /nbreport/reports/testr-000/instances/", func(writer http.ResponseWriter, request *http.Request) {
		service.record(request, nil)
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusCreated)
		io.WriteString(writer, `{"instance_id": 1, "published_url": "https://testr-000.lsst.io/v/1", "ltd_edition_url": "https://keeper.lsst.codes/editions/12345"}`)
	})
	mux.HandleFunc("POST /nbreport/reports/testr-000/instances/{id}/notebook", func(writer http.ResponseWriter, request *http.Request) {
		body, err := io.ReadAll(request.Body)
		if err != nil {
			t.Errorf("reading upload: %v", err)
		}
		service.record(request, body)
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusAccepted)
		io.WriteString(writer, `{"queue_url": "https://example.com/queue/12345"}`)
	})
	service.server = httptest.NewTLSServer(mux)
	t.Cleanup(service.server.Close)
	return service
}

func (s *publicationService) record(request *http.Request, body []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.paths = append(s.paths, request.URL.Path)
	if body != nil {
		s.uploaded = body
	}
}

func (s *publicationService) requestPaths() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]string(nil), s.paths...)
}

// harness runs commands against a fake service and engine with a
// user configuration in a temporary directory.
type harness struct {
	t          *testing.T
	env        *environment
	stdout     *bytes.Buffer
	logs       *bytes.Buffer
	engine     *answerEngine
	service    *publicationService
	configPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	service := newPublicationService(t)
	h := &harness{
		t:          t,
		stdout:     &bytes.Buffer{},
		logs:       &bytes.Buffer{},
		engine:     &answerEngine{},
		service:    service,
		configPath: filepath.Join(t.TempDir(), ".nbreport.yaml"),
	}
	h.env = &environment{
		stdin:      strings.NewReader(""),
		stdout:     h.stdout,
		engine:     h.engine,
		httpClient: service.server.Client(),
		newLogger: func(level slog.Level) *slog.Logger {
			return slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: level}))
		},
	}
	return h
}

// login writes credentials as "nbreport login" would.
func (h *harness) login() {
	h.t.Helper()
	err := userconfig.WriteGitHub(h.configPath, userconfig.GitHub{Username: "testuser", Token: "mytoken"}, "nbreport test")
	if err != nil {
		h.t.Fatalf("WriteGitHub: %v", err)
	}
}

// run executes one command line with the harness's global flags. Each
// call builds a fresh command tree, as a new process would.
func (h *harness) run(args ...string) error {
	h.t.Helper()
	h.stdout.Reset()
	h.env.globals = globalParams{}
	global := []string{"--config-file", h.configPath, "--server", h.service.server.URL}
	return rootWith(h.env).Execute(context.Background(), append(global, args...))
}

// registeredRepo writes the TESTR-000 fixture with an ltd_product.
func registeredRepo(t *testing.T) string {
	t.Helper()
	dir := testutil.ReportRepo(t)
	repository, err := repo.Open(dir)
	if err != nil {
		t.Fatalf("repo.Open: %v", err)
	}
	if err := repository.Config().Set(repo.ProductField, "testr-000"); err != nil {
		t.Fatalf("setting ltd_product: %v", err)
	}
	return dir
}

func readNotebook(t *testing.T, path string) *notebook.Notebook {
	t.Helper()
	document, err := notebook.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return document
}

func requireCategory(t *testing.T, err error, category cli.ErrorCategory) *cli.ToolError {
	t.Helper()
	var toolError *cli.ToolError
	if !errors.As(err, &toolError) {
		t.Fatalf("error = %v (%T), want a *cli.ToolError", err, err)
	}
	if toolError.Category != category {
		t.Fatalf("category = %q, want %q (error: %v)", toolError.Category, category, err)
	}
	return toolError
}

func TestIssue(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login()
	source := registeredRepo(t)
	target := filepath.Join(t.TempDir(), "TESTR-000-1")

	err := h.run("issue", source, "-c", "a", "100", "-c", "b", "200", "--dir", target, "--timeout", "60")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	output := h.stdout.String()
	for _, fragment := range []string{
		"Issued report instance TESTR-000-1.",
		"Processing status:\n  https://example.com/queue/12345",
		"Publication URL:\n  https://testr-000.lsst.io/v/1",
	} {
		if !strings.Contains(output, fragment) {
			t.Errorf("output missing %q:\n%s", fragment, output)
		}
	}

	paths := h.service.requestPaths()
	wantPaths := []string{
		"/nbreport/reports/testr-000/instances/",
		"/nbreport/reports/testr-000/instances/1/notebook",
	}
	if strings.Join(paths, " ") != strings.Join(wantPaths, " ") {
		t.Errorf("requests = %v, want %v", paths, wantPaths)
	}

	uploaded, err := notebook.Parse(h.service.uploaded)
	if err != nil {
		t.Fatalf("parsing uploaded notebook: %v", err)
	}
	if got := uploaded.Cells[1].Source; got != "answer = 100 + 200\nanswer" {
		t.Errorf("uploaded code cell = %q", got)
	}
	text, err := uploaded.Cells[1].PlainText()
	if err != nil || !strings.Contains(text, "42") {
		t.Errorf("uploaded output = %q (err %v), want the computed result", text, err)
	}
	if dir := h.engine.request.Dir; dir == "" || strings.HasPrefix(dir, target) {
		t.Errorf("kernel directory = %q, want a temporary directory outside the instance", dir)
	}
	if h.engine.request.Timeout.Seconds() != 60 {
		t.Errorf("timeout = %v, want 60s", h.engine.request.Timeout)
	}
}

func TestInitRenderComputeUpload(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login()
	source := registeredRepo(t)
	target := filepath.Join(t.TempDir(), "TESTR-000-1")

	if err := h.run("init", source, "-d", target); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "Created new report instance at "+target) ||
		!strings.Contains(h.stdout.String(), "nbreport render "+target) {
		t.Errorf("init output = %q", h.stdout.String())
	}
	notebookPath := filepath.Join(target, testutil.ReportNotebook)
	if got := readNotebook(t, notebookPath).Cells[0].Source; !strings.Contains(got, "{{ cookiecutter.title }}") {
		t.Errorf("init without -c should leave the notebook unrendered, got %q", got)
	}

	if err := h.run("render", target, "-c", "title", "Weekly Report"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if h.stdout.String() != "Rendered "+notebookPath+"\n" {
		t.Errorf("render output = %q", h.stdout.String())
	}
	if got := readNotebook(t, notebookPath).Cells[0].Source; got != "# Weekly Report\n- By: Test Bot" {
		t.Errorf("rendered markdown = %q", got)
	}

	if err := h.run("compute", target, "-k", "python3"); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if h.stdout.String() != "Complete.\n" {
		t.Errorf("compute output = %q", h.stdout.String())
	}
	if h.engine.request.KernelName != "python3" || h.engine.request.Timeout != 0 {
		t.Errorf("engine request = %+v", h.engine.request)
	}

	if err := h.run("upload", target); err != nil {
		t.Fatalf("upload: %v", err)
	}
	want := "Upload complete.\nProcessing status:\n  https://example.com/queue/12345\nPublication URL:\n  https://testr-000.lsst.io/v/1\n"
	if h.stdout.String() != want {
		t.Errorf("upload output = %q, want %q", h.stdout.String(), want)
	}
	uploaded, err := notebook.Parse(h.service.uploaded)
	if err != nil {
		t.Fatalf("parsing uploaded notebook: %v", err)
	}
	if got := uploaded.Cells[0].Source; got != "# Weekly Report\n- By: Test Bot" {
		t.Errorf("uploaded markdown = %q", got)
	}
}

func TestInit_RequiresLogin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.run("init", registeredRepo(t), "-d", filepath.Join(t.TempDir(), "instance"))
	requireCategory(t, err, cli.CategoryValidation)
	if !strings.Contains(err.Error(), "nbreport login") {
		t.Errorf("error = %q, want it to point at nbreport login", err)
	}
	if paths := h.service.requestPaths(); len(paths) != 0 {
		t.Errorf("requests = %v, want none", paths)
	}
}

func TestInit_Unregistered(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login()
	err := h.run("init", testutil.ReportRepo(t), "-d", filepath.Join(t.TempDir(), "instance"))
	requireCategory(t, err, cli.CategoryValidation)
	if !strings.Contains(err.Error(), "nbreport register") {
		t.Errorf("error = %q, want it to point at nbreport register", err)
	}
}

func TestInit_MissingRepository(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login()
	err := h.run("init", filepath.Join(t.TempDir(), "nowhere"))
	requireCategory(t, err, cli.CategoryNotFound)
}

func TestTest_OverwritesByDefault(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	source := testutil.ReportRepo(t)
	target := filepath.Join(t.TempDir(), "TESTR-000-test")

	for attempt := range 2 {
		if err := h.run("test", source, "-d", target, "-c", "a", "1"); err != nil {
			t.Fatalf("test (attempt %d): %v", attempt, err)
		}
	}
	notebookPath := filepath.Join(target, testutil.ReportNotebook)
	if h.stdout.String() != "Computed "+notebookPath+"\n" {
		t.Errorf("output = %q", h.stdout.String())
	}
	if h.engine.calls != 2 {
		t.Errorf("engine calls = %d, want 2", h.engine.calls)
	}
	computed := readNotebook(t, notebookPath)
	if got := computed.Cells[1].Source; got != "answer = 1 + 32\nanswer" {
		t.Errorf("code cell = %q", got)
	}
	if paths := h.service.requestPaths(); len(paths) != 0 {
		t.Errorf("test should not contact the service, got %v", paths)
	}

	err := h.run("test", source, "-d", target, "--overwrite=false")
	toolError := requireCategory(t, err, cli.CategoryConflict)
	if !strings.Contains(toolError.Hint, "--overwrite") {
		t.Errorf("hint = %q", toolError.Hint)
	}
}

func TestTest_InstanceHandle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	target := filepath.Join(t.TempDir(), "instance")
	if err := h.run("test", testutil.ReportRepo(t), "-d", target, "--id", "dev"); err != nil {
		t.Fatalf("test: %v", err)
	}
	opened, err := instance.Open(target)
	if err != nil {
		t.Fatalf("instance.Open: %v", err)
	}
	handle, err := opened.Handle()
	if err != nil || handle != "TESTR-000-dev" {
		t.Errorf("instance_handle = %q (err %v), want TESTR-000-dev", handle, err)
	}
}

// TestCompute_CellFailure changes the working directory, where the
// recovery notebook is written, so it does not run in parallel.
func TestCompute_CellFailure(t *testing.T) {
	h := newHarness(t)
	target := filepath.Join(t.TempDir(), "instance")
	if err := h.run("test", testutil.ReportRepo(t), "-d", target); err != nil {
		t.Fatalf("test: %v", err)
	}

	t.Chdir(t.TempDir())
	h.engine.failure = &compute.CellExecutionError{CellIndex: 1, Name: "ZeroDivisionError", Value: "division by zero"}
	err := h.run("compute", target)
	requireCategory(t, err, cli.CategoryInternal)
	var cellError *compute.CellExecutionError
	if !errors.As(err, &cellError) {
		t.Fatalf("error = %v, want a CellExecutionError", err)
	}
	if _, statErr := os.Stat(cellError.RecoveryPath); statErr != nil {
		t.Errorf("recovery notebook: %v", statErr)
	}
	if !strings.Contains(h.logs.String(), "recovery notebook") {
		t.Errorf("logs = %q, want the recovery notebook logged", h.logs.String())
	}
}

func TestCompute_Arguments(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	requireCategory(t, h.run("compute"), cli.CategoryValidation)
	requireCategory(t, h.run("compute", "a", "b"), cli.CategoryValidation)
	requireCategory(t, h.run("compute", t.TempDir(), "--timeout", "-5"), cli.CategoryValidation)
	requireCategory(t, h.run("compute", filepath.Join(t.TempDir(), "missing")), cli.CategoryNotFound)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login()
	source := testutil.ReportRepo(t)

	if err := h.run("register", source, "--yes"); err != nil {
		t.Fatalf("register: %v", err)
	}
	output := h.stdout.String()
	for _, fragment := range []string{
		"  Handle: TESTR-000\n",
		"  Title: Test Report\n",
		"  Git repository: https://github.com/lsst-sqre/nbreport\n",
		"Registered report at https://testr-000.lsst.io\n",
	} {
		if !strings.Contains(output, fragment) {
			t.Errorf("output missing %q:\n%s", fragment, output)
		}
	}

	metadata, err := os.ReadFile(filepath.Join(source, repo.MetadataFilename))
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{
		"title: Test Report # shown on the landing page",
		"ltd_product: testr-000",
		"published_url: https://testr-000.lsst.io",
		"ltd_url: https://keeper.lsst.codes/products/testr-000",
	} {
		if !strings.Contains(string(metadata), line) {
			t.Errorf("nbreport.yaml missing %q:\n%s", line, metadata)
		}
	}
}

func TestRegister_Declined(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login()
	h.env.stdin = strings.NewReader("n\n")
	source := testutil.ReportRepo(t)

	err := h.run("register", source)
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Fatalf("error = %v, want exit code 1", err)
	}
	if !strings.Contains(h.stdout.String(), "Register this report? [y/N]") {
		t.Errorf("output = %q, want the confirmation prompt", h.stdout.String())
	}
	if paths := h.service.requestPaths(); len(paths) != 0 {
		t.Errorf("requests = %v, want none", paths)
	}
	metadata, err := os.ReadFile(filepath.Join(source, repo.MetadataFilename))
	if err != nil {
		t.Fatal(err)
	}
	if string(metadata) != testutil.ReportMetadata {
		t.Errorf("declined registration changed nbreport.yaml:\n%s", metadata)
	}
}

func TestLogin_TwoFactor(t *testing.T) {
	t.Parallel()

	var mutex sync.Mutex
	var oneTimePasswords []string
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost || request.URL.Path != "/authorizations" {
			t.Errorf("request = %s %s", request.Method, request.URL.Path)
		}
		username, password, _ := request.BasicAuth()
		if username != "octocat" || password != "hunter2" {
			t.Errorf("basic auth = %q/%q", username, password)
		}
		var body struct {
			Scopes []string `json:"scopes"`
			Note   string   `json:"note"`
		}
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		otp := request.Header.Get("X-GitHub-OTP")
		mutex.Lock()
		oneTimePasswords = append(oneTimePasswords, otp)
		mutex.Unlock()
		if otp == "" {
			writer.Header().Set("X-GitHub-OTP", "required; app")
			writer.WriteHeader(http.StatusUnauthorized)
			io.WriteString(writer, `{"message": "Must specify two-factor authentication OTP code."}`)
			return
		}
		writer.WriteHeader(http.StatusCreated)
		json.NewEncoder(writer).Encode(map[string]string{"token": "ghp_example", "note": body.Note})
	}))
	t.Cleanup(server.Close)

	h := newHarness(t)
	h.env.githubURL = server.URL
	h.env.httpClient = server.Client()
	h.env.stdin = strings.NewReader("123456\n")
	passwordFile := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(passwordFile, []byte("hunter2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := h.run("login", "--name", "octocat", "--password-file", passwordFile); err != nil {
		t.Fatalf("login: %v", err)
	}
	if strings.Join(oneTimePasswords, ",") != ",123456" {
		t.Errorf("one-time passwords sent = %q, want none then 123456", oneTimePasswords)
	}

	credentials, err := userconfig.ReadGitHub(h.configPath)
	if err != nil {
		t.Fatalf("ReadGitHub: %v", err)
	}
	if credentials.Username != "octocat" || credentials.Token != "ghp_example" {
		t.Errorf("credentials = %+v", credentials)
	}
	saved, err := os.ReadFile(h.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(saved), "token: ghp_example # nbreport on ") {
		t.Errorf("config file = %q, want the token note as a comment", saved)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
		io.WriteString(writer, `{"message": "Bad credentials"}`)
	}))
	t.Cleanup(server.Close)

	h := newHarness(t)
	h.env.githubURL = server.URL
	h.env.httpClient = server.Client()
	h.env.stdin = strings.NewReader("octocat\n")
	passwordFile := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(passwordFile, []byte("wrong"), 0600); err != nil {
		t.Fatal(err)
	}

	err := h.run("login", "--password-file", passwordFile)
	requireCategory(t, err, cli.CategoryForbidden)
	if _, statErr := os.Stat(h.configPath); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("failed login should not write %s (stat: %v)", h.configPath, statErr)
	}
}

func TestUpload_Unauthorized(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	h := newHarness(t)
	h.login()
	target := filepath.Join(t.TempDir(), "instance")
	if err := h.run("test", registeredRepo(t), "-d", target); err != nil {
		t.Fatalf("test: %v", err)
	}

	h.env.httpClient = server.Client()
	h.stdout.Reset()
	h.env.globals = globalParams{}
	err := rootWith(h.env).Execute(context.Background(), []string{
		"--config-file", h.configPath, "--server", server.URL, "upload", target,
	})
	toolError := requireCategory(t, err, cli.CategoryForbidden)
	if toolError.Hint != loginHint {
		t.Errorf("hint = %q, want %q", toolError.Hint, loginHint)
	}
}

func TestRoot_LogLevel(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	target := filepath.Join(t.TempDir(), "instance")
	if err := h.run("--log-level", "debug", "test", testutil.ReportRepo(t), "-d", target); err != nil {
		t.Fatalf("test: %v", err)
	}
	if !strings.Contains(h.logs.String(), "level=DEBUG") {
		t.Errorf("debug logging should be enabled, logs:\n%s", h.logs.String())
	}

	requireCategory(t, h.run("--log-level", "verbose", "version"), cli.CategoryValidation)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if err := h.run("version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(h.stdout.String(), "nbreport ") {
		t.Errorf("version output = %q", h.stdout.String())
	}
}
