package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vibemonitor/vibemonitor-go/pkg/api"
	"github.com/vibemonitor/vibemonitor-go/pkg/auth"
	"github.com/vibemonitor/vibemonitor-go/pkg/config"
	"github.com/vibemonitor/vibemonitor-go/pkg/resilience"
	"github.com/vibemonitor/vibemonitor-go/pkg/telemetry"
	"github.com/vibemonitor/vibemonitor-go/pkg/workspace"
)

const version = "dev"

type globalFlags struct {
	ConfigPath  string
	BaseURL     string
	WorkspaceID string
	JSON        bool
	Help        bool
}

type app struct {
	flags  globalFlags
	cfg    *config.Config
	client *api.Client
	store  *workspace.Store
	retry  resilience.RetryConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.Load(resolveConfigPath(global.ConfigPath))
	if err != nil {
		fatal(err)
	}
	if global.BaseURL != "" {
		cfg.API.BaseURL = global.BaseURL
	}
	if global.WorkspaceID != "" {
		cfg.API.WorkspaceID = global.WorkspaceID
	}

	telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	shutdown, err := telemetry.Init("vibemonitor-cli", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	tokens, err := openTokenStore(cfg.Auth)
	if err != nil {
		fatal(err)
	}
	metrics, err := telemetry.NewClientMetrics()
	if err != nil {
		fatal(err)
	}
	client := api.New(cfg.API.BaseURL,
		api.WithTokenProvider(tokens),
		api.WithMetrics(metrics),
	)

	a := &app{
		flags:  global,
		cfg:    cfg,
		client: client,
		store:  workspace.NewStore(workspace.NewService(client)),
		retry:  resilience.DefaultRetryConfig(),
	}

	switch args[0] {
	case "init":
		a.runInit(args[1:])
	case "login":
		a.runLogin(ctx, args[1:])
	case "logout":
		a.runLogout(ctx)
	case "status":
		a.runStatus(ctx)
	case "environments", "envs":
		a.runEnvironments(ctx, args[1:])
	case "repos":
		a.runRepos(ctx, args[1:])
	case "repo-config":
		a.runRepoConfig(ctx, args[1:])
	case "help":
		printUsage()
	case "version":
		fmt.Println(version)
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{
		BaseURL:     getenv("VIBEMONITOR_API_BASE_URL", ""),
		WorkspaceID: getenv("VIBEMONITOR_API_WORKSPACE_ID", ""),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--base-url":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --base-url")
			}
			flags.BaseURL = args[i+1]
			i++
		case strings.HasPrefix(arg, "--base-url="):
			flags.BaseURL = strings.TrimPrefix(arg, "--base-url=")
		case arg == "--workspace":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --workspace")
			}
			flags.WorkspaceID = args[i+1]
			i++
		case strings.HasPrefix(arg, "--workspace="):
			flags.WorkspaceID = strings.TrimPrefix(arg, "--workspace=")
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

func (a *app) runInit(args []string) {
	cmd := flag.NewFlagSet("init", flag.ContinueOnError)
	force := cmd.Bool("force", false, "Overwrite an existing config file")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	path := resolveConfigPath(a.flags.ConfigPath)
	if path == "" {
		path = defaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !*force {
		fatal(fmt.Errorf("%s already exists; use --force to overwrite", path))
	}
	if err := config.Write(path, a.cfg); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s\n", path)
}

func (a *app) runLogin(ctx context.Context, args []string) {
	cmd := flag.NewFlagSet("login", flag.ContinueOnError)
	email := cmd.String("email", "", "Account email")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}
	if *email == "" {
		fatal(errors.New("missing --email"))
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal(err)
	}

	result := a.client.Login(ctx, *email, string(password))
	wipe(password)
	if !result.OK() {
		fatal(fmt.Errorf("login failed: %s", result.Error))
	}
	fmt.Println("logged in")
}

func (a *app) runLogout(ctx context.Context) {
	if err := a.client.Logout(ctx); err != nil {
		fatal(err)
	}
	a.store.Clear()
	fmt.Println("logged out")
}

func (a *app) runStatus(ctx context.Context) {
	type statusResult struct {
		BaseURL     string `json:"base_url"`
		WorkspaceID string `json:"workspace_id,omitempty"`
		Reachable   bool   `json:"reachable"`
		LoggedIn    bool   `json:"logged_in"`
	}

	health := a.client.PublicRequest(ctx, "GET", "/api/v1/health", nil)
	session := a.client.Request(ctx, "GET", "/api/v1/auth/me", nil)

	result := statusResult{
		BaseURL:     a.cfg.API.BaseURL,
		WorkspaceID: a.cfg.API.WorkspaceID,
		Reachable:   health.OK(),
		LoggedIn:    session.OK(),
	}
	if a.flags.JSON {
		printJSON(result)
		return
	}
	fmt.Printf("Vibemonitor CLI: %s\n", version)
	fmt.Printf("API: %s (reachable=%t)\n", result.BaseURL, result.Reachable)
	fmt.Printf("Session: logged_in=%t\n", result.LoggedIn)
	if result.WorkspaceID != "" {
		fmt.Printf("Workspace: %s\n", result.WorkspaceID)
	}
}

func (a *app) runEnvironments(ctx context.Context, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: vibemonitor environments <list|create|update|delete|set-default>"))
	}
	workspaceID := a.requireWorkspace()

	switch args[0] {
	case "list":
		a.syncEnvironments(ctx, workspaceID)
		envs := a.store.Environments()
		if a.flags.JSON {
			printJSON(envs)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "ID", "NAME", "DEFAULT", "REPOS")
		for _, env := range envs {
			writeRow(writer, env.ID, env.Name,
				fmt.Sprintf("%t", env.IsDefault),
				fmt.Sprintf("%d", len(env.RepositoryConfigs)))
		}
		_ = writer.Flush()
	case "create":
		cmd := flag.NewFlagSet("environments create", flag.ContinueOnError)
		name := cmd.String("name", "", "Environment name")
		if err := cmd.Parse(args[1:]); err != nil {
			fatal(err)
		}
		if *name == "" {
			fatal(errors.New("missing --name"))
		}
		env, err := a.store.CreateEnvironment(ctx, workspaceID, workspace.EnvironmentRequest{Name: *name})
		if err != nil {
			fatal(err)
		}
		if a.flags.JSON {
			printJSON(env)
			return
		}
		fmt.Printf("created environment %s\n", env.ID)
	case "update":
		id, name, err := parseEnvironmentUpdate(args[1:])
		if err != nil {
			fatal(err)
		}
		if err := a.store.UpdateEnvironment(ctx, workspaceID, id, workspace.EnvironmentRequest{Name: name}); err != nil {
			fatal(err)
		}
		fmt.Printf("updated environment %s\n", id)
	case "delete":
		if len(args) < 2 {
			fatal(errors.New("usage: vibemonitor environments delete <id>"))
		}
		if err := a.store.DeleteEnvironment(ctx, workspaceID, args[1]); err != nil {
			fatal(err)
		}
		fmt.Printf("deleted environment %s\n", args[1])
	case "set-default":
		if len(args) < 2 {
			fatal(errors.New("usage: vibemonitor environments set-default <id>"))
		}
		if err := a.store.SetDefaultEnvironment(ctx, workspaceID, args[1]); err != nil {
			fatal(err)
		}
		fmt.Printf("default environment is now %s\n", args[1])
	default:
		fatal(fmt.Errorf("unknown environments command %q", args[0]))
	}
}

func (a *app) runRepos(ctx context.Context, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: vibemonitor repos <list|branches>"))
	}
	workspaceID := a.requireWorkspace()

	switch args[0] {
	case "list":
		err := a.retry.Do(ctx, func() error {
			return a.store.FetchAvailableRepositories(ctx, workspaceID)
		})
		if err != nil {
			fatal(err)
		}
		repos := a.store.AvailableRepositories()
		if a.flags.JSON {
			printJSON(repos)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "REPOSITORY", "PRIVATE", "DEFAULT_BRANCH")
		for _, repo := range repos {
			writeRow(writer, repo.FullName, fmt.Sprintf("%t", repo.Private), repo.DefaultBranch)
		}
		_ = writer.Flush()
	case "branches":
		if len(args) < 2 {
			fatal(errors.New("usage: vibemonitor repos branches <owner/name>"))
		}
		repo := args[1]
		err := a.retry.Do(ctx, func() error {
			return a.store.FetchRepositoryBranches(ctx, workspaceID, repo)
		})
		if err != nil {
			fatal(err)
		}
		entry, _ := a.store.Branches(repo)
		if a.flags.JSON {
			printJSON(entry.Branches)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "BRANCH", "PROTECTED")
		for _, branch := range entry.Branches {
			writeRow(writer, branch.Name, fmt.Sprintf("%t", branch.Protected))
		}
		_ = writer.Flush()
	default:
		fatal(fmt.Errorf("unknown repos command %q", args[0]))
	}
}

func (a *app) runRepoConfig(ctx context.Context, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: vibemonitor repo-config <add|update|remove>"))
	}
	workspaceID := a.requireWorkspace()

	parsed, err := parseRepoConfigArgs(args[0], args[1:])
	if err != nil {
		fatal(err)
	}

	switch args[0] {
	case "add":
		req := workspace.RepositoryConfigRequest{RepoFullName: parsed.repo, Branch: parsed.branch}
		if err := a.store.AddRepositoryConfig(ctx, workspaceID, parsed.envID, req); err != nil {
			fatal(err)
		}
		fmt.Printf("tracking %s@%s in environment %s\n", parsed.repo, parsed.branch, parsed.envID)
	case "update":
		req := workspace.RepositoryConfigRequest{RepoFullName: parsed.repo, Branch: parsed.branch}
		if err := a.store.UpdateRepositoryConfig(ctx, workspaceID, parsed.envID, parsed.configID, req); err != nil {
			fatal(err)
		}
		fmt.Printf("updated repository config %s\n", parsed.configID)
	case "remove":
		if err := a.store.RemoveRepositoryConfig(ctx, workspaceID, parsed.envID, parsed.configID); err != nil {
			fatal(err)
		}
		fmt.Printf("removed repository config %s\n", parsed.configID)
	}
}

// parseEnvironmentUpdate reads `<id> --name <name>`. The positional id
// is split off before the flag set runs; stdlib flag parsing stops at
// the first non-flag argument, so flags after an unconsumed positional
// would be dropped.
func parseEnvironmentUpdate(args []string) (string, string, error) {
	id, rest, err := popArg(args)
	if err != nil {
		return "", "", errors.New("usage: vibemonitor environments update <id> --name <name>")
	}
	cmd := flag.NewFlagSet("environments update", flag.ContinueOnError)
	name := cmd.String("name", "", "New environment name")
	if err := cmd.Parse(rest); err != nil {
		return "", "", err
	}
	if *name == "" {
		return "", "", errors.New("missing --name")
	}
	return id, *name, nil
}

type repoConfigArgs struct {
	configID string
	envID    string
	repo     string
	branch   string
}

// parseRepoConfigArgs reads the repo-config argument forms. update and
// remove take the config id as a leading positional; flags follow it.
func parseRepoConfigArgs(sub string, args []string) (repoConfigArgs, error) {
	var parsed repoConfigArgs
	switch sub {
	case "update", "remove":
		id, rest, err := popArg(args)
		if err != nil {
			return parsed, fmt.Errorf("usage: vibemonitor repo-config %s <config-id> --env <id>", sub)
		}
		parsed.configID = id
		args = rest
	case "add":
	default:
		return parsed, fmt.Errorf("unknown repo-config command %q", sub)
	}

	cmd := flag.NewFlagSet("repo-config "+sub, flag.ContinueOnError)
	envID := cmd.String("env", "", "Environment id")
	repo := cmd.String("repo", "", "Repository full name (owner/name)")
	branch := cmd.String("branch", "", "Branch to track")
	if err := cmd.Parse(args); err != nil {
		return parsed, err
	}
	parsed.envID = *envID
	parsed.repo = *repo
	parsed.branch = *branch

	if parsed.envID == "" {
		return parsed, errors.New("missing --env")
	}
	if sub == "add" && (parsed.repo == "" || parsed.branch == "") {
		return parsed, errors.New("usage: vibemonitor repo-config add --env <id> --repo <owner/name> --branch <branch>")
	}
	return parsed, nil
}

// popArg splits a leading positional argument from args.
func popArg(args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, errors.New("missing argument")
	}
	return args[0], args[1:], nil
}

// syncEnvironments fetches the environment list, retrying transient
// transport failures.
func (a *app) syncEnvironments(ctx context.Context, workspaceID string) {
	err := a.retry.Do(ctx, func() error {
		return a.store.FetchEnvironments(ctx, workspaceID)
	})
	if err != nil {
		fatal(err)
	}
}

func (a *app) requireWorkspace() string {
	if a.cfg.API.WorkspaceID == "" {
		fatal(errors.New("no workspace selected; use --workspace or set api.workspace_id in the config"))
	}
	return a.cfg.API.WorkspaceID
}

func openTokenStore(cfg config.AuthConfig) (auth.Provider, error) {
	switch cfg.Store {
	case "", "file":
		return auth.NewFileStore(cfg.Path), nil
	case "sqlite":
		return auth.OpenSQLiteStore(cfg.Path)
	case "memory":
		return auth.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown auth store %q", cfg.Store)
	}
}

func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path := defaultConfigPath()
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vibemonitor/config.yaml"
	}
	return filepath.Join(home, ".vibemonitor", "config.yaml")
}

func printJSON(value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(payload))
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
}

func writeRow(writer *tabwriter.Writer, cols ...string) {
	for i, col := range cols {
		col = strings.TrimSpace(col)
		if col == "" {
			col = "-"
		}
		cols[i] = col
	}
	fmt.Fprintln(writer, strings.Join(cols, "\t"))
}

func printUsage() {
	fmt.Println(`Vibemonitor CLI

Usage:
  vibemonitor [global flags] <command> [args]

Global flags:
  --config <path>      Path to config.yaml (default ~/.vibemonitor/config.yaml)
  --base-url <url>     API base URL
  --workspace <id>     Workspace to operate on
  --json               JSON output

Commands:
  init [--force]
  login --email <email>
  logout
  status
  environments list
  environments create --name <name>
  environments update <id> --name <name>
  environments delete <id>
  environments set-default <id>
  repos list
  repos branches <owner/name>
  repo-config add --env <id> --repo <owner/name> --branch <branch>
  repo-config update <config-id> --env <id> [--repo ...] [--branch ...]
  repo-config remove <config-id> --env <id>`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// wipe clears credential bytes once they have been handed off.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
