package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/hookyard/internal/editor"
	"github.com/zulandar/hookyard/internal/models"
	"github.com/zulandar/hookyard/internal/settings"
	"golang.org/x/term"
)

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage registered repositories",
	}

	cmd.AddCommand(newRepoListCmd())
	cmd.AddCommand(newRepoAddCmd())
	cmd.AddCommand(newRepoRemoveCmd())
	return cmd
}

func newRepoListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepoList(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runRepoList(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(cmd, configPath)
	if err != nil {
		return err
	}
	list, err := settings.LoadRepositories(cmd.Context(), settings.NewGormStore(gormDB))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No repositories registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tREPOSITORY\tEVENT TYPE\tTOKEN")
	for i, e := range list {
		token := "-"
		if e.Token != "" {
			token = "set"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, e.Target(), e.EventType, token)
	}
	w.Flush()
	return nil
}

func newRepoAddCmd() *cobra.Command {
	var (
		configPath string
		entry      models.RepositoryEntry
		tokenStdin bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a repository",
		Long: `Appends a repository to the list.

With --token-stdin the GitHub token is read from standard input; on a
terminal it is prompted for without echo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenStdin {
				token, err := readToken(cmd)
				if err != nil {
					return err
				}
				entry.Token = token
			}
			return runRepoAdd(cmd, configPath, entry)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&entry.Owner, "owner", "", "repository owner (required)")
	cmd.Flags().StringVar(&entry.Repo, "repo", "", "repository name (required)")
	cmd.Flags().StringVar(&entry.EventType, "event-type", models.DefaultEventType, "repository_dispatch event type")
	cmd.Flags().BoolVar(&tokenStdin, "token-stdin", false, "read the GitHub token from stdin")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("repo")
	return cmd
}

func runRepoAdd(cmd *cobra.Command, configPath string, entry models.RepositoryEntry) error {
	entry.Owner = strings.TrimSpace(entry.Owner)
	entry.Repo = strings.TrimSpace(entry.Repo)
	entry.EventType = strings.TrimSpace(entry.EventType)
	if entry.Owner == "" || entry.Repo == "" || entry.EventType == "" {
		return fmt.Errorf("--owner, --repo and --event-type must not be empty")
	}

	_, gormDB, err := connectFromConfig(cmd, configPath)
	if err != nil {
		return err
	}
	store := settings.NewGormStore(gormDB)
	persisted, err := settings.LoadRepositories(cmd.Context(), store)
	if err != nil {
		return err
	}

	sess := editor.NewSession("cli", persisted)
	id := sess.Add()
	list := sess.Submit(map[int]models.RepositoryEntry{id: entry})
	if err := settings.SaveRepositories(cmd.Context(), store, list); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %s at index %d\n", entry.Target(), len(list)-1)
	return nil
}

func newRepoRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove a registered repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepoRemove(cmd, configPath, args[0])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runRepoRemove(cmd *cobra.Command, configPath, arg string) error {
	_, gormDB, err := connectFromConfig(cmd, configPath)
	if err != nil {
		return err
	}
	store := settings.NewGormStore(gormDB)
	persisted, err := settings.LoadRepositories(cmd.Context(), store)
	if err != nil {
		return err
	}

	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 || index >= len(persisted) {
		return fmt.Errorf("no repository at index %q", arg)
	}

	sess := editor.NewSession("cli", persisted)
	if err := sess.Remove(index); err != nil {
		return err
	}
	list := sess.Submit(nil)
	if err := settings.SaveRepositories(cmd.Context(), store, list); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", persisted[index].Target())
	return nil
}

// readToken reads one token line from the command's stdin, without echo
// when stdin is a terminal.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return "", nil
}
