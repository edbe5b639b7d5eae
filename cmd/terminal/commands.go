package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"git-repository-manager/internal/config"
	"git-repository-manager/internal/git"
	"git-repository-manager/internal/logging"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

// Environment variables read by clone; secrets never come from flags
const (
	envSecret = "GIT_SECRET"
	envToken  = "GIT_TOKEN"
)

type rootOptions struct {
	cfg     *config.Config
	storage string
	verbose bool
}

// newRootCmd constructs the terminal root command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{cfg: config.Load()}

	cmd := &cobra.Command{
		Use:           "git-manager",
		Short:         "Clone repositories and summarize their authors",
		Long:          "git-manager keeps local clones under a storage root and reports who committed to them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logCfg := opts.cfg.Log
			if opts.verbose {
				logCfg.Level = "debug"
			}
			logger := logging.NewWithWriter(logCfg, cmd.ErrOrStderr())
			cmd.SetContext(logging.WithContext(cmd.Context(), logger))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.storage, "storage", opts.cfg.Storage.Root, "storage root for local clones")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newCloneCmd(opts))
	cmd.AddCommand(newAuthorsCmd(opts))
	cmd.AddCommand(newActivityCmd(opts))
	cmd.AddCommand(newRemoveCmd(opts))

	return cmd
}

func (o *rootOptions) acquirer(out io.Writer) (*git.Acquirer, error) {
	var opts []git.AcquirerOption
	if o.cfg.Storage.Progress {
		opts = append(opts, git.WithProgress(out))
	}
	return git.NewAcquirer(o.storage, opts...)
}

func newCloneCmd(opts *rootOptions) *cobra.Command {
	var (
		bare     bool
		branches []string
		username string
	)

	cmd := &cobra.Command{
		Use:   "clone <uri> <name>",
		Short: "Clone a repository under the storage root unless it is already there",
		Long: "Clone a repository under the storage root unless it is already there.\n" +
			"The secret is read from " + envSecret + " (or an OAuth token from " + envToken + ").",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(branches) > 0 && !bare {
				return errors.New("--branch requires --bare")
			}

			a, err := opts.acquirer(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ref := git.Reference{
				SourceURI:   args[0],
				LocalName:   args[1],
				Credentials: credentialsFromEnv(opts.cfg.Storage, args[0], username),
			}

			var repo *git.Repository
			if bare {
				repo, err = a.AcquireBare(cmd.Context(), ref, git.CloneOptions{Branches: branches})
			} else {
				repo, err = a.Acquire(cmd.Context(), ref)
			}
			if err != nil {
				return err
			}
			defer repo.Close()

			branch, err := repo.CurrentBranch()
			if err != nil {
				branch = "(detached)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tbare=%t\n", repo.Path(), branch, repo.IsBare())
			return nil
		},
	}

	// Flags in alphabetical order for deterministic help output
	cmd.Flags().BoolVar(&bare, "bare", false, "create a bare clone")
	cmd.Flags().StringSliceVar(&branches, "branch", nil, "branch to fetch, repeatable (bare clones only)")
	cmd.Flags().StringVar(&username, "username", "", "username for "+envSecret)

	return cmd
}

// credentialsFromEnv picks the credentials for a clone: a secret, then a
// token, then the configured ssh key for ssh sources.
func credentialsFromEnv(storage config.StorageConfig, sourceURI, username string) git.Credentials {
	if secret := os.Getenv(envSecret); secret != "" {
		return git.UsernameSecret{Username: username, Secret: secret}
	}
	if token := os.Getenv(envToken); token != "" {
		return git.ExternalProvider{Provider: &git.TokenSourceProvider{
			Username: username,
			Source:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}}
	}
	if storage.SSHKeyPath != "" && git.IsSSH(sourceURI) {
		return git.ExternalProvider{Provider: &git.SSHKeyProvider{
			KeyPath:    storage.SSHKeyPath,
			Passphrase: storage.SSHPassphrase,
		}}
	}
	return git.NoCredentials{}
}

func newAuthorsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "authors <name>...",
		Short: "List the distinct authors of local clones",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.acquirer(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			repos, err := a.OpenAll(cmd.Context(), args...)
			if err != nil {
				return err
			}
			defer git.CloseAll(repos)

			authors, err := git.NewAggregator().FindAuthors(cmd.Context(), repos...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, author := range authors {
				fmt.Fprintf(out, "%s <%s>\n", author.Name, author.Email)
			}
			return nil
		},
	}
}

func newActivityCmd(opts *rootOptions) *cobra.Command {
	var (
		since  string
		days   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "activity <name>...",
		Short: "Count commits per author across local clones",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if since != "" && days != 0 {
				return errors.New("--since and --days are mutually exclusive")
			}

			var from time.Time
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				from = t
			}
			if days < 0 {
				return errors.New("--days must not be negative")
			}
			if days > 0 {
				from = time.Now().AddDate(0, 0, -days)
			}

			a, err := opts.acquirer(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			repos, err := a.OpenAll(cmd.Context(), args...)
			if err != nil {
				return err
			}
			defer git.CloseAll(repos)

			activity, err := git.NewAggregator().CountAuthorCommits(cmd.Context(), from, repos...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(activity)
			}

			fmt.Fprintf(out, "%-40s %-10s\n", "Author", "Commits")
			fmt.Fprintln(out, strings.Repeat("-", 50))
			for _, c := range activity {
				fmt.Fprintf(out, "%-40s %-10d\n",
					fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
					c.Count,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "only count commits of the last N days")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the activity as JSON")
	cmd.Flags().StringVar(&since, "since", "", "only count commits at or after this RFC 3339 time")

	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a local clone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.acquirer(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.Remove(cmd.Context(), args[0])
		},
	}
}
