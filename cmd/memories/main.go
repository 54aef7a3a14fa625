package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/memoriesapp/memories/client/auth"
	"github.com/memoriesapp/memories/client/feed"
	"github.com/memoriesapp/memories/client/internal/config"
	"github.com/memoriesapp/memories/client/internal/logger"
	"github.com/memoriesapp/memories/client/internal/types"
	"github.com/memoriesapp/memories/client/query"
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

type rootFlags struct {
	apiURL   string
	stateDir string
	debug    bool
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "memories",
		Short:         "Browse and manage the memories feed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "Base URL of the memories service (default $MEMORIES_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flags.stateDir, "state-dir", "", "Directory for the local session (default $MEMORIES_STATE_DIR or ~/.memories)")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Enable verbose debug output")

	run := func(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if cfg.Debug {
				level = "debug"
			}
			logger.Install(level, true)

			a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return fn(cmd, a, args)
		}
	}

	rootCmd.AddCommand(newSignInCmd(run))
	rootCmd.AddCommand(newSignUpCmd(run))
	rootCmd.AddCommand(newGoogleLoginCmd(run))
	rootCmd.AddCommand(newWhoAmICmd(run))
	rootCmd.AddCommand(newLogoutCmd(run))
	rootCmd.AddCommand(newFeedCmd(run))
	rootCmd.AddCommand(newSearchCmd(run))
	rootCmd.AddCommand(newLikeCmd(run))
	rootCmd.AddCommand(newDeleteCmd(run))
	return rootCmd
}

type runner func(func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

func loadConfig(flags rootFlags) (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if flags.stateDir != "" {
		cfg.StateDir = flags.stateDir
	}
	if flags.debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

// ------------------------- auth -------------------------

func newSignInCmd(run runner) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			c := a.auth()
			_ = c.SetField(auth.FieldEmail, email)
			_ = c.SetField(auth.FieldPassword, password)
			if err := c.Submit(cmd.Context()); err != nil {
				return err
			}
			return printWhoAmI(cmd, a)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignUpCmd(run runner) *cobra.Command {
	var first, last, email, password, confirm, picture string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			c := a.auth()
			c.SwitchMode()
			for name, v := range map[string]string{
				auth.FieldFirstName:       first,
				auth.FieldLastName:        last,
				auth.FieldEmail:           email,
				auth.FieldPassword:        password,
				auth.FieldConfirmPassword: confirm,
			} {
				_ = c.SetField(name, v)
			}
			if picture != "" {
				data, err := os.ReadFile(picture)
				if err != nil {
					return fmt.Errorf("read picture: %w", err)
				}
				if err := c.SelectImage(types.ImageFile{Name: picture, Data: data}); err != nil {
					return err
				}
			}
			if err := c.Submit(cmd.Context()); err != nil {
				return err
			}
			return printWhoAmI(cmd, a)
		}),
	}
	cmd.Flags().StringVar(&first, "first-name", "", "First name")
	cmd.Flags().StringVar(&last, "last-name", "", "Last name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "Repeat the password")
	cmd.Flags().StringVar(&picture, "picture", "", "Path to a JPEG or PNG profile picture")
	return cmd
}

func newGoogleLoginCmd(run runner) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "google-login",
		Short: "Sign in with Google (prints the consent URL without --code)",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			if !a.cfg.GoogleEnabled() {
				return fmt.Errorf("google sign-in is not configured (set MEMORIES_GOOGLE_CLIENT_ID)")
			}
			p := auth.NewGoogleProvider(a.cfg.GoogleClientID, a.cfg.GoogleClientSecret, a.cfg.GoogleRedirectURL)
			if code == "" {
				fmt.Fprintln(cmd.OutOrStdout(), p.AuthURL(xid.New().String()))
				return nil
			}
			if err := p.SignIn(cmd.Context(), a.auth(), code); err != nil {
				return err
			}
			return printWhoAmI(cmd, a)
		}),
	}
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the redirect")
	return cmd
}

func newWhoAmICmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			return printWhoAmI(cmd, a)
		}),
	}
}

func newLogoutCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.sessions.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

func printWhoAmI(cmd *cobra.Command, a *app) error {
	s, ok := a.sessions.Current()
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s> (id %s)\n", s.Result.Name, s.Result.Email, s.Result.UserID())
	return nil
}

// ------------------------- feed -------------------------

func newFeedCmd(run runner) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List one page of posts",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			f := a.feed()
			sync := query.NewSynchronizer(a, syncLoad(f))
			q := sync.Init(a.address)
			if page > 1 {
				if !sync.GoToPage(cmd.Context(), page) {
					return fmt.Errorf("invalid page %d", page)
				}
			} else if err := f.Activate(cmd.Context(), q); err != nil {
				return err
			}
			printPosts(cmd, f)
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page to show")
	return cmd
}

func newSearchCmd(run runner) *cobra.Command {
	var text, tags string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search posts by text and/or tags",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			f := a.feed()
			sync := query.NewSynchronizer(a, syncLoad(f))
			sync.UpdateSearchText(text)
			for _, t := range strings.Split(tags, ",") {
				sync.AddTag(strings.TrimSpace(t))
			}
			sync.Submit(cmd.Context())
			log.Debug().Str("address", a.address).Msg("search submitted")
			printPosts(cmd, f)
			return nil
		}),
	}
	cmd.Flags().StringVar(&text, "query", "", "Search text")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	return cmd
}

func newLikeCmd(run runner) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "like <postID>",
		Short: "Toggle your like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
			f, err := loadPage(cmd.Context(), a, page)
			if err != nil {
				return err
			}
			postID := args[0]
			if err := f.ToggleLike(cmd.Context(), postID); err != nil {
				return err
			}
			if err := f.Flush(cmd.Context(), postID); err != nil {
				return err
			}
			label, _ := f.Label(postID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", postID, label.Text)
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page the post is on")
	return cmd
}

func newDeleteCmd(run runner) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "delete <postID>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
			f, err := loadPage(cmd.Context(), a, page)
			if err != nil {
				return err
			}
			if err := f.DeletePost(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page the post is on")
	return cmd
}

func loadPage(ctx context.Context, a *app, page int) (*feed.Controller, error) {
	f := a.feed()
	if err := f.Activate(ctx, query.SearchQuery{Page: page}); err != nil {
		return nil, err
	}
	return f, nil
}

// syncLoad runs the feed load on the caller's goroutine; a CLI has nothing
// else to do while it waits.
func syncLoad(f *feed.Controller) query.Listener {
	return query.ListenerFunc(func(ctx context.Context, q query.SearchQuery) {
		_ = f.Load(ctx, q)
	})
}

func printPosts(cmd *cobra.Command, f *feed.Controller) {
	w := cmd.OutOrStdout()
	n := 0
	for p := range f.Posts() {
		n++
		label, _ := f.Label(p.ID)
		owner := ""
		if f.CanModify(p) {
			owner = " (yours)"
		}
		tags := ""
		if len(p.Tags) > 0 {
			tags = " #" + strings.Join(p.Tags, " #")
		}
		fmt.Fprintf(w, "%s  %s%s%s  [%s]\n", p.ID, p.Title, tags, owner, label.Text)
		if p.Message != "" {
			fmt.Fprintf(w, "    %s\n", p.Excerpt(20))
		}
	}
	if n == 0 {
		fmt.Fprintln(w, "No posts.")
	}
	if f.ShowPagination() {
		fmt.Fprintf(w, "Page %d of %d\n", f.Page(), f.NumberOfPages())
	}
}
