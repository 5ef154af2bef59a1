package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/janisto/idcard-onboarding/internal/client/onboarding"
	"github.com/janisto/idcard-onboarding/internal/platform/timeutil"
)

// options are the flags shared by every command.
type options struct {
	apiURL    string
	token     string
	email     string
	cacheFile string
	timeout   time.Duration
	verbose   bool
}

func defaultCacheFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "idcard-onboarding", "profile.cbor")
}

func newRootCmd(out io.Writer, getenv func(string) string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "idcard",
		Short:         "Onboard and view your ID card",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", envOr(getenv, "IDCARD_API_URL", "http://localhost:8080"), "API base URL")
	flags.StringVar(&opts.token, "token", getenv("IDCARD_TOKEN"), "Firebase ID token")
	flags.StringVar(&opts.email, "email", getenv("IDCARD_EMAIL"), "signed-in email address")
	flags.StringVar(&opts.cacheFile, "cache", envOr(getenv, "IDCARD_CACHE", defaultCacheFile()), "profile cache file")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log cache failures")

	root.AddCommand(statusCmd(opts))
	root.AddCommand(onboardCmd(opts))
	root.AddCommand(cardCmd(opts))
	root.AddCommand(signoutCmd(opts))
	return root
}

func envOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func (o *options) identity() (onboarding.Identity, error) {
	if strings.TrimSpace(o.email) == "" {
		return onboarding.Identity{}, errors.New("--email or IDCARD_EMAIL is required")
	}
	if o.token == "" {
		return onboarding.Identity{}, errors.New("--token or IDCARD_TOKEN is required")
	}
	return onboarding.Identity{Email: o.email, Token: o.token}, nil
}

func (o *options) machine() *onboarding.Machine {
	logger := zap.NewNop()
	if o.verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	api := onboarding.NewAPIClient(&http.Client{Timeout: o.timeout}, onboarding.WithBaseURL(o.apiURL))
	return onboarding.NewMachine(api, onboarding.NewFileCache(o.cacheFile), onboarding.WithLogger(logger))
}

// restore resumes the session for the configured identity.
func (o *options) restore(cmd *cobra.Command) (*onboarding.Machine, error) {
	id, err := o.identity()
	if err != nil {
		return nil, err
	}
	m := o.machine()
	return m, m.Restore(cmd.Context(), id)
}

func statusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the signed-in user has an ID card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.restore(cmd)
			if m != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "state: %s\nview: %s\n", m.State(), m.View())
			}
			return err
		},
	}
}

func onboardCmd(opts *options) *cobra.Command {
	var form onboarding.Form
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Submit the onboarding form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.restore(cmd)
			if err != nil {
				return err
			}
			if m.State() == onboarding.HasProfile {
				fmt.Fprintln(cmd.OutOrStdout(), "already onboarded")
				printCard(cmd.OutOrStdout(), m.Profile())
				return nil
			}
			p, err := m.Submit(cmd.Context(), form)
			if err != nil {
				return err
			}
			printCard(cmd.OutOrStdout(), p)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "full name")
	f.StringVar(&form.FatherName, "father-name", "", "father's name")
	f.StringVar(&form.Address, "address", "", "postal address")
	f.StringVar(&form.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
	f.StringVar(&form.Occupation, "occupation", "", "occupation")
	f.StringVar(&form.Gender, "gender", "", "gender")
	return cmd
}

func cardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "card",
		Short: "Print the ID card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.restore(cmd)
			if err != nil {
				return err
			}
			if m.State() != onboarding.HasProfile {
				return errors.New("no ID card yet, run \"idcard onboard\" first")
			}
			printCard(cmd.OutOrStdout(), m.Profile())
			return nil
		},
	}
}

func signoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the cached ID card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.machine().SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func printCard(w io.Writer, p *onboarding.Profile) {
	rows := [][2]string{
		{"Name", p.Name},
		{"Father's name", p.FatherName},
		{"Email", p.Email},
		{"Address", p.Address},
		{"Date of birth", p.DOB},
		{"Occupation", p.Occupation},
		{"Gender", p.Gender},
		{"Issued", p.CreatedAt.UTC().Format(timeutil.RFC3339Millis)},
		{"ID", p.ID},
	}
	fmt.Fprintln(w, "ID CARD")
	for _, r := range rows {
		fmt.Fprintf(w, "%-14s %s\n", r[0]+":", r[1])
	}
}
