package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// Remote is a named admatrix server the remote-session commands can target.
type Remote struct {
	URL     string `toml:"url"`
	Token   string `toml:"token,omitempty"`
	NATSURL string `toml:"nats_url,omitempty"`
}

// RemotesConfig is the remotes.toml file.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

func (c RemotesConfig) lookup(name string) (Remote, error) {
	r, ok := c.Remotes[name]
	if !ok {
		return Remote{}, fmt.Errorf("no remote named %q", name)
	}
	return r, nil
}

func (c RemotesConfig) names() []string {
	out := make([]string, 0, len(c.Remotes))
	for name := range c.Remotes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// remoteConfigPath returns $XDG_STATE_HOME/admatrix/remotes.toml, falling
// back to ~/.local/state.
func remoteConfigPath() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "admatrix", "remotes.toml"), nil
}

func loadRemotesConfig() (RemotesConfig, error) {
	cfg := RemotesConfig{Remotes: map[string]Remote{}}
	path, err := remoteConfigPath()
	if err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

// saveRemotesConfig replaces the file atomically. Tokens are stored, so the
// file is private to the user.
func saveRemotesConfig(cfg RemotesConfig) error {
	path, err := remoteConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".remotes-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding remotes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// editRemotes loads the file, applies fn and saves the result.
func editRemotes(fn func(*RemotesConfig) error) error {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return err
	}
	if err := fn(&cfg); err != nil {
		return err
	}
	return saveRemotesConfig(cfg)
}

// activeRemote is read once per process to seed flag defaults. A missing or
// unreadable file means no active remote.
var activeRemote = sync.OnceValue(func() Remote {
	cfg, err := loadRemotesConfig()
	if err != nil || cfg.Active == "" {
		return Remote{}
	}
	r, _ := cfg.lookup(cfg.Active)
	return r
})

func activeRemoteURL() string     { return activeRemote().URL }
func activeRemoteToken() string   { return activeRemote().Token }
func activeRemoteNATSURL() string { return activeRemote().NATSURL }

// maskToken keeps the first eight characters of token. With pad the rest
// is starred out character for character, otherwise elided.
func maskToken(token string, pad bool) string {
	const keep = 8
	if len(token) <= keep {
		return token
	}
	if pad {
		return token[:keep] + strings.Repeat("*", len(token)-keep)
	}
	return token[:keep] + "..."
}

func checkServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q: want http(s)://host[:port]", raw)
	}
	return nil
}

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Manage the admatrix servers used by push, pull, list and watch",
	GroupID: "system",
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a remote, or update it if the name exists",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, target := args[0], args[1]
		if err := checkServerURL(target); err != nil {
			return err
		}
		token, _ := cmd.Flags().GetString("token")
		natsURL, _ := cmd.Flags().GetString("nats")
		use, _ := cmd.Flags().GetBool("use")

		err := editRemotes(func(cfg *RemotesConfig) error {
			cfg.Remotes[name] = Remote{URL: target, Token: token, NATSURL: natsURL}
			if use {
				cfg.Active = name
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", name, target)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Forget a remote",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := editRemotes(func(cfg *RemotesConfig) error {
			if _, err := cfg.lookup(name); err != nil {
				return err
			}
			delete(cfg.Remotes, name)
			if cfg.Active == name {
				cfg.Active = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", name)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List remotes; the active one is starred",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		if jsonOutput {
			masked := make(map[string]Remote, len(cfg.Remotes))
			for name, r := range cfg.Remotes {
				r.Token = maskToken(r.Token, false)
				masked[name] = r
			}
			return printJSON(cmd.OutOrStdout(), RemotesConfig{Active: cfg.Active, Remotes: masked})
		}
		if len(cfg.Remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No remotes. Add one with: admx remote add <name> <url>")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tURL\tNATS\tTOKEN")
		for _, name := range cfg.names() {
			r := cfg.Remotes[name]
			star := " "
			if name == cfg.Active {
				star = "*"
			}
			fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\n", star, name, r.URL, r.NATSURL, maskToken(r.Token, false))
		}
		return tw.Flush()
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Make a remote the default server; without a name, go back to --server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		err := editRemotes(func(cfg *RemotesConfig) error {
			if name != "" {
				if _, err := cfg.lookup(name); err != nil {
					return err
				}
			}
			cfg.Active = name
			return nil
		})
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "no active remote")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "using %s\n", name)
		}
		return nil
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one remote (default: the active one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		name := cfg.Active
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return errors.New("no active remote; name one or run 'admx remote use <name>'")
		}
		r, err := cfg.lookup(name)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if name == cfg.Active {
			fmt.Fprintf(out, "%s (active)\n", name)
		} else {
			fmt.Fprintln(out, name)
		}
		fmt.Fprintf(out, "  url:   %s\n", r.URL)
		if r.NATSURL != "" {
			fmt.Fprintf(out, "  nats:  %s\n", r.NATSURL)
		}
		if r.Token != "" {
			fmt.Fprintf(out, "  token: %s\n", maskToken(r.Token, true))
		}
		return nil
	},
}

func init() {
	remoteAddCmd.Flags().String("token", "", "bearer token sent to the server")
	remoteAddCmd.Flags().String("nats", "", "NATS URL for admx watch")
	remoteAddCmd.Flags().Bool("use", false, "also make this the active remote")

	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteListCmd, remoteUseCmd, remoteShowCmd)
}
