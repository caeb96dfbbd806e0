package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/limccn/omi-cache-manager/internal/config"
	"github.com/limccn/omi-cache-manager/internal/core/cache"
	"github.com/limccn/omi-cache-manager/internal/services/manager"
)

type cliState struct {
	backend string
	config  string
	manager *manager.Manager
}

// execute runs the CLI with args and releases the backend whatever the outcome.
func execute(ctx context.Context, args []string, out io.Writer) (err error) {
	root, st := newRootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)

	defer func() {
		if st.manager != nil {
			err = errors.CombineErrors(err, st.manager.DestroyBackendCacheContext(context.WithoutCancel(ctx)))
		}
	}()
	return root.ExecuteContext(ctx)
}

func newRootCommand() (*cobra.Command, *cliState) {
	st := &cliState{}

	root := &cobra.Command{
		Use:           "cachectl",
		Short:         "Drive a cache backend from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.open(cmd)
		},
	}
	root.PersistentFlags().StringVar(&st.backend, "backend", "", "backend name (env CACHE_BACKEND, default simple_cache)")
	root.PersistentFlags().StringVar(&st.config, "config", "", "YAML file of CACHE_* options (env CACHE_CONFIG_FILE)")

	root.AddCommand(
		st.getCommand(),
		st.setCommand("set", "Store a value"),
		st.setCommand("add", "Store a value unless the key exists"),
		st.delCommand(),
		st.mgetCommand(),
		st.msetCommand(),
		st.clearCommand(),
		st.execCommand(),
	)
	return root, st
}

// flagOrEnv returns the flag when set, else the non-empty environment variable, else def.
func flagOrEnv(cmd *cobra.Command, flagName, envName, def string) string {
	if v, _ := cmd.Flags().GetString(flagName); v != "" {
		return v
	}
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return def
}

func (st *cliState) open(cmd *cobra.Command) error {
	backend := flagOrEnv(cmd, "backend", "CACHE_BACKEND", string(cache.TypeSimple))

	options, err := config.LoadCacheOptions(flagOrEnv(cmd, "config", "CACHE_CONFIG_FILE", ""))
	if err != nil {
		return err
	}

	m, err := manager.New(nil, backend, options)
	if err != nil {
		return errors.Wrapf(err, "failed to open backend %s", backend)
	}
	st.manager = m
	return nil
}

func (st *cliState) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := st.manager.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), v)
		},
	}
}

func (st *cliState) setCommand(verb, short string) *cobra.Command {
	var (
		ttl    int
		nx, xx bool
	)
	cmd := &cobra.Command{
		Use:   verb + " KEY VALUE",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			call := []any{args[0], args[1]}
			if ttl > 0 {
				call = append(call, cache.Expire(ttl))
			}

			var (
				ok  bool
				err error
			)
			if verb == "add" {
				ok, err = st.manager.Add(cmd.Context(), call...)
			} else {
				switch {
				case nx && xx:
					return errors.New("--nx and --xx are exclusive")
				case nx:
					call = append(call, cache.Exist(cache.SetIfNotExist))
				case xx:
					call = append(call, cache.Exist(cache.SetIfExist))
				}
				ok, err = st.manager.Set(cmd.Context(), call...)
			}
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), ok)
		},
	}
	cmd.Flags().IntVar(&ttl, "ttl", 0, "expiry in seconds")
	if verb == "set" {
		cmd.Flags().BoolVar(&nx, "nx", false, "only set if the key does not exist")
		cmd.Flags().BoolVar(&xx, "xx", false, "only set if the key exists")
	}
	return cmd
}

func (st *cliState) delCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "del KEY [KEY...]",
		Short: "Delete one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				ok  bool
				err error
			)
			if len(args) == 1 {
				ok, err = st.manager.Delete(cmd.Context(), args[0])
			} else {
				ok, err = st.manager.DeleteMany(cmd.Context(), toAny(args)...)
			}
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), ok)
		},
	}
}

func (st *cliState) mgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mget KEY [KEY...]",
		Short: "Print the values of several keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := st.manager.GetMany(cmd.Context(), toAny(args)...)
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), values)
		},
	}
}

func (st *cliState) msetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mset KEY VALUE [KEY VALUE...]",
		Short: "Store several values",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return errors.New("mset takes KEY VALUE pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs := make([]any, 0, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				pairs = append(pairs, cache.P(args[i], args[i+1]))
			}
			ok, err := st.manager.SetMany(cmd.Context(), pairs...)
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), ok)
		},
	}
}

func (st *cliState) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every key of the backend's namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := st.manager.Clear(cmd.Context())
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), ok)
		},
	}
}

func (st *cliState) execCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec COMMAND [ARG...]",
		Short: "Run a raw store command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := st.manager.Execute(cmd.Context(), toAny(args)...)
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), res)
		},
	}
}

func toAny(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

// printValue writes v as one line of JSON.
func printValue(w io.Writer, v any) error {
	data, err := json.Marshal(normalize(v))
	if err != nil {
		return errors.Wrap(err, "failed to encode result")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
