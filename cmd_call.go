package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fjacquet/ncm_client/internal/utils"
	"github.com/fjacquet/ncm_client/pkg/ncm"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newCallCmd(opts *rootOptions) *cobra.Command {
	var (
		params     []string
		paramsJSON string
	)

	cmd := &cobra.Command{
		Use:   "call <operation>",
		Short: "Run any NCM operation and print the result as JSON",
		Long: "call dispatches an operation such as get_routers or update_user through the client. " +
			"Repeat --param key=value for keyword arguments; --params-json takes a JSON object for nested values.",
		Example: "  ncm_client call get_routers --param state=online --param limit=all\n" +
			"  ncm_client call get_users --param email__in=a@example.com,b@example.com",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params, paramsJSON)
			if err != nil {
				return err
			}

			client, err := oneShotClient(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.Do(cmdContext(cmd), args[0], p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Operation argument as key=value (repeatable)")
	cmd.Flags().StringVar(&paramsJSON, "params-json", "", "Operation arguments as a JSON object")
	return cmd
}

func newOpsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the operations available with the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := oneShotClient(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			ops := client.Operations()
			sort.Strings(ops)
			for _, op := range ops {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), op); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// comparisonSuffixes mark range filters whose values may be dates.
var comparisonSuffixes = []string{"__gt", "__gte", "__lt", "__lte"}

// parseParams merges key=value pairs over an optional JSON object. Values
// stay strings; the client splits comma separated lists itself. Dates given
// to range filters are normalized to UTC RFC 3339.
func parseParams(pairs []string, rawJSON string) (ncm.Params, error) {
	p := ncm.Params{}
	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &p); err != nil {
			return nil, fmt.Errorf("invalid --params-json: %w", err)
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		p[key] = normalizeDate(key, value)
	}
	return p, nil
}

func normalizeDate(key, value string) string {
	for _, suffix := range comparisonSuffixes {
		if !strings.HasSuffix(key, suffix) {
			continue
		}
		if t, err := utils.ParseDate(value); err == nil {
			return utils.FormatTimestamp(t)
		}
	}
	return value
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
