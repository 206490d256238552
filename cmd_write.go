package main

import (
	"fmt"
	"strings"

	"github.com/fjacquet/ncm_client/pkg/ncm"
	"github.com/spf13/cobra"
)

func newRegradeCmd(opts *rootOptions) *cobra.Command {
	var (
		subscription string
		macs         []string
		downgrade    bool
	)

	cmd := &cobra.Command{
		Use:   "regrade",
		Short: "Apply or remove a subscription on devices by MAC address",
		Example: "  ncm_client regrade --subscription NCX-ESS --mac 00:30:44:11:22:33 --mac 0030441122AA\n" +
			"  ncm_client regrade --subscription NCX-ESS --mac 00:30:44:11:22:33 --downgrade",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := oneShotClient(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			v3, err := client.V3()
			if err != nil {
				return err
			}
			spec := ncm.RegradeSpec{SubscriptionID: subscription, MACs: macs, Action: ncm.RegradeUpgrade}
			if downgrade {
				spec.Action = ncm.RegradeDowngrade
			}
			outcome, err := v3.Regrade(cmdContext(cmd), spec)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), outcome)
		},
	}

	cmd.Flags().StringVar(&subscription, "subscription", "", "Subscription id to apply")
	cmd.Flags().StringSliceVar(&macs, "mac", nil, "Device MAC address (repeatable)")
	cmd.Flags().BoolVar(&downgrade, "downgrade", false, "Remove the subscription instead of applying it")
	_ = cmd.MarkFlagRequired("subscription")
	_ = cmd.MarkFlagRequired("mac")
	return cmd
}

func newSetFieldCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-field <router-id> <field=value>...",
		Short: "Set metadata fields such as description or asset_id on a router",
		Long: "set-field patches router metadata through its configuration manager. " +
			"Accepted fields: " + strings.Join(ncm.RouterFields(), ", "),
		Example: "  ncm_client set-field 1234 description=\"core router\" asset_id=A-77\n" +
			"  ncm_client set-field 1234 custom1=rack-4",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args[1:])
			if err != nil {
				return err
			}

			client, err := oneShotClient(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			v2, err := client.V2()
			if err != nil {
				return err
			}
			outcome, err := v2.SetRouterFields(cmdContext(cmd), args[0], fields)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), outcome)
		},
	}
}

func parseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q: expected field=value", pair)
		}
		fields[key] = value
	}
	return fields, nil
}
