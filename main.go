// ncm_client is a command line client for Cradlepoint NetCloud Manager
// and a Prometheus exporter for the state of a router fleet.
//
// Usage:
//
//	ncm_client serve --config config.yaml [--debug]
//	ncm_client call get_routers --param state=online --param limit=all
//	ncm_client ops
//	ncm_client regrade --subscription SUB --mac 00:30:44:11:22:33
//	ncm_client set-field 1234 description="core router"
//
// Credentials come from the ncm section of the configuration file and may
// be overridden by the X_CP_API_ID, X_CP_API_KEY, X_ECM_API_ID,
// X_ECM_API_KEY and NCM_API_TOKEN environment variables. One-shot
// commands run without a configuration file when the variables are set.
package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fjacquet/ncm_client/internal/logging"
	"github.com/fjacquet/ncm_client/internal/models"
	"github.com/fjacquet/ncm_client/internal/telemetry"
	"github.com/fjacquet/ncm_client/pkg/ncm"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

const programName = "ncm_client"

var errNoCredentials = errors.New("no NCM credentials: set them in the config file or the environment")

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	debug      bool
	jsonLogs   bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Client for the Cradlepoint NetCloud Manager API",
		Long:          "ncm_client calls the NCM v2 and v3 APIs and exports router fleet state in Prometheus format",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug mode")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonLogs, "json-logs", false, "Write one-shot command logs as JSON")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newCallCmd(opts),
		newOpsCmd(opts),
		newRegradeCmd(opts),
		newSetFieldCmd(opts),
	)
	return rootCmd
}

// loadConfig reads the configuration file when one is given. Without a
// file the configuration is built from defaults and the environment.
func loadConfig(path string) (*models.Config, error) {
	if path != "" {
		return models.Load(path)
	}
	cfg := &models.Config{}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newClient builds the unified client for cfg. extra options are applied
// last.
func newClient(cfg *models.Config, tp trace.TracerProvider, extra ...ncm.Option) *ncm.Client {
	opts := append([]ncm.Option{ncm.WithLogger(logging.Component("ncm"))}, extra...)
	return ncm.New(cfg.Credentials(), cfg.ClientOptions(tp, opts...)...)
}

// oneShotClient prepares console logging and a client for the short lived
// commands. The caller closes the client.
func oneShotClient(cmd *cobra.Command, opts *rootOptions) (*ncm.Client, error) {
	logging.PrepareConsoleLogs(cmd.ErrOrStderr(), opts.jsonLogs)
	logging.SetDebug(opts.debug)

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return nil, err
	}
	if !cfg.HasCredentials() {
		return nil, errNoCredentials
	}
	return newClient(cfg, nil), nil
}

// printJSON writes v as indented JSON followed by a newline.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// explainError expands credential failures into the troubleshooting text
// of the telemetry templates. Other errors are returned unchanged.
func explainError(err error) error {
	var apiErr *ncm.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf(telemetry.ErrUnauthorizedTemplate, apiErr.Label, apiErr.Body)
	case errors.Is(err, errNoCredentials):
		return fmt.Errorf(telemetry.ErrMissingCredentialsTemplate, "NCM")
	case errors.Is(err, ncm.ErrMissingCredentials):
		return fmt.Errorf("%w\n\n"+telemetry.ErrMissingCredentialsTemplate, err, "complete")
	}
	return err
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", explainError(err))
		os.Exit(1)
	}
}
