package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modelshelf/modelshelf/pkg/environment"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/messages"
	"github.com/modelshelf/modelshelf/pkg/server"
)

// NewServeCommand creates the 'serve' command that runs the HTTP server.
func NewServeCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Example: "$ modelshelf serve --port 8080",
		Short:   "Run the upload and catalog HTTP server",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			srv, err := buildServer(fs, env, logger)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&env.Port, "port", "p", env.Port, "Port to listen on (overrides PORT)")
	cmd.Flags().StringVar(&env.HostIP, "host", env.HostIP, "Address to bind (overrides HOST_IP)")

	return cmd
}

// buildServer prepares the store root and wires the HTTP server from env.
func buildServer(fs afero.Fs, env *environment.Environment, logger *logging.Logger) (*server.Server, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	maxFileSize, err := env.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	st := openStore(fs, env, logger)
	if err := st.EnsureRoot(); err != nil {
		return nil, fmt.Errorf("%s: %w", messages.ErrStoreRootBad, err)
	}
	logger.Debug(messages.MsgStoreRootReady, "root", st.Root())

	return server.New(st, server.Options{
		Addr:           env.Addr(),
		AllowedOrigins: env.AllowedOrigins(),
		TrustedProxies: env.TrustedProxyList(),
		MaxFileSize:    maxFileSize,
		MaxTextures:    env.MaxTextures,
		Debug:          env.IsDebug(),
	}, logger)
}
