package cmd

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modelshelf/modelshelf/pkg/environment"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/store"
)

// NewRootCommand returns the root command with all subcommands attached
func NewRootCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	cobra.EnableCommandSorting = false
	rootCmd := &cobra.Command{
		Use:   "modelshelf",
		Short: "Upload and catalog service for 3D model assets.",
		Long: `Modelshelf stores uploaded glTF models, their binary buffers and textures in
one directory per model, together with placement and pricing metadata, and serves
the resulting product catalog and the asset files over HTTP.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&env.StoreRoot, "store", "s", env.StoreRoot,
		"Directory holding one subdirectory per model (overrides STORE_ROOT)")

	rootCmd.AddCommand(NewServeCommand(ctx, fs, env, logger))
	rootCmd.AddCommand(NewProductsCommand(ctx, fs, env, logger))
	rootCmd.AddCommand(NewShowCommand(ctx, fs, env, logger))

	return rootCmd
}

func openStore(fs afero.Fs, env *environment.Environment, logger *logging.Logger) *store.Store {
	return store.New(fs, env.StoreRoot, logger)
}
