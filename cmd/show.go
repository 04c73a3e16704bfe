package cmd

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/environment"
	"github.com/modelshelf/modelshelf/pkg/logging"
)

// NewShowCommand creates the 'show' command that prints one model's record.
func NewShowCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:     "show [modelName]",
		Example: "$ modelshelf show chair",
		Short:   "Print the metadata record of a model",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := catalog.NewReader(openStore(fs, env, logger), logger).Get(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
}
