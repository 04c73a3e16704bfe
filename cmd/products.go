package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/domain"
	"github.com/modelshelf/modelshelf/pkg/environment"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/messages"
	"github.com/modelshelf/modelshelf/pkg/store"
)

// NewProductsCommand creates the 'products' command that prints the catalog.
func NewProductsCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"ls"},
		Example: "$ modelshelf products --json",
		Short:   "List the models in the store",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := openStore(fs, env, logger)
			products, err := catalog.NewReader(st, logger).List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, products)
			}
			return writeProductTable(out, st, products, logger)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON, as GET /products returns it")

	return cmd
}

func writeProductTable(out io.Writer, st *store.Store, products []domain.ModelInfo, logger *logging.Logger) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(out, messages.MsgNoModels)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tTABLE\tPRICE\tTEXTURES\tSIZE")
	for _, p := range products {
		size := "-"
		if n, err := st.ModelSize(p.Name); err == nil {
			size = humanize.Bytes(uint64(n))
		} else {
			logger.Debug("could not size model", "model", p.Name, "error", err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n",
			p.Name, p.Type, p.TableNumber,
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			len(p.Textures), size)
	}
	return tw.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
