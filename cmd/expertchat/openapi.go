package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"expertchat/internal/apidocs"
)

func newOpenAPICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI (Swagger 2.0) document for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), apidocs.Doc())
			return err
		},
	}
}
