package main

import (
	"github.com/spf13/cobra"

	"docvec/internal/client"
)

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "delete INPUT",
		Short: "Delete every record whose document name or document id equals INPUT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input := args[0]
			if serverURL != "" {
				msg, err := client.New(serverURL, 0).Delete(ctx, input)
				if err != nil {
					return err
				}
				cmd.Println(msg)
				return nil
			}

			a, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)
			n, err := a.svc.Delete(ctx, input)
			if err != nil {
				return err
			}
			if n > 0 {
				cmd.Printf("Successfully deleted %d documents with document_name or document_id: %s\n", n, input)
				return nil
			}
			cmd.Println("No documents found with document_name or document_id: " + input)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "delete through this docvec server instead of in-process")
	return cmd
}
