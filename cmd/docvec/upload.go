package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"docvec/internal/client"
)

func newUploadCmd(_ *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files to a running docvec server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles(args)
			if err != nil {
				return err
			}
			c := client.New(serverURL, 0)
			var errs []error
			for _, f := range files {
				res, err := c.UploadFile(cmd.Context(), f.Name, f.Data)
				if err != nil {
					cmd.Printf("%s: failed: %v\n", f.Name, err)
					errs = append(errs, err)
					continue
				}
				cmd.Printf("%s: %s (%d records, document_id %s)\n", f.Name, res.Message, res.Records, res.DocumentID)
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d uploads failed: %w", len(errs), len(files), errors.Join(errs...))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8888", "docvec server base URL")
	return cmd
}
