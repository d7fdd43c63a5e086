package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/tablefn/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <domain>",
	Short: "Write a JSONL snapshot of a domain's table",
	Long: `Writes a JSONL snapshot (a header line, then one record per item) of the
domain's table to --out, or to stdout with "--out -". Without --out the
snapshot is uploaded to S3 when TABLEFN_EXPORT_S3_BUCKET is set and written
to stdout otherwise.`,
	GroupID: "data",
	Args:    domainArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, "tablefn-export")
		if err != nil {
			return err
		}
		defer app.Close()

		target, ok := app.Target(args[0])
		if !ok {
			return fmt.Errorf("no table for domain %q", args[0])
		}

		var buf bytes.Buffer
		if err := export.ExportJSONL(ctx, app.Store.Table(target.Table), target.Key, &buf); err != nil {
			return err
		}

		switch {
		case exportOut == "-" || (exportOut == "" && app.Config.ExportS3Bucket == ""):
			_, err = io.Copy(cmd.OutOrStdout(), &buf)
			return err
		case exportOut != "":
			return os.WriteFile(exportOut, buf.Bytes(), 0o644)
		default:
			c := app.Config
			dest, err := export.NewS3Destination(ctx, c.ExportS3Bucket, c.ExportS3Prefix, c.Region, c.ExportS3Endpoint)
			if err != nil {
				return err
			}
			if err := dest.Write(ctx, target.FileName(), buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %s to s3://%s/%s%s\n", target.Table, c.ExportS3Bucket, c.ExportS3Prefix, target.FileName())
			return nil
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file, or - for stdout")
}
