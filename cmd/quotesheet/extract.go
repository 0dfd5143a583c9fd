package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/quotesheet/internal/config"
	"github.com/dgallion1/quotesheet/internal/export"
	"github.com/dgallion1/quotesheet/internal/parser"
	"github.com/dgallion1/quotesheet/internal/pipeline"
)

func extractCMD(cfg config.Config) *cobra.Command {
	var out string
	run := export.RunParams{
		ReferralManager: cfg.DefaultReferralManager,
		ReferralEmail:   cfg.DefaultReferralEmail,
		Brand:           cfg.DefaultBrand,
	}

	var extract = &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract quote documents into one spreadsheet",
		Long: "Extract every line item of the given quote documents into one spreadsheet.\n" +
			"The output format follows the --out extension: .xlsx (default) or .csv.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(out); err != nil {
				return err
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

			docs := make([]pipeline.Document, 0, len(args))
			for _, path := range args {
				// An unreadable file is skipped with a warning like any other failed document.
				data, err := os.ReadFile(path)
				docs = append(docs, pipeline.Document{Filename: filepath.Base(path), Data: data, ReadErr: err})
			}

			proc := pipeline.NewProcessor(parser.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext}, cfg.MaxFilesPerBatch, nil, log)
			res, err := proc.Run(cmd.Context(), docs, run, func(done, total int, filename string) {
				log.Info("processed", "done", done, "total", total, "file", filename)
			})
			if res != nil {
				for _, w := range res.Warnings {
					fmt.Fprintln(cmd.ErrOrStderr(), w)
				}
			}
			if err != nil {
				return err
			}

			data, err := encode(out, res.Records)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Parsed %d document(s) with %d total line items into %s\n", res.Documents, len(res.Records), out)
			return nil
		},
	}
	extract.Flags().StringVarP(&out, "out", "o", export.XLSXFilename, "output file (.xlsx or .csv)")
	extract.Flags().StringVar(&run.ReferralManager, "referral-manager", run.ReferralManager, "ReferralManager column value")
	extract.Flags().StringVar(&run.ReferralEmail, "referral-email", run.ReferralEmail, "ReferralEmail column value")
	extract.Flags().StringVar(&run.Brand, "brand", run.Brand, "Brand column value")

	return extract
}

var errUnknownFormat = errors.New("unknown output format")

func checkFormat(out string) error {
	switch strings.ToLower(filepath.Ext(out)) {
	case ".xlsx", ".csv":
		return nil
	}
	return fmt.Errorf("%w: %q", errUnknownFormat, filepath.Ext(out))
}

func encode(out string, records []export.Record) ([]byte, error) {
	if err := checkFormat(out); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(out)) {
	case ".xlsx":
		return export.WriteXLSX(records)
	default:
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, records); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}
