package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"docval/internal/documents"
	"docval/internal/platform/config"
	"docval/internal/platform/logger"
	"docval/internal/validation"
	"docval/internal/validation/handler"
	"docval/internal/validation/ports"
)

// errRejected makes the process exit with status 2 when documents disagree.
var errRejected = errors.New("documents rejected")

type validateOptions struct {
	articles    string
	cnpjCard    string
	certificate string
	asJSON      bool
}

func newValidateCmd(build builder) *cobra.Command {
	var opts validateOptions
	cmd := &cobra.Command{
		Use:   "validate --articles FILE --cnpj-card FILE --certificate FILE",
		Short: "Validate three supplier PDFs and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			// logs go to stderr so --json output stays parseable
			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

			validator, cleanup, err := build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			return runValidate(cmd, validator, opts)
		},
	}
	cmd.Flags().StringVar(&opts.articles, "articles", "", "articles of association PDF")
	cmd.Flags().StringVar(&opts.cnpjCard, "cnpj-card", "", "CNPJ card PDF")
	cmd.Flags().StringVar(&opts.certificate, "certificate", "", "tax clearance certificate PDF")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	for _, name := range []string{"articles", "cnpj-card", "certificate"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runValidate(cmd *cobra.Command, validator Validator, opts validateOptions) error {
	paths := map[documents.Kind]string{
		documents.KindArticlesOfAssociation:   opts.articles,
		documents.KindCNPJCard:                opts.cnpjCard,
		documents.KindTaxClearanceCertificate: opts.certificate,
	}
	uploads := make(map[documents.Kind]ports.Upload, len(paths))
	for _, kind := range documents.Kinds {
		f, err := os.Open(paths[kind])
		if err != nil {
			return fmt.Errorf("open %s: %w", kind, err)
		}
		defer f.Close()
		uploads[kind] = ports.Upload{Kind: kind, Filename: filepath.Base(paths[kind]), Content: f}
	}

	record, err := validator.Validate(cmd.Context(), validation.Submission{
		Articles:    uploads[documents.KindArticlesOfAssociation],
		CNPJCard:    uploads[documents.KindCNPJCard],
		Certificate: uploads[documents.KindTaxClearanceCertificate],
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(handler.FromRecord(record)); err != nil {
			return err
		}
	} else {
		printRecord(out, record)
	}

	if record.Status == validation.StatusRejected {
		return errRejected
	}
	return nil
}

func printRecord(w io.Writer, record *validation.Record) {
	critical, warning := record.Counts()
	fmt.Fprintf(w, "Status: %s (%d critical, %d warning)\n", record.Status, critical, warning)
	for _, inc := range record.Inconsistencies {
		fmt.Fprintf(w, "  [%s] %s: %s\n", inc.Severity, inc.Field, inc.Message)
		for _, source := range slices.Sorted(maps.Keys(inc.Values)) {
			fmt.Fprintf(w, "      %s = %s\n", source, inc.Values[source])
		}
	}
}
