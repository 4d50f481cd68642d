package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/apiclient"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/storage"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/tabular"
)

func newTemplateCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "template <entity>",
		Short: "Write an empty import workbook for parts, categories, suppliers or inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := entityArg(args[0])
			if err != nil {
				return err
			}
			data, err := a.services.Importer.Template(entity)
			if err != nil {
				return err
			}
			if output == "" {
				output = tabular.TemplateFileName
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Шаблон сохранён: %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <entity> <file>",
		Short: "Validate a spreadsheet and create its rows",
		Long: "Validates every row of an .xlsx or .csv file and prints each error. " +
			"Rows are created only when the whole file is valid.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := entityArg(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			svc := a.services.Importer
			result, err := svc.Validate(entity, args[1], data)
			if err != nil {
				return err
			}
			if !result.IsValid {
				for _, msg := range result.Errors {
					fmt.Fprintln(out, msg)
				}
				return fmt.Errorf("validation failed: %d row(s) with errors", result.ErrorRows)
			}

			fmt.Fprintf(out, "Файл корректен, строк: %d\n", result.TotalRows)
			if dryRun {
				svc.Discard(result.BatchID)
				return nil
			}

			commit, err := svc.Commit(cmd.Context(), result.BatchID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, commit.Message)
			if !commit.Succeeded() {
				return fmt.Errorf("row %d: %s (created before failure: %d)", commit.FailedRow, commit.Error, commit.Created)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		search string
		output string
		toS3   bool
	)
	cmd := &cobra.Command{
		Use:   "export <entity>",
		Short: "Export the records matching a search to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := entityArg(args[0])
			if err != nil {
				return err
			}
			screen, err := a.services.Pages.Screen(entity)
			if err != nil {
				return err
			}
			export, err := screen.Export(cmd.Context(), search)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if toS3 {
				sink, ok := a.services.Sink.(*storage.S3ExportSink)
				if !ok {
					return errors.New("S3 export is not configured (export.s3_enabled)")
				}
				d, err := sink.Deliver(cmd.Context(), export.FileName, export.Data, export.ContentType)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Экспортировано записей: %d -> %s\n", export.Rows, d.Location)
				if d.URL != "" {
					fmt.Fprintln(out, d.URL)
				}
				return nil
			}

			if output == "" {
				output = export.FileName
			}
			if err := os.WriteFile(output, export.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "Экспортировано записей: %d -> %s\n", export.Rows, output)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive filter")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <entity>.xlsx)")
	cmd.Flags().BoolVar(&toS3, "s3", false, "upload to the export bucket instead of writing a file")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var creds apiclient.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session in the local state store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := a.services.Session.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Вход выполнен: %s\n", state.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
