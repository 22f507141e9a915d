package cli

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/faizmokh/worklog/internal/files"
	"github.com/faizmokh/worklog/internal/logbook"
	"github.com/faizmokh/worklog/internal/merge"
)

func newFilterCommand(ctx context.Context, env *environment) *cobra.Command {
	var fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the sections with entries dated inside a range.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			r, err := resolveRange(fromFlag, toFlag, env.now())
			if err != nil {
				return err
			}
			doc, err := env.store().Read(ctx)
			if err != nil {
				return err
			}
			filtered, err := logbook.Extract(doc, r)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), filtered)
			return nil
		},
	}

	addRangeFlags(cmd, &fromFlag, &toFlag)

	return cmd
}

func newReportCommand(ctx context.Context, env *environment) *cobra.Command {
	var (
		fromFlag  string
		toFlag    string
		styleFlag string
		outFlag   string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a Markdown report for a date range.",
		Long: "report filters the worklog to the range and asks the model for a report in the chosen style (" +
			strings.Join(merge.Styles(), ", ") + "). The worklog itself is never modified.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			r, err := resolveRange(fromFlag, toFlag, env.now())
			if err != nil {
				return err
			}
			report, err := env.orchestrator().Report(ctx, r, styleFlag)
			if err != nil {
				return err
			}

			if outFlag == "" {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(report, "\n"))
				return nil
			}
			path, err := files.ExpandPath(outFlag)
			if err != nil {
				return err
			}
			if err := files.WriteAtomic(path, []byte(report)); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s report to %s\n", styleFlag, path)
			return nil
		},
	}

	addRangeFlags(cmd, &fromFlag, &toFlag)
	cmd.Flags().StringVar(&styleFlag, "style", merge.StyleSummary, "Report style: "+strings.Join(merge.Styles(), "|"))
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Write the report to a file instead of stdout")

	return cmd
}

func newExportCommand(ctx context.Context, env *environment) *cobra.Command {
	var (
		fromFlag string
		toFlag   string
		outFlag  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the worklog as a standalone HTML page.",
		Long:  "export converts the worklog to HTML. When --from or --to is given only the sections dated inside that range are included.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			doc, err := env.store().Read(ctx)
			if err != nil {
				return err
			}
			title := "Worklog"
			if fromFlag != "" || toFlag != "" {
				r, err := resolveRange(fromFlag, toFlag, env.now())
				if err != nil {
					return err
				}
				if doc, err = logbook.Extract(doc, r); err != nil {
					return err
				}
				title = fmt.Sprintf("Worklog %s to %s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
			}

			page, err := renderHTML(title, doc)
			if err != nil {
				return err
			}
			if outFlag == "" {
				_, err := cmd.OutOrStdout().Write(page)
				return err
			}
			path, err := files.ExpandPath(outFlag)
			if err != nil {
				return err
			}
			if err := files.WriteAtomic(path, page); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported worklog to %s\n", path)
			return nil
		},
	}

	addRangeFlags(cmd, &fromFlag, &toFlag)
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Write HTML to a file instead of stdout")

	return cmd
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func renderHTML(title, doc string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(doc), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	page.WriteString(html.EscapeString(title))
	page.WriteString("</title>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
