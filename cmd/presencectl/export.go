package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/presence-backend-go/internal/app"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export attendance reports as xlsx workbooks",
	}
	cmd.AddCommand(newExportSummaryCmd())
	cmd.AddCommand(newExportEmployeeCmd())
	return cmd
}

// writeFile renders into path, or to out when path is "-".
func writeFile(path string, out io.Writer, render func(w io.Writer) error) (err error) {
	if path == "-" {
		return render(out)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return render(f)
}

func newExportSummaryCmd() *cobra.Command {
	var (
		req  report.SummaryRequest
		path string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Export the organization summary for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Now = time.Now()
			if path == "" {
				path = fmt.Sprintf("attendance-summary-%s.xlsx", req.Now.Format("2006-01-02"))
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := writeFile(path, cmd.OutOrStdout(), func(w io.Writer) error {
					return a.Reports.ExportSummary(ctx, req, w)
				}); err != nil {
					return err
				}
				if path != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.StartDate, "start", "", "First day, YYYY-MM-DD (defaults to the current month)")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "Last day, YYYY-MM-DD (defaults to the current month)")
	cmd.Flags().StringVarP(&path, "out", "o", "", "Output file, - for stdout")
	return cmd
}

func newExportEmployeeCmd() *cobra.Command {
	var (
		req  report.EmployeeReportRequest
		path string
	)

	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Export one employee's attendance for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Now = time.Now()
			if path == "" {
				path = fmt.Sprintf("attendance-%s-%s.xlsx", req.EmployeeID, req.Now.Format("2006-01-02"))
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := writeFile(path, cmd.OutOrStdout(), func(w io.Writer) error {
					return a.Reports.ExportEmployee(ctx, req, w)
				}); err != nil {
					return err
				}
				if path != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.EmployeeID, "employee", "", "Employee ID")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "First day, YYYY-MM-DD (defaults to the current month)")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "Last day, YYYY-MM-DD (defaults to the current month)")
	cmd.Flags().StringVarP(&path, "out", "o", "", "Output file, - for stdout")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}
