package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/presence-backend-go/internal/app"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
)

func newResetDayCmd() *cobra.Command {
	var req attendance.ResetDayRequest

	cmd := &cobra.Command{
		Use:   "reset-day",
		Short: "Delete one employee's attendance record for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Attendance.ResetDay(ctx, req); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reset attendance of %s on %s\n", req.EmployeeID, req.Date)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.EmployeeID, "employee", "", "Employee ID")
	cmd.Flags().StringVar(&req.Date, "date", "", "Calendar day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

var errNotConfirmed = errors.New("refusing to delete every attendance record without --yes")

func newResetAllCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset-all",
		Short: "Delete every attendance record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errNotConfirmed
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Attendance.ResetAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d attendance records\n", res.Deleted)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm the deletion")
	return cmd
}
