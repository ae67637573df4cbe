package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/noot-app/foodlens/internal/app"
	"github.com/noot-app/foodlens/internal/ledger"
)

func newTodayCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show the meals, totals and water of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := ledger.ParseDate(date, time.Now())
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				l, err := a.Ledger.GetDailyIntake(ctx, day)
				if err != nil {
					return err
				}
				return printJSON(cmd, l)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (default today)")
	return cmd
}

func newWeekCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show daily totals for the seven days ending at --date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := ledger.ParseDate(date, time.Now())
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				days, err := a.Ledger.GetWeeklyData(ctx, ref)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"days":    days,
					"average": ledger.Average(days),
				})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Last day of the week as YYYY-MM-DD (default today)")
	return cmd
}

func newWaterCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "water <glasses>",
		Short: "Set the number of glasses of water drunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			glasses, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("glasses must be a whole number: %w", err)
			}
			day, err := ledger.ParseDate(date, time.Now())
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				l := a.State.SetWater(ctx, glasses, day)
				if l == nil {
					return errors.New("water intake was not saved, glasses must not be negative")
				}
				return printJSON(cmd, l)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (default today)")
	return cmd
}

func newRecentCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently logged foods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				scans, err := a.Ledger.GetRecentScans(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, scans)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", ledger.DefaultRecentLimit, "How many entries to show")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the days that have logged meals or water",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				dates, err := a.Ledger.LoggedDates(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, dates)
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every logged day, goal, profile and preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear all data without --yes")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !a.State.ClearAll(ctx) {
					return errors.New("failed to clear data")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All data cleared.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting all data")
	return cmd
}
