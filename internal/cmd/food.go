package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noot-app/foodlens/internal/app"
	"github.com/noot-app/foodlens/internal/barcode"
	"github.com/noot-app/foodlens/internal/types"
)

// resolveMeal returns the named slot, or the slot suggested for the current hour
func resolveMeal(name string, now time.Time) (types.MealType, error) {
	if name == "" {
		return types.MealTypeForHour(now.Hour()), nil
	}
	meal, ok := types.ParseMealType(name)
	if !ok {
		return "", fmt.Errorf("unknown meal %q (want breakfast, lunch, snacks or dinner)", name)
	}
	return meal, nil
}

func newScanCmd() *cobra.Command {
	var hint, meal string
	var logIt bool
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Recognize the food in a photo",
		Long: `Recognize the food in a JPEG, PNG or WebP photo and print its estimated nutrition.

With --log the result is added to today's log, in --meal or in the slot that fits the
current time of day.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := resolveMeal(meal, time.Now())
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result := a.Recognizer.RecognizeFood(ctx, args[0], hint)
				if logIt || meal != "" {
					if a.State.LogFood(ctx, result, slot, time.Now()) == nil {
						return fmt.Errorf("could not log %s", result.FoodName)
					}
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().StringVar(&hint, "hint", "", "What the food is, if you know")
	cmd.Flags().StringVar(&meal, "meal", "", "Meal slot to log into (implies --log)")
	cmd.Flags().BoolVar(&logIt, "log", false, "Add the result to today's log")
	return cmd
}

func newBarcodeCmd() *cobra.Command {
	var meal string
	cmd := &cobra.Command{
		Use:   "barcode <code>",
		Short: "Look up a packaged food by barcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var slot types.MealType
			if meal != "" {
				var err error
				if slot, err = resolveMeal(meal, time.Now()); err != nil {
					return err
				}
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Barcodes.Lookup(ctx, args[0])
				if errors.Is(err, barcode.ErrNotFound) {
					return fmt.Errorf("no product found for barcode %s", args[0])
				}
				if err != nil {
					return err
				}
				if slot != "" {
					if a.State.LogFood(ctx, result, slot, time.Now()) == nil {
						return fmt.Errorf("could not log %s", result.FoodName)
					}
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().StringVar(&meal, "meal", "", "Meal slot to log the product into")
	return cmd
}
