package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noot-app/foodlens/internal/app"
	"github.com/noot-app/foodlens/internal/types"
)

func newGoalsCmd() *cobra.Command {
	var preset string
	var calories, protein, carbs, fat, fiber float64
	var water, meals int

	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Show or change daily nutrition goals",
		Long: `Without flags, print the current goals. --preset applies an activity level
(sedentary, moderate or active) to calories and macros; individual flags are applied
after the preset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				goals, err := a.Ledger.GetGoals(ctx)
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				changed := false
				if preset != "" {
					var ok bool
					if goals, ok = goals.ApplyPreset(preset); !ok {
						return fmt.Errorf("unknown preset %q", preset)
					}
					changed = true
				}
				for name, pair := range map[string]struct {
					dst *float64
					val float64
				}{
					"calories": {&goals.DailyCalories, calories},
					"protein":  {&goals.DailyProtein, protein},
					"carbs":    {&goals.DailyCarbs, carbs},
					"fat":      {&goals.DailyFat, fat},
					"fiber":    {&goals.DailyFiber, fiber},
				} {
					if flags.Changed(name) {
						*pair.dst = pair.val
						changed = true
					}
				}
				if flags.Changed("water") {
					goals.WaterGlasses = water
					changed = true
				}
				if flags.Changed("meals") {
					goals.MealsPerDay = meals
					changed = true
				}

				if changed && !a.State.UpdateGoals(ctx, goals) {
					return fmt.Errorf("goals were not saved, every target must be positive")
				}
				return printJSON(cmd, goals)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "Activity preset: sedentary, moderate or active")
	f.Float64Var(&calories, "calories", 0, "Daily calories (kcal)")
	f.Float64Var(&protein, "protein", 0, "Daily protein (g)")
	f.Float64Var(&carbs, "carbs", 0, "Daily carbohydrates (g)")
	f.Float64Var(&fat, "fat", 0, "Daily fat (g)")
	f.Float64Var(&fiber, "fiber", 0, "Daily fiber (g)")
	f.IntVar(&water, "water", 0, "Glasses of water per day")
	f.IntVar(&meals, "meals", 0, "Meals per day")
	return cmd
}

// profileView adds derived fields to the stored profile
type profileView struct {
	types.UserProfile
	BMI         float64 `json:"bmi"`
	BMICategory string  `json:"bmiCategory"`
}

func newProfileCmd() *cobra.Command {
	var name, gender, activity, goal string
	var age int
	var height, weight float64

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the user profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := a.Ledger.GetProfile(ctx)
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				if flags.Changed("name") {
					p.Name = name
				}
				if flags.Changed("age") {
					p.Age = age
				}
				if flags.Changed("height") {
					p.HeightCm = height
				}
				if flags.Changed("weight") {
					p.WeightKg = weight
				}
				if flags.Changed("gender") {
					p.Gender = gender
				}
				if flags.Changed("activity") {
					p.ActivityLevel = activity
				}
				if flags.Changed("goal") {
					p.Goal = goal
				}

				if flags.NFlag() > 0 {
					if !a.State.SaveProfile(ctx, p) {
						return fmt.Errorf("profile was not saved, check the values")
					}
					if p, err = a.Ledger.GetProfile(ctx); err != nil {
						return err
					}
				}
				bmi := p.BMI()
				return printJSON(cmd, profileView{UserProfile: p, BMI: bmi, BMICategory: types.BMICategory(bmi)})
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Display name")
	f.IntVar(&age, "age", 0, "Age in years")
	f.Float64Var(&height, "height", 0, "Height in cm")
	f.Float64Var(&weight, "weight", 0, "Weight in kg")
	f.StringVar(&gender, "gender", "", "male or female")
	f.StringVar(&activity, "activity", "", "sedentary, moderate or active")
	f.StringVar(&goal, "goal", "", "maintain, lose or gain")
	return cmd
}

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.State.Refresh(ctx); err != nil {
					return err
				}

				mode := a.State.Snapshot().Theme
				if len(args) == 1 {
					switch args[0] {
					case "light", "dark":
						if !a.State.SetDarkMode(ctx, args[0] == "dark") {
							return fmt.Errorf("failed to save theme")
						}
						mode = a.State.Snapshot().Theme
					case "toggle":
						mode = a.State.ToggleTheme(ctx)
					default:
						return fmt.Errorf("unknown theme %q", args[0])
					}
				}
				return printJSON(cmd, map[string]any{
					"theme":  mode.String(),
					"colors": mode.Colors(),
				})
			})
		},
	}
}
