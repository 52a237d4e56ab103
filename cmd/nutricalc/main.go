// Command nutricalc prints the daily needs for a profile given on the command line.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/FloFRCD/nutrition-app-sub001/nutrition"

	"github.com/spf13/cobra"
)

type flags struct {
	sex      string
	age      int
	weight   float64
	height   float64
	bodyFat  float64
	activity string
	goal     string
	json     bool
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "nutricalc",
		Short:         "Compute calorie, macro and meal targets",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := f.profile(cmd.Flags().Changed("body-fat"))
			if err != nil {
				return err
			}
			needs := nutrition.Calculate(p)
			if f.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(needs)
			}
			printNeeds(cmd.OutOrStdout(), needs)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.sex, "sex", "", "male or female")
	cmd.Flags().IntVar(&f.age, "age", 0, "age in years")
	cmd.Flags().Float64Var(&f.weight, "weight", 0, "weight in kg")
	cmd.Flags().Float64Var(&f.height, "height", 0, "height in cm")
	cmd.Flags().Float64Var(&f.bodyFat, "body-fat", 0, "body fat percentage")
	cmd.Flags().StringVar(&f.activity, "activity", "moderate", "sedentary, light, moderate, active or very_active")
	cmd.Flags().StringVar(&f.goal, "goal", "maintain", "lose, maintain or gain")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON")
	for _, name := range []string{"sex", "age", "weight", "height"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (f flags) profile(withBodyFat bool) (nutrition.Profile, error) {
	sex, err := nutrition.ParseSex(f.sex)
	if err != nil {
		return nutrition.Profile{}, err
	}
	activity, err := nutrition.ParseActivityLevel(f.activity)
	if err != nil {
		return nutrition.Profile{}, err
	}
	goal, err := nutrition.ParseGoal(f.goal)
	if err != nil {
		return nutrition.Profile{}, err
	}
	p := nutrition.Profile{
		Sex:      sex,
		Age:      f.age,
		HeightCM: f.height,
		WeightKG: f.weight,
		Activity: activity,
		Goal:     goal,
	}
	if withBodyFat {
		bf := f.bodyFat
		p.BodyFatPct = &bf
	}
	return p, p.Validate()
}

func printNeeds(w io.Writer, n nutrition.Needs) {
	fmt.Fprintf(w, "BMR:          %8.0f kcal\n", n.BMR)
	fmt.Fprintf(w, "Maintenance:  %8.0f kcal\n", n.Maintenance)
	fmt.Fprintf(w, "Target:       %8.0f kcal\n", n.Calories)
	fmt.Fprintf(w, "Protein:      %8.0f g\n", n.Macros.Protein)
	fmt.Fprintf(w, "Fat:          %8.0f g\n", n.Macros.Fat)
	fmt.Fprintf(w, "Carbs:        %8.0f g\n", n.Macros.Carbs)
	fmt.Fprintf(w, "Fiber:        %8.0f g\n", n.Macros.Fiber)
	fmt.Fprintln(w, "Meals:")
	for _, meal := range nutrition.MealTypes {
		fmt.Fprintf(w, "  %-10s  %8.0f kcal\n", meal, n.Meals.For(meal))
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
