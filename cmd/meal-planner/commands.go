package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"meal-planner/internal/grocery"
	"meal-planner/internal/planner"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func groceryCmd() *cobra.Command {
	var storeID int64
	var format string

	cmd := &cobra.Command{
		Use:   "grocery <plan-id>",
		Short: "Build the grocery list for a meal plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, err := parseID(args[0])
			if err != nil {
				return err
			}
			list, err := current.app.GenerateGroceryList(cmd.Context(), planID, storeID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "markdown", "md":
				fmt.Fprint(out, grocery.Markdown(list))
			case "text":
				fmt.Fprint(out, grocery.PlainText(list))
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			for _, w := range list.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w.Message)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&storeID, "store", 0, "store whose layout orders the list (default: configured store)")
	cmd.Flags().StringVar(&format, "format", "markdown", "output format: markdown, text or json")
	return cmd
}

func plansCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List saved meal plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := current.app.Plans().List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, p := range plans {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", p.ID, p.Name, p.UpdatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of plans")

	var name string
	add := &cobra.Command{
		Use:   "add <day[/meal]=recipe-id>...",
		Short: "Save a plan, e.g. Monday=12 Tuesday/Lunch=7",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := &planner.WeeklyPlan{Name: name}
			for _, arg := range args {
				slot, err := parseSlot(arg)
				if err != nil {
					return err
				}
				plan.Meals = append(plan.Meals, slot)
			}
			if err := current.app.Plans().Create(cmd.Context(), plan); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created plan %d: %s\n", plan.ID, plan.Name)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "plan name")

	draft := &cobra.Command{
		Use:   "draft <request>",
		Short: "Ask the LLM for a week of dinners",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := current.app.DraftPlan(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created plan %d: %s\n", plan.ID, plan.Name)
			for _, m := range plan.Meals {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s: %s\n", m.Day, m.MealType, m.RecipeTitle)
			}
			return nil
		},
	}

	cmd.AddCommand(add, draft)
	return cmd
}

// parseSlot reads "Day=ID" or "Day/MealType=ID". The meal type defaults to
// Dinner.
func parseSlot(s string) (planner.MealSlot, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return planner.MealSlot{}, fmt.Errorf("invalid meal %q, want day=recipe-id", s)
	}
	id, err := parseID(value)
	if err != nil {
		return planner.MealSlot{}, err
	}
	day, mealType, _ := strings.Cut(key, "/")
	if mealType == "" {
		mealType = "Dinner"
	}
	return planner.MealSlot{Day: day, MealType: mealType, RecipeID: id}, nil
}

func storesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List grocery stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := current.app.Stores().List(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range stores {
				marker := ""
				if s.IsDefault {
					marker = "\t(default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s%s\n", s.ID, s.Name, marker)
			}
			return nil
		},
	}

	var isDefault bool
	add := &cobra.Command{
		Use:   "add <name> [section...]",
		Short: "Create a store; sections are listed in aisle order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := current.app.Stores().CreateStore(cmd.Context(), args[0], isDefault, args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created store %d: %s\n", st.ID, st.Name)
			return nil
		},
	}
	add.Flags().BoolVar(&isDefault, "default", false, "make this the default store")
	cmd.AddCommand(add)
	return cmd
}

func organizeCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "organize [store-id]",
		Short: "Suggest sections for ingredients a store has not mapped",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var storeID int64
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				storeID = id
			}
			suggestions, err := current.app.OrganizeStore(cmd.Context(), storeID, apply)
			if err != nil {
				return err
			}
			for _, s := range suggestions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t-> %s\t(%s)\n", s.Ingredient, s.Section, s.Source)
			}
			if !apply && len(suggestions) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Run again with --apply to save these.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "save the suggestions")
	return cmd
}

func publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <list-id>",
		Short: "Post a saved grocery list to the blog as a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := current.app.PublishGroceryList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s post %s\n", post.Status, post.ID)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [dir]",
		Short: "Load recipe files into the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := current.cfg.RecipeStoragePath
			if len(args) == 1 {
				dir = args[0]
			}
			n, err := current.app.SeedFromDir(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d recipes from %s\n", n, dir)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [dir]",
		Short: "Write every recipe in the catalog to files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := current.cfg.RecipeStoragePath
			if len(args) == 1 {
				dir = args[0]
			}
			n, err := current.app.ExportToDir(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d recipes to %s\n", n, dir)
			return nil
		},
	}
}

func importGhostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-ghost",
		Short: "Extract recipes from the Ghost blog into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			var bar *progressbar.ProgressBar
			report, err := current.app.ImportFromGhost(cmd.Context(), func(done, total int) {
				if bar == nil {
					bar = progressbar.Default(int64(total), "importing")
				}
				bar.Set(done)
			})
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d, imported %d, skipped %d, failed %d, removed %d\n",
				report.Fetched, report.Imported, report.Skipped, report.Failed, report.Removed)
			return nil
		},
	}
}

func clipCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "clip <url>",
		Short: "Save the recipe found at a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := current.app.ClipRecipe(cmd.Context(), args[0], publish)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d: %s\n", rec.ID, rec.Name)
			for _, line := range rec.Ingredients {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "also publish the recipe to the blog")
	return cmd
}

func metricsCleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old metric records",
		RunE: func(cmd *cobra.Command, args []string) error {
			affected, err := current.app.CleanupMetrics(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "keep records for the last N days")
	return cmd
}
