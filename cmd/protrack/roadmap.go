package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hyperengineering/protrack/internal/config"
	"github.com/hyperengineering/protrack/internal/store"
	"github.com/hyperengineering/protrack/internal/types"
	"github.com/spf13/cobra"
)

var (
	roadmapDBOverride string
	roadmapUserID     string
	roadmapCategory   string
	roadmapJSONOutput bool
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Inspect stored roadmaps",
	Long:  "List and show a user's roadmaps directly from the database without running the server.",
}

var roadmapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's roadmaps",
	Args:  cobra.NoArgs,
	RunE:  runRoadmapList,
}

var roadmapShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one roadmap with its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoadmapShow,
}

func init() {
	roadmapCmd.PersistentFlags().StringVar(&roadmapDBOverride, "db", "",
		"Database path (overrides config and PROTRACK_DB_PATH)")
	roadmapCmd.PersistentFlags().StringVar(&roadmapUserID, "user", "",
		"Owner user id")
	roadmapCmd.PersistentFlags().BoolVar(&roadmapJSONOutput, "json", false,
		"Output in JSON format")
	roadmapListCmd.Flags().StringVar(&roadmapCategory, "category", "",
		"Only list roadmaps of this category")

	roadmapCmd.AddCommand(roadmapListCmd)
	roadmapCmd.AddCommand(roadmapShowCmd)
	rootCmd.AddCommand(roadmapCmd)
}

// openRoadmapStore opens the database named by --db or the config.
func openRoadmapStore() (*store.SQLiteStore, error) {
	if roadmapUserID == "" {
		return nil, errors.New("--user is required")
	}

	path := roadmapDBOverride
	if path == "" {
		cfg, err := config.LoadOffline()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.Database.Path
	}
	return store.NewSQLiteStore(path)
}

func runRoadmapList(cmd *cobra.Command, args []string) error {
	c := types.Category(roadmapCategory)
	if c != "" && !c.IsValid() {
		return fmt.Errorf("invalid category %q", roadmapCategory)
	}

	s, err := openRoadmapStore()
	if err != nil {
		return err
	}
	defer s.Close()

	roadmaps, err := s.ListRoadmaps(context.Background(), roadmapUserID, c)
	if err != nil {
		return fmt.Errorf("list roadmaps: %w", err)
	}

	if roadmapJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"roadmaps": roadmaps,
			"total":    len(roadmaps),
		})
	}

	if len(roadmaps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No roadmaps found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tCATEGORY\tDAYS\tDONE\tSTART\tTITLE")
	for _, r := range roadmaps {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID,
			r.Category,
			r.TotalDays,
			completedCount(r.DailyTasks),
			r.StartDate,
			r.Title,
		)
	}
	return w.Flush()
}

func runRoadmapShow(cmd *cobra.Command, args []string) error {
	s, err := openRoadmapStore()
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := s.GetRoadmap(context.Background(), roadmapUserID, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("roadmap %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("get roadmap: %w", err)
	}

	if roadmapJSONOutput {
		return printJSON(cmd.OutOrStdout(), r)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", r.Title, r.Category)
	if r.Description != "" {
		fmt.Fprintln(out, r.Description)
	}
	fmt.Fprintf(out, "Start: %s  Days: %d  Completed: %d/%d\n\n",
		r.StartDate, r.TotalDays, completedCount(r.DailyTasks), len(r.DailyTasks))

	w := newTabWriter(out)
	fmt.Fprintln(w, "DAY\tDATE\tDONE\tTITLE")
	for _, t := range r.DailyTasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(w, "%d\t%s\t[%s]\t%s\n", t.Day, t.Date, done, t.Title)
	}
	return w.Flush()
}

func completedCount(tasks []types.DailyTask) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
