package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SherifTito77/PsychSync-sub002/internal/api"
	"github.com/SherifTito77/PsychSync-sub002/internal/config"
	"github.com/SherifTito77/PsychSync-sub002/internal/member"
	"github.com/SherifTito77/PsychSync-sub002/internal/optimizer"
)

// --- optimize ---

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Find the best team compositions",
	Long: `Find the best team compositions from a candidate pool.

The pool is read from --file (a JSON array of member records) or, when no
file is given, from the server's stored roster.

Examples:
  psychsync optimize --file pool.json --objective maximize_performance
  psychsync optimize --objective balance_diversity
  psychsync optimize --file pool.json --local --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		objective, _ := cmd.Flags().GetString("objective")
		budget, _ := cmd.Flags().GetInt("budget")
		topK, _ := cmd.Flags().GetInt("top-k")
		local, _ := cmd.Flags().GetBool("local")
		asJSON, _ := cmd.Flags().GetBool("json")

		var records []member.Record
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading pool file: %w", err)
			}
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parsing pool file: %w", err)
			}
		}

		if local {
			if file == "" {
				return fmt.Errorf("--local requires --file")
			}
			return optimizeLocal(cmd, records, objective, budget, topK, asJSON)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := api.OptimizeRequest{
			Members:    records,
			Objective:  objective,
			MaxSubsets: budget,
			TopK:       topK,
		}
		resp, err := client.post(cmd.Context(), "/optimize", req)
		if err != nil {
			return err
		}

		var result api.OptimizeResponse
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		printResult(result.Result)
		if result.RunID != "" {
			printSuccess("Saved as run %s", result.RunID)
		}
		return nil
	},
}

// optimizeLocal runs the pipeline in-process, without a server.
func optimizeLocal(cmd *cobra.Command, records []member.Record, objective string, budget, topK int, asJSON bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if budget <= 0 {
		budget = cfg.Optimizer.MaxSubsets
	}
	if topK <= 0 {
		topK = cfg.Optimizer.TopK
	}

	opt := optimizer.New(optimizer.Options{
		MaxSubsets: budget,
		TopK:       topK,
		Workers:    cfg.Optimizer.Workers,
	})

	result, err := opt.Optimize(cmd.Context(), member.NewPool(records), objective)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(result)
	return nil
}

func printResult(result *optimizer.Result) {
	fmt.Printf("%s (objective: %s, %d candidates, %d subsets evaluated)\n",
		colorize(colorBold, "Recommended teams"),
		result.Metadata.Objective,
		result.Metadata.TotalCandidates,
		result.Metadata.SubsetsEvaluated,
	)
	if result.Metadata.BudgetExceeded {
		printWarning("evaluation budget exceeded, greedy fallback teams included")
	}

	for i, team := range result.RecommendedTeams {
		fmt.Printf("\n%s  score %.3f\n", colorize(colorCyan, fmt.Sprintf("#%d", i+1)), team.Score)
		fmt.Printf("  Members:       %s\n", strings.Join(team.MemberIDs, ", "))
		fmt.Printf("  Compatibility: %.3f   Coverage: %.3f   Diversity: %.3f\n",
			team.CompatibilityScore, team.SkillCoverage, team.DiversityScore)
		for _, s := range team.Strengths {
			fmt.Printf("  + %s\n", s)
		}
		for _, r := range team.Risks {
			fmt.Printf("  - %s\n", r)
		}
	}

	if len(result.Insights) > 0 {
		fmt.Printf("\n%s\n", colorize(colorBold, "Insights"))
		for _, insight := range result.Insights {
			fmt.Printf("  • %s\n", insight)
		}
	}
}

func init() {
	optimizeCmd.Flags().String("file", "", "JSON file with the candidate pool (default: stored roster)")
	optimizeCmd.Flags().String("objective", "maximize_performance", "optimization objective")
	optimizeCmd.Flags().Int("budget", 0, "subset evaluation budget (default: configured value)")
	optimizeCmd.Flags().Int("top-k", 0, "number of teams to return (default: configured value)")
	optimizeCmd.Flags().Bool("local", false, "run in-process without the server")
	optimizeCmd.Flags().Bool("json", false, "print the raw result as JSON")
}

// --- members ---

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage the stored roster",
}

var membersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a member to the roster",
	Long: `Add a member to the roster.

Examples:
  psychsync members add --name Ada --role developer --skills python,go --experience 6
  psychsync members add --role qa --traits '{"conscientiousness":0.8}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		skillsStr, _ := cmd.Flags().GetString("skills")
		traitsStr, _ := cmd.Flags().GetString("traits")
		experience, _ := cmd.Flags().GetFloat64("experience")
		availability, _ := cmd.Flags().GetFloat64("availability")

		if role == "" {
			return fmt.Errorf("--role is required")
		}

		rec := member.Record{Name: name, Role: role}
		if skillsStr != "" {
			skills := strings.Split(skillsStr, ",")
			for i := range skills {
				skills[i] = strings.TrimSpace(skills[i])
			}
			rec.Skills = skills
		}
		if traitsStr != "" {
			if err := json.Unmarshal([]byte(traitsStr), &rec.Traits); err != nil {
				return fmt.Errorf("invalid --traits JSON: %w", err)
			}
		}
		if cmd.Flags().Changed("experience") {
			rec.ExperienceYears = &experience
		}
		if cmd.Flags().Changed("availability") {
			rec.Availability = &availability
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/members", rec)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Added member %s", result["id"])
		return nil
	},
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/members")
		if err != nil {
			return err
		}

		var members []member.Record
		if err := decodeJSON(resp, &members); err != nil {
			return err
		}

		if len(members) == 0 {
			fmt.Println("Roster is empty.")
			return nil
		}

		for _, m := range members {
			exp := "-"
			if m.ExperienceYears != nil {
				exp = fmt.Sprintf("%.0fy", *m.ExperienceYears)
			}
			fmt.Printf("%s  %-10s %-4s %s\n",
				colorize(colorCyan, shortID(m.ID)),
				m.Role,
				exp,
				strings.Join(m.Skills, ", "),
			)
		}
		return nil
	},
}

var membersRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a member from the roster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/members/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Removed member %s", args[0])
		return nil
	},
}

func init() {
	membersAddCmd.Flags().String("name", "", "member display name")
	membersAddCmd.Flags().String("role", "", "functional role (developer, designer, pm, qa, devops)")
	membersAddCmd.Flags().String("skills", "", "comma-separated skill list")
	membersAddCmd.Flags().String("traits", "", "JSON object of trait scores in [0,1]")
	membersAddCmd.Flags().Float64("experience", 0, "years of experience")
	membersAddCmd.Flags().Float64("availability", 1, "availability fraction in [0,1]")

	membersCmd.AddCommand(membersAddCmd)
	membersCmd.AddCommand(membersListCmd)
	membersCmd.AddCommand(membersRmCmd)
}

// --- runs ---

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past optimization runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/runs?limit=%d", limit))
		if err != nil {
			return err
		}

		var runs []api.RunSummary
		if err := decodeJSON(resp, &runs); err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return nil
		}

		for _, run := range runs {
			fmt.Printf("%s  %s  %-24s %2d candidates  score %.3f\n",
				colorize(colorCyan, shortID(run.ID)),
				run.CreatedAt.Format("2006-01-02 15:04"),
				run.Objective,
				run.CandidateCount,
				run.TopScore,
			)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/runs/"+args[0])
		if err != nil {
			return err
		}

		var run any
		if err := decodeJSON(resp, &run); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/runs/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted run %s", args[0])
		return nil
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsRmCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a single configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			if k.Key == args[0] {
				fmt.Println(k.Value)
				return nil
			}
		}
		return fmt.Errorf("unknown key %q (valid: %s)", args[0], strings.Join(config.ValidKeys(), ", "))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
