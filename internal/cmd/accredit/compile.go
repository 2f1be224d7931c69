package accredit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/louisbranch/accredit/internal/services/review/domain/assessment"
	"github.com/louisbranch/accredit/internal/services/review/domain/compilation"
	"github.com/louisbranch/accredit/internal/services/review/domain/vote"
)

var flagAdoptConsensus bool

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Aggregate submitted assessments into the compilation",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
		if err != nil {
			return err
		}
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		compiled, err := rt.compilations.Aggregate(cmd.Context(), actor, flagSubmission)
		if err != nil {
			return err
		}
		if flagAdoptConsensus {
			compiled, err = rt.compilations.AdoptConsensus(cmd.Context(), actor, flagSubmission)
			if err != nil {
				return err
			}
		}

		fmt.Printf("compiled %d items from %d submitted reviews\n", len(compiled.Items), len(compiled.Recommendations))
		for _, item := range compiled.Items {
			marker := " "
			if item.HasDisagreement {
				marker = "!"
			}
			fmt.Printf("  %s %-12s consensus=%s determination=%s\n",
				marker, item.Key, vote.Label(item.Consensus), vote.Label(item.Determination()))
		}
		return nil
	},
}

var determineCmd = &cobra.Command{
	Use:   "determine",
	Short: "Record the lead reader's final determination for one item",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
		if err != nil {
			return err
		}
		key, err := parseItemKey(flagItem)
		if err != nil {
			return err
		}
		value := vote.FromLabel(flagValue)
		if !vote.IsCounted(value) {
			return fmt.Errorf("--value must be one of compliant, non_compliant, not_applicable")
		}
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.compilations.SetFinalDetermination(cmd.Context(), actor, flagSubmission, key, value, flagNote); err != nil {
			return err
		}
		fmt.Printf("determination recorded: %s = %s\n", key, vote.Label(value))
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Record the compiled cross-reviewer summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
		if err != nil {
			return err
		}
		category := assessment.CategoryFromLabel(flagCategory)
		if category == assessment.RecommendationUnspecified {
			return fmt.Errorf("--category must be one of accredit, accredit_with_conditions, defer, deny")
		}
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.compilations.SetSummary(cmd.Context(), actor, flagSubmission, compilation.Summary{
			Strengths:  flagStrengths,
			Weaknesses: flagWeaknesses,
			Category:   category,
		}); err != nil {
			return err
		}
		fmt.Printf("summary recorded: %s\n", assessment.CategoryLabel(category))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show determination statistics for the compilation",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
		if err != nil {
			return err
		}
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		stats, err := rt.compilations.Statistics(cmd.Context(), actor, flagSubmission)
		if err != nil {
			return err
		}
		fmt.Printf("items: %d\n  compliant: %d\n  non-compliant: %d\n  not applicable: %d\n  undetermined: %d\n  compliance rate: %.1f%%\n",
			stats.Total, stats.Compliant, stats.NonCompliant, stats.NotApplicable, stats.Undetermined, stats.ComplianceRate*100)
		return nil
	},
}

var disagreementsCmd = &cobra.Command{
	Use:   "disagreements",
	Short: "List items where reviewers split",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
		if err != nil {
			return err
		}
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		items, err := rt.compilations.Disagreements(cmd.Context(), actor, flagSubmission)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("no disagreements")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%s consensus=%s\n", item.Key, vote.Label(item.Consensus))
			for _, v := range item.Votes {
				fmt.Printf("  %s: %s", v.ReviewerID, vote.Label(v.Value))
				if v.Comment != "" {
					fmt.Printf(" (%s)", v.Comment)
				}
				fmt.Println()
			}
		}
		return nil
	},
}

var submitCompilationCmd = &cobra.Command{
	Use:   "submit-compilation",
	Short: "Submit the compiled recommendation",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
		if err != nil {
			return err
		}
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		submitted, err := rt.compilations.Submit(cmd.Context(), actor, flagSubmission)
		if err != nil {
			return err
		}
		fmt.Printf("compilation submitted: %s (%s)\n", submitted.SubmissionID, assessment.CategoryLabel(submitted.Summary.Category))
		return nil
	},
}

var approveCompilationCmd = &cobra.Command{
	Use:   "approve-compilation",
	Short: "Approve a submitted compilation",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
		if err != nil {
			return err
		}
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		approved, err := rt.compilations.Approve(cmd.Context(), actor, flagSubmission)
		if err != nil {
			return err
		}
		fmt.Printf("compilation approved: %s\n", approved.SubmissionID)
		return nil
	},
}

func init() {
	addSubmissionFlag(compileCmd, determineCmd, summaryCmd, statsCmd, disagreementsCmd, submitCompilationCmd, approveCompilationCmd)

	compileCmd.Flags().BoolVar(&flagAdoptConsensus, "adopt-consensus", false, "Adopt consensus values as determinations where no override exists")

	determineCmd.Flags().StringVar(&flagItem, "item", "", "Specification item (STANDARD/SPEC)")
	determineCmd.Flags().StringVar(&flagValue, "value", "", "Determination value")
	determineCmd.Flags().StringVar(&flagNote, "note", "", "Lead reader notes")
	_ = determineCmd.MarkFlagRequired("item")
	_ = determineCmd.MarkFlagRequired("value")

	summaryCmd.Flags().StringVar(&flagStrengths, "strengths", "", "Overall strengths")
	summaryCmd.Flags().StringVar(&flagWeaknesses, "weaknesses", "", "Overall weaknesses")
	summaryCmd.Flags().StringVar(&flagCategory, "category", "", "Recommendation category")

	rootCmd.AddCommand(compileCmd, determineCmd, summaryCmd, statsCmd, disagreementsCmd, submitCompilationCmd, approveCompilationCmd)
}
