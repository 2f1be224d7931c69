package accredit

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/louisbranch/accredit/internal/services/review/app"
	"github.com/louisbranch/accredit/internal/services/review/domain/assessment"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
	"github.com/louisbranch/accredit/internal/services/review/domain/vote"
)

var (
	flagSubmission string
	flagReviewer   string
	flagAuthor     string
	flagDeadline   string
	flagItem       string
	flagValue      string
	flagComment    string
	flagNote       string
	flagStrengths  string
	flagWeaknesses string
	flagCategory   string
)

var submissionCmd = &cobra.Command{
	Use:   "submission",
	Short: "Manage submissions under review",
}

var submissionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a submission for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity("")
		if err != nil {
			return err
		}
		deadline, err := parseDeadline(flagDeadline)
		if err != nil {
			return err
		}
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		created, err := rt.submissions.Create(cmd.Context(), actor, app.CreateInput{
			SubmissionID: flagSubmission,
			AuthorID:     flagAuthor,
			Deadline:     deadline,
		})
		if err != nil {
			return err
		}
		fmt.Printf("submission %s registered (author %s, deadline %s)\n",
			created.ID, created.AuthorID, created.Deadline.Format(deadlineLayout))
		return nil
	},
}

var submissionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a submission's state",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		s, err := rt.submissions.Get(cmd.Context(), flagSubmission)
		if err != nil {
			return err
		}
		fmt.Printf("submission %s\n  author: %s\n  deadline: %s\n  lock: %s",
			s.ID, s.AuthorID, s.Deadline.Format(deadlineLayout), lockSummary(s.Lock))
		fmt.Println()
		return nil
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign a reviewer to a submission",
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

		created, err := rt.assessments.Assign(cmd.Context(), actor, flagSubmission, flagReviewer)
		if err != nil {
			return err
		}
		fmt.Printf("reviewer %s assigned to %s (%d items)\n", created.ReviewerID, created.SubmissionID, len(created.Items))
		return nil
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Record a compliance vote on one specification item",
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

		updated, err := rt.assessments.RecordVote(cmd.Context(), actor, flagSubmission, reviewerOrActor(actor.ActorID), key, value, flagComment)
		if err != nil {
			return err
		}
		progress := updated.Progress()
		fmt.Printf("vote recorded: %s = %s (%d/%d reviewed)\n", key, vote.Label(value), progress.Reviewed, progress.Total)
		return nil
	},
}

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Toggle a bookmark on one specification item",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
		if err != nil {
			return err
		}
		key, err := parseItemKey(flagItem)
		if err != nil {
			return err
		}
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.assessments.ToggleBookmark(cmd.Context(), actor, flagSubmission, reviewerOrActor(actor.ActorID), key); err != nil {
			return err
		}
		fmt.Printf("bookmark toggled: %s\n", key)
		return nil
	},
}

var flagItemCmd = &cobra.Command{
	Use:   "flag",
	Short: "Flag one specification item with a note",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
		if err != nil {
			return err
		}
		key, err := parseItemKey(flagItem)
		if err != nil {
			return err
		}
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.assessments.FlagItem(cmd.Context(), actor, flagSubmission, reviewerOrActor(actor.ActorID), key, flagNote); err != nil {
			return err
		}
		fmt.Printf("flag recorded: %s\n", key)
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Record the reviewer's overall recommendation",
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

		if _, err := rt.assessments.SetRecommendation(cmd.Context(), actor, flagSubmission, reviewerOrActor(actor.ActorID), assessment.Recommendation{
			Strengths:  flagStrengths,
			Weaknesses: flagWeaknesses,
			Category:   category,
		}); err != nil {
			return err
		}
		fmt.Printf("recommendation recorded: %s\n", assessment.CategoryLabel(category))
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark the reviewer's assessment complete",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssessmentTransition(cmd, "assessment marked complete", func(rt *runtime) assessmentTransition {
			return rt.assessments.MarkComplete
		})
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen",
	Short: "Reopen a completed assessment for edits",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssessmentTransition(cmd, "assessment reopened", func(rt *runtime) assessmentTransition {
			return rt.assessments.Reopen
		})
	},
}

var submitReviewCmd = &cobra.Command{
	Use:   "submit-review",
	Short: "Submit the reviewer's assessment for compilation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssessmentTransition(cmd, "assessment submitted", func(rt *runtime) assessmentTransition {
			return rt.assessments.Submit
		})
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show vote coverage for one assessment",
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

		progress, err := rt.assessments.Progress(cmd.Context(), actor, flagSubmission, reviewerOrActor(actor.ActorID))
		if err != nil {
			return err
		}
		fmt.Printf("reviewed %d/%d (compliant %d, non-compliant %d, not applicable %d)\n",
			progress.Reviewed, progress.Total, progress.Compliant, progress.NonCompliant, progress.NotApplicable)
		return nil
	},
}

type assessmentTransition = func(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string) (assessment.Assessment, error)

func runAssessmentTransition(cmd *cobra.Command, message string, pick func(rt *runtime) assessmentTransition) error {
	actor, err := actorIdentity(flagSubmission)
	if err != nil {
		return err
	}
	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	updated, err := pick(rt)(cmd.Context(), actor, flagSubmission, reviewerOrActor(actor.ActorID))
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s (%s)\n", message, updated.SubmissionID, assessment.StatusLabel(updated.Status))
	return nil
}

// reviewerOrActor defaults the target reviewer to the acting user.
func reviewerOrActor(actorID string) string {
	if flagReviewer != "" {
		return flagReviewer
	}
	return actorID
}

func addSubmissionFlag(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&flagSubmission, "submission", "", "Submission id")
		_ = cmd.MarkFlagRequired("submission")
	}
}

func init() {
	submissionCreateCmd.Flags().StringVar(&flagSubmission, "submission", "", "Submission id (generated when empty)")
	submissionCreateCmd.Flags().StringVar(&flagAuthor, "author", "", "Submitting author id")
	submissionCreateCmd.Flags().StringVar(&flagDeadline, "deadline", "", "Review deadline (YYYY-MM-DD)")
	_ = submissionCreateCmd.MarkFlagRequired("author")
	_ = submissionCreateCmd.MarkFlagRequired("deadline")
	submissionCmd.AddCommand(submissionCreateCmd)

	addSubmissionFlag(submissionShowCmd)
	submissionCmd.AddCommand(submissionShowCmd)

	addSubmissionFlag(assignCmd, voteCmd, bookmarkCmd, flagItemCmd, recommendCmd, completeCmd, reopenCmd, submitReviewCmd, progressCmd)

	assignCmd.Flags().StringVar(&flagReviewer, "reviewer", "", "Reviewer id")
	_ = assignCmd.MarkFlagRequired("reviewer")

	for _, cmd := range []*cobra.Command{voteCmd, bookmarkCmd, flagItemCmd, recommendCmd, completeCmd, reopenCmd, submitReviewCmd, progressCmd} {
		cmd.Flags().StringVar(&flagReviewer, "reviewer", "", "Reviewer id (defaults to --actor)")
	}

	voteCmd.Flags().StringVar(&flagItem, "item", "", "Specification item (STANDARD/SPEC)")
	voteCmd.Flags().StringVar(&flagValue, "value", "", "Vote value: compliant, non_compliant, not_applicable")
	voteCmd.Flags().StringVar(&flagComment, "comment", "", "Optional vote comment")
	_ = voteCmd.MarkFlagRequired("item")
	_ = voteCmd.MarkFlagRequired("value")

	bookmarkCmd.Flags().StringVar(&flagItem, "item", "", "Specification item (STANDARD/SPEC)")
	_ = bookmarkCmd.MarkFlagRequired("item")

	flagItemCmd.Flags().StringVar(&flagItem, "item", "", "Specification item (STANDARD/SPEC)")
	flagItemCmd.Flags().StringVar(&flagNote, "note", "", "Flag note")
	_ = flagItemCmd.MarkFlagRequired("item")

	recommendCmd.Flags().StringVar(&flagStrengths, "strengths", "", "Overall strengths")
	recommendCmd.Flags().StringVar(&flagWeaknesses, "weaknesses", "", "Overall weaknesses")
	recommendCmd.Flags().StringVar(&flagCategory, "category", "", "Recommendation category")

	rootCmd.AddCommand(submissionCmd, assignCmd, voteCmd, bookmarkCmd, flagItemCmd, recommendCmd, completeCmd, reopenCmd, submitReviewCmd, progressCmd)
}
