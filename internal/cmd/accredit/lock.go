package accredit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
	"github.com/louisbranch/accredit/internal/services/review/domain/lock"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Manage the submission edit lock",
}

var lockAcquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Take the edit lock on a submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLockTransition(cmd, func(rt *runtime) lockTransition {
			return func(cmd *cobra.Command, actor identity.Identity) (lock.Lock, error) {
				return rt.locks.Acquire(cmd.Context(), actor, flagSubmission)
			}
		})
	},
}

var lockReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the edit lock on a submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLockTransition(cmd, func(rt *runtime) lockTransition {
			return func(cmd *cobra.Command, actor identity.Identity) (lock.Lock, error) {
				return rt.locks.Release(cmd.Context(), actor, flagSubmission)
			}
		})
	},
}

var lockSendBackCmd = &cobra.Command{
	Use:   "send-back",
	Short: "Return the submission to its author for correction",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLockTransition(cmd, func(rt *runtime) lockTransition {
			return func(cmd *cobra.Command, actor identity.Identity) (lock.Lock, error) {
				return rt.locks.SendBack(cmd.Context(), actor, flagSubmission, flagNote)
			}
		})
	},
}

var lockClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the sent-back marker after correction",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLockTransition(cmd, func(rt *runtime) lockTransition {
			return func(cmd *cobra.Command, actor identity.Identity) (lock.Lock, error) {
				return rt.locks.ClearSentBack(cmd.Context(), actor, flagSubmission)
			}
		})
	},
}

var lockShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the lock state of a submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		state, err := rt.locks.Get(cmd.Context(), flagSubmission)
		if err != nil {
			return err
		}
		fmt.Println(lockSummary(state))
		return nil
	},
}

type lockTransition = func(cmd *cobra.Command, actor identity.Identity) (lock.Lock, error)

func runLockTransition(cmd *cobra.Command, pick func(rt *runtime) lockTransition) error {
	actor, err := actorIdentity(flagSubmission)
	if err != nil {
		return err
	}
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	state, err := pick(rt)(cmd, actor)
	if err != nil {
		return err
	}
	fmt.Println(lockSummary(state))
	return nil
}

func lockSummary(state lock.Lock) string {
	switch state.Reason {
	case lock.ReasonSentBack:
		return fmt.Sprintf("sent back for correction by %s: %s", state.HolderID, state.Note)
	case lock.ReasonReaderReview, lock.ReasonLeadReaderReview:
		return fmt.Sprintf("locked by %s (%s)", state.HolderID, lock.ReasonLabel(state.Reason))
	default:
		return "unlocked"
	}
}

func init() {
	addSubmissionFlag(lockAcquireCmd, lockReleaseCmd, lockSendBackCmd, lockClearCmd, lockShowCmd)
	lockSendBackCmd.Flags().StringVar(&flagNote, "note", "", "Correction reason")
	_ = lockSendBackCmd.MarkFlagRequired("note")

	lockCmd.AddCommand(lockAcquireCmd, lockReleaseCmd, lockSendBackCmd, lockClearCmd, lockShowCmd)
	rootCmd.AddCommand(lockCmd)
}
