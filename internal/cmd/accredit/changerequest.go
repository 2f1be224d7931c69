package accredit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/louisbranch/accredit/internal/services/review/domain/approval"
)

var (
	flagRequest string
	flagReason  string
)

var changeRequestCmd = &cobra.Command{
	Use:   "change-request",
	Short: "Manage dual-approval change requests",
}

var changeRequestCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Request a deadline change",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity(flagSubmission)
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

		request, err := rt.changeRequests.CreateDeadlineChange(cmd.Context(), actor, flagSubmission, deadline)
		if err != nil {
			return err
		}
		fmt.Printf("change request %s created: deadline %s -> %s\n", request.ID, request.CurrentValue, request.RequestedValue)
		return nil
	},
}

var changeRequestApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a change request in the actor's slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity("")
		if err != nil {
			return err
		}
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		request, err := rt.changeRequests.Approve(cmd.Context(), actor, flagRequest, flagComment)
		if err != nil {
			return err
		}
		fmt.Printf("change request %s: %s\n", request.ID, approval.StatusLabel(request.Status()))
		return nil
	},
}

var changeRequestDenyCmd = &cobra.Command{
	Use:   "deny",
	Short: "Deny a change request",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity("")
		if err != nil {
			return err
		}
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		request, err := rt.changeRequests.Deny(cmd.Context(), actor, flagRequest, flagReason)
		if err != nil {
			return err
		}
		fmt.Printf("change request %s: %s\n", request.ID, approval.StatusLabel(request.Status()))
		return nil
	},
}

var changeRequestWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw a pending change request",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorIdentity("")
		if err != nil {
			return err
		}
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		request, err := rt.changeRequests.Withdraw(cmd.Context(), actor, flagRequest)
		if err != nil {
			return err
		}
		fmt.Printf("change request %s: %s\n", request.ID, approval.StatusLabel(request.Status()))
		return nil
	},
}

var changeRequestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List change requests for a submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		requests, err := rt.changeRequests.ListBySubmission(cmd.Context(), flagSubmission)
		if err != nil {
			return err
		}
		if len(requests) == 0 {
			fmt.Println("no change requests")
			return nil
		}
		for _, request := range requests {
			fmt.Printf("%s %s %s -> %s [%s]\n",
				request.ID, request.Type, request.CurrentValue, request.RequestedValue, approval.StatusLabel(request.Status()))
		}
		return nil
	},
}

func addRequestFlag(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&flagRequest, "request", "", "Change request id")
		_ = cmd.MarkFlagRequired("request")
	}
}

func init() {
	addSubmissionFlag(changeRequestCreateCmd, changeRequestListCmd)
	changeRequestCreateCmd.Flags().StringVar(&flagDeadline, "deadline", "", "Requested deadline (YYYY-MM-DD)")
	_ = changeRequestCreateCmd.MarkFlagRequired("deadline")

	addRequestFlag(changeRequestApproveCmd, changeRequestDenyCmd, changeRequestWithdrawCmd)
	changeRequestApproveCmd.Flags().StringVar(&flagComment, "comment", "", "Approval comment")
	changeRequestDenyCmd.Flags().StringVar(&flagReason, "reason", "", "Denial reason")
	_ = changeRequestDenyCmd.MarkFlagRequired("reason")

	changeRequestCmd.AddCommand(changeRequestCreateCmd, changeRequestApproveCmd, changeRequestDenyCmd, changeRequestWithdrawCmd, changeRequestListCmd)
	rootCmd.AddCommand(changeRequestCmd)
}
