// cmd/agent/run.go
package main

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/solana-agent/internal/intent"
	"github.com/rovshanmuradov/solana-agent/internal/pipeline"
)

var (
	runCaller  string
	runConfirm bool
)

var runCmd = &cobra.Command{
	Use:   "run <message>",
	Short: "Process a single request and exit",
	Long: `run feeds one message through the agent and prints the outcome.
Transactions still require confirmation: without --yes the agent prints
the pending summary and exits, so you can review before re-running with
--yes to submit.

  solana-agent run "swap 1.5 SOL for USDC"
  solana-agent run --yes "swap 1.5 SOL for USDC"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runCaller, "caller", "local", "Caller identity checked against admin_ids")
	runCmd.Flags().BoolVar(&runConfirm, "yes", false, "Confirm and submit without a second invocation")
}

func runOnce(cmd *cobra.Command, args []string) error {
	a, err := buildAgent()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	text := strings.Join(args, " ")
	convo := intent.Conversation{{Role: intent.RoleUser, Text: text}}

	action := pipeline.ActionSwap
	if strings.HasPrefix(strings.ToLower(text), "launch") {
		action = pipeline.ActionCreateAndBuy
	}

	resp, err := a.pipeline.Handle(cmd.Context(), pipeline.Request{
		CallerID:     runCaller,
		Action:       action,
		Conversation: convo,
	})
	if err != nil && resp == nil {
		printError(err)
		return err
	}

	if resp.Pending && runConfirm {
		convo = append(convo,
			intent.Turn{Role: intent.RoleAgent, Text: resp.Message},
			intent.Turn{Role: intent.RoleUser, Text: "yes"},
		)
		resp, err = a.pipeline.Handle(cmd.Context(), pipeline.Request{
			CallerID:     runCaller,
			Action:       action,
			Conversation: convo,
		})
		if err != nil && resp == nil {
			printError(err)
			return err
		}
	}

	switch {
	case resp.Success:
		color.Green(resp.Message)
	case resp.Pending:
		color.Yellow(resp.Message)
	default:
		color.Red(resp.Message)
	}
	return nil
}
