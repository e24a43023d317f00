// cmd/agent/chat.go
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/solana-agent/internal/intent"
	"github.com/rovshanmuradov/solana-agent/internal/pipeline"
)

var callerID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the agent from the terminal",
	Long: `chat starts an interactive session. Describe what you want in plain
language and the agent will walk you through it, asking for confirmation
before submitting anything.

  > swap 1.5 SOL for USDC
  > launch a token called Moonbeam with symbol MOON and buy 0.5 SOL of it

Prefix a message with "launch" to create a token; everything else is
treated as a swap request. Type "exit" to quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&callerID, "caller", "local", "Caller identity checked against admin_ids")
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := buildAgent()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	color.Cyan("Wallet: %s", a.wallet)
	color.Cyan("Type your request, or \"exit\" to quit.")

	var convo intent.Conversation
	// While a confirmation is pending, follow-up replies stay on the same
	// action, so a bare "yes" confirms the right transaction.
	var pendingAction pipeline.Action
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			break
		}

		convo = append(convo, intent.Turn{Role: intent.RoleUser, Text: text})

		action := pipeline.ActionSwap
		if strings.HasPrefix(strings.ToLower(text), "launch") {
			action = pipeline.ActionCreateAndBuy
		}
		if pendingAction != "" {
			action = pendingAction
		}

		resp, err := a.pipeline.Handle(cmd.Context(), pipeline.Request{
			CallerID:     callerID,
			Action:       action,
			Conversation: convo,
		})
		if err != nil && resp == nil {
			printError(err)
			continue
		}

		switch {
		case resp.Success:
			color.Green(resp.Message)
		case resp.Pending:
			color.Yellow(resp.Message)
		default:
			color.Red(resp.Message)
		}
		if resp.Pending {
			pendingAction = action
		} else {
			pendingAction = ""
		}
		convo = append(convo, intent.Turn{Role: intent.RoleAgent, Text: resp.Message})
	}
	return scanner.Err()
}
