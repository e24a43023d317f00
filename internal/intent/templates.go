// internal/intent/templates.go
package intent

import "fmt"

const swapTemplate = `Example response:
` + "```json" + `
{
    "inputTokenSymbol": "SOL",
    "outputTokenSymbol": "USDC",
    "inputTokenCA": "So11111111111111111111111111111111111111112",
    "outputTokenCA": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
    "amount": 1.5
}
` + "```" + `

%s

Given the recent messages above, extract the following information about the
requested token swap:
- Input token symbol (the token being sold)
- Output token symbol (the token being bought)
- Input token contract address if provided
- Output token contract address if provided
- Amount to swap

Ensure you only extract the current swap request from the user, and avoid
extracting any historical swap messages.

The token contract address (aka CA) is a 43-44 character base58 string, for
example: [EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v], [7Xu2oddJ3DMQ1UdgoC8ewK6Kq73kcXUcYCcnfzxqpump]

Respond with a JSON markdown block containing only the extracted values. Use
null for any values that cannot be determined. The result must be a valid
JSON object with the following schema:
` + "```json" + `
{
    "inputTokenSymbol": string | null,
    "outputTokenSymbol": string | null,
    "inputTokenCA": string | null,
    "outputTokenCA": string | null,
    "amount": number | string
}
` + "```"

const confirmTemplate = `%s

Determine the user's response status regarding the swap confirmation.
Consider only the last three messages from the conversation history above.
Respond with a JSON:
` + "```json" + `
{
    "userAcked": "confirmed" | "rejected" | "pending"
}
` + "```" + `

Decision criteria:
"confirmed" - The user has explicitly confirmed the swap using words like "yes", "confirm", "okay", "sure".
"rejected" - The user has responded with anything other than a confirmation after the confirmation prompt.
"pending" - The user has provided a complete swap request, but User2 has not yet sent the confirmation prompt.

Examples that must return "confirmed":
- User2: "Swap 0.0001 SOL for USDC. Please confirm by replying with 'yes' or 'confirm'."
  User1: "yes"
- User2: "Swap 0.1 SOL for ELIZA. Please confirm."
  User1: "okay"

Examples that must return "rejected":
- User2: "Swap 0.0001 SOL for USDC. Please confirm by replying with 'yes' or 'confirm'."
  User1: "no"
- User1: "buy 0.1 SOL ELIZA"
  User2: "Swap 0.1 SOL for ELIZA. Please confirm by replying with 'yes' or 'confirm'."
  User1: "cancel"

Examples that must return "pending":
- User1: "swap 0.0001 SOL for USDC"
- User1: "buy 0.1 SOL ELIZA"

Return the JSON object with the userAcked field set based on the immediate
response following the confirmation request.`

const launchTemplate = `Respond with a JSON markdown block containing only the
extracted values. Use null for any values that cannot be determined.

Example response:
` + "```json" + `
{
    "name": "GLITCHIZA",
    "symbol": "GLITCHIZA",
    "description": "A test token",
    "twitter": "https://x.com/elonmusk",
    "website": "https://x.com",
    "telegram": "https://t.me/+El39K_BrnIVhOWM1",
    "buyAmountSol": "0.00069"
}
` + "```" + `

%s

Given the recent messages, extract or generate (come up with if not included)
the following information about the requested token creation:
- Token name
- Token symbol
- Token description
- Twitter URL
- Website URL
- Telegram URL
- Amount of SOL to buy

Twitter URL, Website URL and Telegram URL are optional; if not provided they
will be empty. Amount of SOL to buy is optional; if not provided it will be 0.`

// BuildSwapPrompt renders the swap extraction prompt over the conversation.
func BuildSwapPrompt(convo Conversation) string {
	return fmt.Sprintf(swapTemplate, convo.Transcript())
}

// BuildConfirmPrompt renders the confirmation classification prompt over the
// bounded lookback window.
func BuildConfirmPrompt(convo Conversation) string {
	return fmt.Sprintf(confirmTemplate, convo.Window(confirmLookbackTurns).Transcript())
}

// BuildLaunchPrompt renders the token creation extraction prompt.
func BuildLaunchPrompt(convo Conversation) string {
	return fmt.Sprintf(launchTemplate, convo.Transcript())
}
