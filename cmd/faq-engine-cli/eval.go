package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/campusbot/faq-engine/internal/matching"
)

var evalSession string

var evalCmd = &cobra.Command{
	Use:   "eval [query...]",
	Short: "Run one or more queries through the matching engine",
	Long: `Evaluates queries against the configured database exactly as the HTTP
endpoint would, printing the ranked answers and fallback contacts.

Multiple queries share one session, so negation state carries across them:

  faq-engine-cli eval "ทุน" "ไม่เอาทุน" "ทุน"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		session := evalSession
		if session == "" {
			session = "cli-" + uuid.NewString()
		}

		for i, query := range args {
			if i > 0 {
				fmt.Println()
			}
			infof("query: %s", query)

			resp, err := engine.Respond(cmd.Context(), matching.Request{
				SessionID: session,
				Message:   query,
			})
			if err != nil {
				errorf("query failed: %v", err)
				continue
			}
			printResponse(resp)
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVarP(&evalSession, "session", "s", "", "session id (default: random per invocation)")
}

func printResponse(resp *matching.Response) {
	if !resp.Found {
		color.New(color.FgYellow).Printf("  %s\n", strings.ReplaceAll(resp.Message, "\n", " "))
		for _, c := range resp.Contacts {
			line := c.Organization
			if c.Officer != "" {
				line = fmt.Sprintf("%s (%s, %s)", c.Organization, c.Officer, c.Phone)
			}
			fmt.Printf("    contact: %s\n", line)
		}
		return
	}

	successf("%s", strings.ReplaceAll(resp.Message, "\n", " "))
	for _, alt := range resp.Alternatives {
		fmt.Printf("  [%d] %.2f  %s\n", alt.ID, alt.Score, alt.Title)
		if alt.Preview != "" {
			fmt.Printf("      %s\n", strings.ReplaceAll(alt.Preview, "\n", " "))
		}
		if len(alt.Keywords) > 0 {
			fmt.Printf("      keywords: %s\n", strings.Join(alt.Keywords, ", "))
		}
	}
	for _, c := range resp.Contacts {
		fmt.Printf("  contact: %s / %s: %s\n", c.Organization, c.Category, c.Contact)
	}
}
