package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workgate",
	Short: "Workgate - authenticated gateway for workplace search",
	Long: `Workgate is an authenticated MCP gateway that searches workplace data
sources (Google Drive, Notion) on behalf of verified callers, merges the
results, and ranks them. Access is controlled per source through token
scopes, and every tool call is audited.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(statsCmd)
}
