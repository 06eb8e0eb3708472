// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "go-sso-gate",
	Short: "go-sso-gate bridges a web application to a remote SSO identity service",
	Long: `go-sso-gate sits in front of a web application and validates the SSO
token of every request against a remote identity service, materializing an
authenticated principal with group-derived authorities for requests that
carry a live session.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
