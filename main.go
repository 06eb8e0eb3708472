// Package main provides the entry point for the go-sso-gate service. It
// starts a web server fronted by an SSO gate that validates every request's
// session token against a remote identity service and attaches the resolved
// principal, with group-derived authorities, to the request.
package main

import (
	"os"

	"github.com/GoSSOGate/GoSSOGate/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
