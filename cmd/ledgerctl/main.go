// Command ledgerctl is an operator CLI for the ledger. It runs the same
// application services as the HTTP server, either against the configured
// PostgreSQL database or against a local SQLite file (--sqlite).
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/erp/ledger/internal/domain/shared"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			fmt.Fprintf(os.Stderr, "Error: %s: %s\n", domainErr.Code, domainErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
