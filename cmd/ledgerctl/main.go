// Command ledgerctl runs operator tasks against the billing ledger:
// reconciliation of paid installments and cash flow exports.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	p := newLedgerProvider()
	err := newRootCmd(p).Execute()
	p.Close(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
