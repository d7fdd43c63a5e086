// Command accounts is the Lambda entry point for the accounts domain.
package main

import (
	"github.com/alfredjeanlab/tablefn/internal/bootstrap"
	"github.com/alfredjeanlab/tablefn/internal/handlers"
)

func main() {
	bootstrap.RunLambda(handlers.DomainAccounts)
}
