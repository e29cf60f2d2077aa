// Package main is the shipquote command line client. It prices shipments
// locally with the same engine as the HTTP service.
//
// Usage:
//
//	shipquote quote --weight 2.5 --dims 30x20x15 --from 10001 --to 90210 --service express
//	shipquote compare --file shipment.yaml --output text
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
