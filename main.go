package main

import (
	"os"

	"github.com/grijalva10/insurance-policy-migration/cmd/migrate"
	"github.com/grijalva10/insurance-policy-migration/cmd/root"
	"github.com/grijalva10/insurance-policy-migration/cmd/unmapped"
)

func init() {
	root.Init()
	root.Cmd.AddCommand(migrate.Cmd)
	root.Cmd.AddCommand(unmapped.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		root.Log.Error(err)
		os.Exit(1)
	}
}
