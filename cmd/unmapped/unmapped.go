// Package unmapped implements the command that inspects the unmapped-value
// ledger left behind by previous runs.
package unmapped

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grijalva10/insurance-policy-migration/cmd/root"
	"github.com/grijalva10/insurance-policy-migration/internal/refdata"
)

// Cmd is the unmapped command
var Cmd = &cobra.Command{
	Use:   "unmapped",
	Short: "Show the values that failed reference resolution in past runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(root.Cfg.Data.MappingsDir, refdata.UnmatchedValuesFile)

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				root.Log.Info("No unmapped values recorded yet")
				return nil
			}
			return fmt.Errorf("error reading %s: %w", path, err)
		}

		var ledger refdata.Ledger
		if err := json.Unmarshal(data, &ledger); err != nil {
			return fmt.Errorf("error parsing %s: %w", path, err)
		}

		printKind(cmd, "Carriers", ledger.Carriers)
		printKind(cmd, "Policy types", ledger.PolicyTypes)
		printKind(cmd, "Brokers", ledger.Brokers)
		return nil
	},
}

func printKind(cmd *cobra.Command, label string, values []string) {
	cmd.Printf("%s (%d):\n", label, len(values))
	for _, v := range values {
		cmd.Printf("  %s\n", v)
	}
}
