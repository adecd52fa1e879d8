package commands

import (
	"github.com/spf13/cobra"

	"github.com/esaudit/esaudit/pkg/engine"
	_ "github.com/esaudit/esaudit/pkg/modules/probes" // Register probe modules
	"github.com/esaudit/esaudit/pkg/output"
)

// NewModulesCommand constructs the 'modules' command listing the registered
// probe modules.
func NewModulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List available probe modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			console := output.NewConsole(cmd.OutOrStdout(), true, isTerminal())

			rows := make([][]string, 0)
			for _, name := range engine.RegisteredModuleNames() {
				module, err := engine.GetModuleInstance(name, nil)
				if err != nil {
					return err
				}
				meta := module.Metadata()
				rows = append(rows, []string{meta.Name, string(meta.Type), meta.Description})
			}

			console.Table(0, []string{"name", "type", "description"}, rows)
			return nil
		},
	}
}
