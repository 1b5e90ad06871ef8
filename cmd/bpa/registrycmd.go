package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bpa/internal/registry"
)

var (
	registryFormat string
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and validate the rule registry",
}

var registryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the loaded validation matrix",
	Run:   runRegistryShow,
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate [artifact]",
	Short: "Validate a registry artifact file",
	Long: `Validates a registry YAML artifact: version present, unique criterion
ids, rigor levels in range and non-empty keyword lists. Without an argument
the workspace registry (or the embedded default) is checked.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRegistryValidate,
}

func init() {
	registryShowCmd.Flags().StringVar(&registryFormat, "format", "human", "Output format (json, human)")
	registryCmd.AddCommand(registryShowCmd)
	registryCmd.AddCommand(registryValidateCmd)
	rootCmd.AddCommand(registryCmd)
}

func runRegistryShow(cmd *cobra.Command, args []string) {
	root := mustGetWorkspaceRoot()
	_, reg, err := loadWorkspace(root)
	if err != nil {
		fail(err)
	}

	output, err := FormatResponse(&RegistryResponseCLI{
		Version:       reg.Version,
		TotalCriteria: reg.TotalCriteria(),
		Chapters:      reg.GetChapters(),
	}, OutputFormat(registryFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}

func runRegistryValidate(cmd *cobra.Command, args []string) {
	var reg *registry.Registry
	var err error

	if len(args) == 1 {
		reg, err = registry.Load(args[0])
	} else {
		_, reg, err = loadWorkspace(mustGetWorkspaceRoot())
	}
	if err != nil {
		fail(err)
	}

	fmt.Printf("Registry %s is valid: %d chapters, %d criteria.\n",
		reg.Version, len(reg.GetChapters()), reg.TotalCriteria())
}
