package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/versemill/version"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{skipServices: ""},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("versemill %s\n", version.GitRelease)
		fmt.Printf("  Go:     %s\n", version.GoInfo)
		fmt.Printf("  Commit: %s\n", version.GitCommit)
		fmt.Printf("  Date:   %s\n", version.GitCommitDate)
	},
}
