package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clubs",
	Short: "Community clubs backend",
	Long:  `Backend for the community clubs app: registration, login, account verification, password reset and profile management over HTTP, plus an internal token service over gRPC.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
