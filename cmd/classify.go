package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TFMV/ctxgen/internal/classify"
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <path>...",
	Short: "Show how files would be treated by a snapshot",
	Long: `Print the classification of each file: normal, binary, too large or
path too long. Path length is measured relative to --dir.

Examples:
  ctxgen classify main.go assets/logo.png
  ctxgen classify -d ~/src/project ~/src/project/README.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(viper.GetString("dir"))
		if err != nil {
			return err
		}
		logger := newLogger()
		defer logger.Sync()

		c := classify.New(logger)
		for _, path := range args {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				rel = path
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, c.Classify(abs, rel))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
