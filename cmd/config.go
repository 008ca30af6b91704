package cmd

import (
	"fmt"

	"github.com/itsmostafa/doc2html/internal/config"
	"github.com/spf13/cobra"
)

var initPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file and DOC2HTML_
environment variables are applied. With --init, write the defaults to a file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if initPath != "" {
			if err := config.WriteDefault(initPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", initPath)
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := cfg.YAML()
		if err != nil {
			return err
		}

		source := cfgFile
		if source == "" {
			source = config.File()
		}
		if source == "" {
			source = "defaults"
		}
		fmt.Fprintf(out, "# source: %s\n", source)
		_, err = out.Write(data)
		return err
	},
}

func init() {
	configCmd.Flags().StringVar(&initPath, "init", "", "Write the default configuration to this path")

	rootCmd.AddCommand(configCmd)
}
