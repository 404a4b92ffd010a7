package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var guidesFlag string

	ctx := newCommandContext(&configFlag, &guidesFlag)

	rootCmd := &cobra.Command{
		Use:           "songlex",
		Short:         "Corpus analysis of field guide song descriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Analysis file (songlex.yaml)")
	rootCmd.PersistentFlags().StringVar(&guidesFlag, "guides", "", "Guide directory, overrides the analysis file")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newDescribeCommand(ctx))
	rootCmd.AddCommand(newSizesCommand(ctx))
	rootCmd.AddCommand(newCrossRefCommand(ctx))
	rootCmd.AddCommand(newLSACommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))

	return rootCmd
}
