package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var artifactsForce bool

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Manage the model bundle",
}

var artifactsPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download and unpack the model bundle from the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if appInstance.Archive == nil {
			return errors.New(`model.source is not "archive"; nothing to pull`)
		}
		if err := appInstance.Archive.Fetch(cmd.Context(), artifactsForce); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Model bundle is ready.")
		return nil
	},
}

var artifactsInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Load the model artifacts and print their metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		a, err := appInstance.Artifacts.Load(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"model":      a.Info.Name,
			"num_labels": a.Info.NumLabels,
			"classes":    a.Labels.Classes(),
			"tokenizer":  a.Tokenizer,
			"consistent": a.Consistent(),
		})
	},
}

func init() {
	rootCmd.AddCommand(artifactsCmd)
	artifactsCmd.AddCommand(artifactsPullCmd, artifactsInfoCmd)
	artifactsPullCmd.Flags().BoolVar(&artifactsForce, "force", false, "Download again even if the bundle is already unpacked")
}
