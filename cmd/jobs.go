package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"bookgenre/internal/clix"
	"bookgenre/internal/models"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect background classification jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded background jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		page, err := clix.ParsePagination(cmd.Flags())
		if err != nil {
			return err
		}

		jobs, err := appInstance.JobStore.ListJobs(cmd.Context(), page.Limit, page.Offset)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		if len(jobs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No jobs found.")
			return nil
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Job ID", "Status", "Task Type", "Queue", "Book ID", "Updated At", "Last Error"})
		table.SetBorder(true)
		table.SetRowLine(true)
		for _, job := range jobs {
			table.Append([]string{
				job.JobID,
				jobStatusString(job.Status),
				job.TaskType,
				job.Queue,
				job.BookID,
				job.UpdatedAt.Format(time.RFC3339),
				job.LastError,
			})
		}
		table.Render()
		return nil
	},
}

func jobStatusString(status string) string {
	switch status {
	case models.JobStatusCompleted:
		return color.GreenString(status)
	case models.JobStatusFailed:
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)

	jobsListCmd.Flags().IntP("limit", "l", 20, "Number of jobs to display")
	jobsListCmd.Flags().IntP("offset", "o", 0, "Number of jobs to skip")
}
