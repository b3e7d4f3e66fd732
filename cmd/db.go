package cmd

import (
	"fmt"

	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/internal/dto"
	"github.com/haierkeys/course-sync/pkg/code"

	"github.com/spf13/cobra"
)

type dbFlags struct {
	pending bool    // Only changes not yet notified // 只列出未通知的变化
	delete  bool    // Remove offline records // 删除离线记录
	fileIDs []int64 // Records to remove // 要删除的记录
}

func init() {
	dbEnv := new(dbFlags)

	var dbCommand = &cobra.Command{
		Use:   "db",
		Short: "Inspect and maintain the state database",
	}

	var listCommand = &cobra.Command{
		Use:   "list [--pending]",
		Short: "Print stored files as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer shutdownApp(a)

			var courses []*domain.Course
			if dbEnv.pending {
				courses, err = a.StateService.ChangesToNotify(cmd.Context())
			} else {
				courses, err = a.StateService.GetStoredFiles(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printCourses(courses)
		},
	}

	var offlineCommand = &cobra.Command{
		Use:   "offline [--delete]",
		Short: "List files whose saved copy is missing on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer shutdownApp(a)

			if dbEnv.delete {
				n, err := a.DatabaseService.DeleteOfflineFiles(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("%d offline records removed, they will be downloaded again on the next sync\n", n)
				return nil
			}

			offline, err := a.DatabaseService.OfflineFiles(cmd.Context())
			if err != nil {
				return err
			}
			return printCourses(offline)
		},
	}

	var deleteCommand = &cobra.Command{
		Use:   "delete --file-id id[,id...]",
		Short: "Remove records so the files are treated as new on the next sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(dbEnv.fileIDs) == 0 {
				return code.ErrorInvalidParams.WithDetails("--file-id is required")
			}

			a, err := bootApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer shutdownApp(a)

			n, err := a.DatabaseService.DeleteFiles(cmd.Context(), dbEnv.fileIDs)
			if err != nil {
				return err
			}
			if n == 0 {
				return code.ErrorFileNotFound.WithDetails(fmt.Sprint(dbEnv.fileIDs))
			}
			fmt.Printf("%d records removed\n", n)
			return nil
		},
	}

	rootCmd.AddCommand(dbCommand)
	dbCommand.AddCommand(listCommand, offlineCommand, deleteCommand)
	listCommand.Flags().BoolVar(&dbEnv.pending, "pending", false, "only changes that have not been notified")
	offlineCommand.Flags().BoolVar(&dbEnv.delete, "delete", false, "remove the offline records")
	deleteCommand.Flags().Int64SliceVar(&dbEnv.fileIDs, "file-id", nil, "file ids to remove")
}

func printCourses(courses []*domain.Course) error {
	data, err := dto.MarshalCourses(courses)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
