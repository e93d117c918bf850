package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewHistoryCmd создаёт группу команд для архива поисков.
func NewHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived searches",
	}

	cmd.AddCommand(
		newHistoryListCmd(clientFn, outputFn),
		newHistoryShowCmd(clientFn, outputFn),
		newHistorySolutionsCmd(clientFn, outputFn),
	)

	return cmd
}

func newHistoryListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var page PageOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			searches, err := clientFn().ListSearches(page)
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATUS", "TOTAL", "DEPTH", "PROGRAMS", "STARTED", "EXHAUSTED"}
			rows := make([][]string, len(searches))
			for i, s := range searches {
				rows[i] = searchRow(s)
			}

			outputFn().Print(headers, rows, searches)
			return nil
		},
	}

	cmd.Flags().IntVar(&page.Limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newHistoryShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show SEARCH_ID",
		Short: "Show an archived search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := clientFn().GetSearch(args[0])
			if err != nil {
				return err
			}

			exhausted := s.ExhaustedAt
			if exhausted == "" {
				exhausted = "-"
			}
			fields := []Field{
				{"ID", s.ID},
				{"Status", s.Status},
				{"Assemblies", strconv.FormatInt(s.Total, 10)},
				{"Depth", strconv.Itoa(s.Depth)},
				{"Completed", strconv.FormatInt(s.Completed, 10)},
				{"Programs run", strconv.FormatInt(s.ProgramsRun, 10)},
				{"Started", s.StartedAt},
				{"Exhausted", exhausted},
			}
			if snap := s.LatestSnapshot; snap != nil {
				fields = append(fields,
					Field{"Last snapshot", snap.TakenAt},
					Field{"Unsolved", strconv.Itoa(snap.Unsolved)},
					Field{"Run rate", strconv.FormatInt(snap.RunRate, 10) + "/s"},
				)
			}

			outputFn().PrintFields(fields, s)
			return nil
		},
	}
}

func newHistorySolutionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var page PageOpts

	cmd := &cobra.Command{
		Use:   "solutions SEARCH_ID",
		Short: "List solutions archived for a search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			solutions, err := clientFn().ListArchivedSolutions(args[0], page)
			if err != nil {
				return err
			}

			headers := []string{"WORKER_ID", "ASSEMBLY", "FOUND", "SOLUTION"}
			rows := make([][]string, len(solutions))
			for i, s := range solutions {
				rows[i] = []string{s.WorkerID, strconv.FormatInt(s.Assembly, 10), s.FoundAt, string(s.Payload)}
			}

			outputFn().Print(headers, rows, solutions)
			return nil
		},
	}

	cmd.Flags().IntVar(&page.Limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "Number of results to skip")

	return cmd
}

func searchRow(s SearchResponse) []string {
	exhausted := s.ExhaustedAt
	if exhausted == "" {
		exhausted = "-"
	}
	return []string{
		s.ID,
		s.Status,
		strconv.FormatInt(s.Total, 10),
		strconv.Itoa(s.Depth),
		strconv.FormatInt(s.ProgramsRun, 10),
		s.StartedAt,
		exhausted,
	}
}
