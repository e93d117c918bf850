package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewControlCmds создаёт команды управления кластером:
// status, run, pause, unpause, stop, reset.
func NewControlCmds(clientFn func() *Client, outputFn func() *Output) []*cobra.Command {
	cmds := []*cobra.Command{newStatusCmd(clientFn, outputFn)}

	for _, c := range []struct {
		name  string
		short string
	}{
		{"run", "Start handing out assemblies"},
		{"pause", "Pause all workers"},
		{"unpause", "Leave pause (cluster becomes stopped)"},
		{"stop", "Stop the cluster and drop the active solver"},
	} {
		cmds = append(cmds, newCommandCmd(c.name, c.short, clientFn, outputFn))
	}

	return append(cmds, newResetCmd(clientFn, outputFn))
}

func newStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cluster status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFn().Console()
			if err != nil {
				return err
			}
			printSummary(outputFn(), view)
			return nil
		},
	}
}

func newCommandCmd(name, short string, clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			view, err := clientFn().Command(name)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Cluster is %s", view.Status))
			printSummary(out, view)
			return nil
		},
	}
}

func newResetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string
	var name string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Load a solver and start a new search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (name == "") {
				return errors.New("exactly one of --file or --name is required")
			}

			var text string
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read solver: %w", err)
				}
				text = string(data)
			}

			out := outputFn()
			view, err := clientFn().Reset(text, name)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Search %s loaded: %d assemblies", view.SearchID, view.Total))
			printSummary(out, view)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a solver file")
	cmd.Flags().StringVar(&name, "name", "", "Solver name from the coordinator catalog")

	return cmd
}

// NewWorkersCmd создаёт команду вывода таблицы workers.
func NewWorkersCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "List workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFn().Console()
			if err != nil {
				return err
			}

			headers := []string{"WORKER_ID", "CORES", "STATUS", "COMPLETED", "PROGRAMS", "RUN_RATE"}
			rows := make([][]string, len(view.Workers))
			for i, w := range view.Workers {
				rows[i] = []string{
					w.WorkerID,
					strconv.Itoa(w.Cores),
					w.Status,
					strconv.Itoa(w.AssembliesCompleted),
					strconv.FormatInt(w.ProgramsRun, 10),
					formatRate(w.RunRate),
				}
			}

			outputFn().Print(headers, rows, view.Workers)
			return nil
		},
	}
}

// NewSolutionsCmd создаёт команду вывода решений текущего поиска.
func NewSolutionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "solutions",
		Short: "List solutions found in the current search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFn().Console()
			if err != nil {
				return err
			}

			headers := []string{"#", "SOLUTION"}
			rows := make([][]string, len(view.Solutions))
			for i, s := range view.Solutions {
				rows[i] = []string{strconv.Itoa(i + 1), string(s)}
			}

			outputFn().Print(headers, rows, view.Solutions)
			return nil
		},
	}
}

// NewSolversCmd создаёт команду вывода каталога solver.
func NewSolversCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "solvers",
		Short: "List solver files known to the coordinator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := clientFn().Solvers()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "ASSEMBLIES", "FIRST_LINE"}
			rows := make([][]string, len(list))
			for i, s := range list {
				first, _, _ := strings.Cut(strings.TrimSpace(s.Text), "\n")
				total := strconv.FormatInt(s.Total, 10)
				if s.Error != "" {
					total, first = "invalid", s.Error
				}
				rows[i] = []string{s.Name, total, first}
			}

			outputFn().Print(headers, rows, list)
			return nil
		},
	}
}

// --- Helpers ---

func printSummary(out *Output, view *ConsoleResponse) {
	searchID := view.SearchID
	if searchID == "" {
		searchID = "-"
	}

	active := 0
	for _, w := range view.Workers {
		if w.Status == "active" {
			active++
		}
	}

	out.PrintFields([]Field{
		{"Status", view.Status},
		{"Search", searchID},
		{"Assemblies", fmt.Sprintf("%d unsolved of %d", len(view.Unsolved), view.Total)},
		{"Programs run", strconv.FormatInt(view.ProgramsRun, 10)},
		{"Solutions", strconv.Itoa(len(view.Solutions))},
		{"Workers", fmt.Sprintf("%d active of %d", active, len(view.Workers))},
	}, view)
}

func formatRate(rate *int64) string {
	if rate == nil {
		return "-"
	}
	return strconv.FormatInt(*rate, 10) + "/s"
}
