package cmd

import (
	"os"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/teamg-play/mpvhost/color"
	"github.com/teamg-play/mpvhost/history"
	"github.com/teamg-play/mpvhost/icon"
	"github.com/teamg-play/mpvhost/style"
	"github.com/teamg-play/mpvhost/util"
	"github.com/teamg-play/mpvhost/where"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)

	historyCmd.SetOut(os.Stdout)
	historyListCmd.SetOut(os.Stdout)
	historyClearCmd.SetOut(os.Stdout)
}

// historyCmd groups operations on the resume position registry.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved resume positions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved resume positions",
	Run: func(cmd *cobra.Command, args []string) {
		saved, err := history.Get()
		handleErr(err)

		if len(saved) == 0 {
			cmd.Printf("%s No saved positions\n", icon.Get(icon.Question))
			return
		}

		urls := lo.Keys(saved)
		sort.Strings(urls)

		cmd.Printf("%s\n", style.Bold(util.Quantify(len(urls), "saved position", "saved positions")))
		for _, url := range urls {
			record := saved[url]
			cmd.Printf("%s %s %s\n", icon.Get(icon.Play), style.Fg(color.Cyan)(formatPosition(record.Seconds)), url)
		}
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear [url]",
	Short: "Remove the saved position for one URL, or all of them",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			handleErr(history.Remove(args[0]))
			cmd.Printf("%s Position cleared\n", icon.Get(icon.Success))
			return
		}

		_ = util.Delete(where.Positions())
		cmd.Printf("%s History cleared\n", icon.Get(icon.Success))
	},
}
