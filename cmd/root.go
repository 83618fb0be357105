// Package cmd implements the command-line interface for mpvhost.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teamg-play/mpvhost/color"
	"github.com/teamg-play/mpvhost/constant"
	"github.com/teamg-play/mpvhost/icon"
	"github.com/teamg-play/mpvhost/key"
	"github.com/teamg-play/mpvhost/log"
	"github.com/teamg-play/mpvhost/style"
	"github.com/teamg-play/mpvhost/util"
	"github.com/teamg-play/mpvhost/version"
	"github.com/teamg-play/mpvhost/where"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, square)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().String("player", "", "Path to the external player binary to supervise")
	lo.Must0(viper.BindPFlag(key.PlayerBinary, rootCmd.PersistentFlags().Lookup("player")))

	rootCmd.PersistentFlags().BoolP("resume", "R", true, "Persist playback positions and resume media where it was left")
	lo.Must0(viper.BindPFlag(key.HistoryResume, rootCmd.PersistentFlags().Lookup("resume")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Initialize cleanup of localized temporary files on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the mpvhost application.
var rootCmd = &cobra.Command{
	Use:   constant.Mpvhost,
	Short: "An out-of-process media player controller for embedded desktop playback",
	Long: style.New().Bold(true).Foreground(color.HiPurple).Render("▇▇▇ "+constant.Mpvhost) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - launches, supervises and remote-controls an external mpv process"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		lo.Must0(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
