package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/revscrape/internal/ui"
)

// customHelpFunc provides a colorized help output
func customHelpFunc(cmd *cobra.Command, args []string) {
	w := os.Stdout
	fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name()), ui.ColorReset)
	if cmd.Short != "" {
		fmt.Fprintln(w, cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", cmd.Long)
	}

	writeUsage(w, cmd)

	if cmd.HasExample() {
		section(w, "Examples")
		for _, line := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
				fmt.Fprintln(w)
			case strings.HasPrefix(trimmed, "#"):
				fmt.Fprintf(w, "  %s%s%s\n", ui.ColorDim, trimmed, ui.ColorReset)
			default:
				fmt.Fprintf(w, "  %s$ %s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			}
		}
	}

	writeCommands(w, cmd)

	if cmd.HasAvailableLocalFlags() {
		section(w, "Flags")
		printFlagsTo(w, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		section(w, "Global Flags")
		printFlagsTo(w, cmd.InheritedFlags().FlagUsages())
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n%sUse \"%s <command> --help\" for more information about a command.%s\n",
			ui.ColorDim, cmd.CommandPath(), ui.ColorReset)
	}
	fmt.Fprintln(w)
}

// customUsageFunc provides a colorized usage output
func customUsageFunc(cmd *cobra.Command) error {
	w := os.Stderr
	writeUsage(w, cmd)
	writeCommands(w, cmd)
	if cmd.HasAvailableLocalFlags() {
		section(w, "Flags")
		printFlagsTo(w, cmd.LocalFlags().FlagUsages())
	}
	fmt.Fprintf(w, "\n%sUse \"%s --help\" for more information.%s\n", ui.ColorDim, cmd.CommandPath(), ui.ColorReset)
	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorWhite, title, ui.ColorReset)
}

func writeUsage(w io.Writer, cmd *cobra.Command) {
	section(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s%s%s\n", ui.ColorCyan, cmd.UseLine(), ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s%s%s %s<command>%s %s[flags]%s\n",
			ui.ColorCyan, cmd.CommandPath(), ui.ColorReset,
			ui.ColorYellow, ui.ColorReset,
			ui.ColorDim, ui.ColorReset)
	}
}

func writeCommands(w io.Writer, cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	section(w, "Commands")

	var available []*cobra.Command
	maxLen := 0
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			available = append(available, c)
			maxLen = max(maxLen, len(c.Name()))
		}
	}
	for _, c := range available {
		padding := strings.Repeat(" ", maxLen-len(c.Name())+2)
		fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
			ui.ColorCyan, c.Name(), ui.ColorReset,
			padding,
			ui.ColorDim, c.Short, ui.ColorReset)
	}
}

// printFlagsTo prints flag usages with the flag names highlighted
func printFlagsTo(w io.Writer, flagUsages string) {
	for _, line := range strings.Split(flagUsages, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, " ")
		flagPart, descPart, found := strings.Cut(trimmed, "   ")
		if !strings.HasPrefix(trimmed, "-") || !found {
			fmt.Fprintf(w, "  %s%s%s\n", ui.ColorDim, trimmed, ui.ColorReset)
			continue
		}
		fmt.Fprintf(w, "  %s%-32s%s %s%s%s\n",
			ui.ColorGreen, strings.TrimSpace(flagPart), ui.ColorReset,
			ui.ColorDim, strings.TrimSpace(descPart), ui.ColorReset)
	}
}
