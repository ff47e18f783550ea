package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/law-makers/harvest/internal/ui"
)

// helpFunc prints the full colored help of cmd to stdout
func helpFunc(cmd *cobra.Command, _ []string) {
	renderHelp(cmd.OutOrStdout(), cmd, true)
}

// usageFunc prints the short form shown after a usage error
func usageFunc(cmd *cobra.Command) error {
	renderHelp(cmd.ErrOrStderr(), cmd, false)
	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", ui.ColorBold+ui.ColorWhite+title+ui.ColorReset)
}

func renderHelp(w io.Writer, cmd *cobra.Command, full bool) {
	if full {
		fmt.Fprintf(w, "\n%s\n", ui.ColorBold+ui.ColorCyan+strings.ToUpper(cmd.Name())+ui.ColorReset)
		if cmd.Long != "" {
			fmt.Fprintf(w, "%s\n", strings.TrimSpace(cmd.Long))
		} else if cmd.Short != "" {
			fmt.Fprintf(w, "%s\n", cmd.Short)
		}
	}

	section(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", ui.ColorCyan+cmd.UseLine()+ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s %s\n", ui.ColorCyan+cmd.CommandPath()+ui.ColorReset, ui.ColorYellow+"<command>"+ui.ColorReset)
	}

	if full && cmd.HasExample() {
		section(w, "Examples")
		for _, line := range strings.Split(cmd.Example, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case line == "":
				fmt.Fprintln(w)
			case strings.HasPrefix(line, "#"):
				fmt.Fprintf(w, "  %s\n", ui.ColorDim+line+ui.ColorReset)
			default:
				fmt.Fprintf(w, "  %s\n", ui.ColorGreen+"$ "+line+ui.ColorReset)
			}
		}
	}

	var rows [][2]string
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			rows = append(rows, [2]string{c.Name(), c.Short})
		}
	}
	if len(rows) > 0 {
		section(w, "Commands")
		printRows(w, rows, ui.ColorCyan)
	}

	if cmd.HasAvailableLocalFlags() {
		section(w, "Flags")
		printRows(w, flagRows(cmd.LocalFlags()), ui.ColorGreen)
	}
	if full && cmd.HasAvailableInheritedFlags() {
		section(w, "Global Flags")
		printRows(w, flagRows(cmd.InheritedFlags()), ui.ColorGreen)
	}

	fmt.Fprintf(w, "\n%s\n\n", ui.ColorDim+fmt.Sprintf("Use %q for more information.", cmd.CommandPath()+" --help")+ui.ColorReset)
}

// flagRows renders each visible flag as "-s, --name type" plus its usage
func flagRows(fs *pflag.FlagSet) [][2]string {
	var rows [][2]string
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := "    --" + f.Name
		if f.Shorthand != "" {
			name = "-" + f.Shorthand + ", --" + f.Name
		}
		varname, usage := pflag.UnquoteUsage(f)
		if varname != "" {
			name += " " + varname
		}
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "[]" {
			usage += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		rows = append(rows, [2]string{name, usage})
	})
	return rows
}

func printRows(w io.Writer, rows [][2]string, color string) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %s%s  %s\n",
			color+r[0]+ui.ColorReset,
			strings.Repeat(" ", width-len(r[0])),
			ui.ColorDim+r[1]+ui.ColorReset)
	}
}
