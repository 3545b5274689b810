package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fgeck/dbbackup/internal/config"
)

const (
	helpDescWidth = 50
	helpGutter    = 2
)

func writeSettingsHelp(w io.Writer) {
	docs := config.SettingDocs()

	nameCol := 0
	for _, d := range docs {
		nameCol = max(nameCol, len(d.Key))
	}
	nameCol += helpGutter
	indent := strings.Repeat(" ", nameCol)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Create a configuration file in the ini format, where each section represents a single database backup to perform. A [Global] section can be created to set settings that will be applied to all individual backups.")
	fmt.Fprintln(w, "Example: dbbackup.conf")
	fmt.Fprintln(w, "[Global]")
	fmt.Fprintln(w, "backuppath = /path/to/backupdir")
	fmt.Fprintln(w, "keepdaily = 7")
	fmt.Fprintln(w, "[MyDatabase]")
	fmt.Fprintln(w, "database = dbname")
	fmt.Fprintln(w, "username = username")
	fmt.Fprintln(w, "password = secret")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Any setting can be accessed by using dollar sign variables, e.g. $username. Possible values are:")

	for _, d := range docs {
		lines := wrapWords(d.Description, helpDescWidth)
		fmt.Fprintf(w, "%-*s%s\n", nameCol, d.Key, strings.Join(lines, "\n"+indent))
		def := d.Default
		if def == "" {
			def = "None"
		}
		fmt.Fprintf(w, "%sDefault: %s\n", indent, def)
	}
}

// wrapWords breaks s into lines of at most width characters. Words longer
// than width get a line of their own.
func wrapWords(s string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(s) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
