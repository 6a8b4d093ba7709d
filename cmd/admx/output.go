package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/session"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printDependencyTable writes deps numbered from 1, as the shell shows them.
func printDependencyTable(w io.Writer, deps []model.Dependency) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFROM\tTO\tTEMPORAL\tT-DIR\tEXISTENTIAL\tE-DIR")
	for i, d := range deps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, d.From, d.To,
			withSymbol(string(d.Temporal), model.TemporalSymbol(d.Temporal)), d.TemporalDirection,
			withSymbol(string(d.Existential), model.ExistentialSymbol(d.Existential)), d.ExistentialDirection)
	}
	return tw.Flush()
}

func withSymbol(typ, symbol string) string {
	if symbol == "" {
		return typ
	}
	return typ + " " + symbol
}

func printSessionTable(w io.Writer, sessions []session.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDEPENDENCIES\tACTIVITIES\tLAST USED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.ID, s.Dependencies, s.Activities, s.LastUsed.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
