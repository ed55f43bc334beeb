package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"go-easyapply-automation/internal/database"
)

// consoleConfirmer blocks until a line is read from in or ctx is done.
type consoleConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c consoleConfirmer) Confirm(ctx context.Context, prompt string) error {
	fmt.Fprintf(c.out, "⏸️  %s: ", prompt)

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(c.in).ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil && err != io.EOF {
			return err
		}
		return nil
	}
}

func printOpportunities(ctx context.Context, w io.Writer, store database.OpportunityStore) error {
	opps, err := store.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tPOSITION\tSTATUS\tAPPLIED\tLINK")
	for _, o := range opps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n", o.ID, o.Company, o.Position, o.Status, o.Applied, o.Link)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d opportunities\n", len(opps))
	return nil
}
