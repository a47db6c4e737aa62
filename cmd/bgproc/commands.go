package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/loykin/bgproc/internal/action"
	"github.com/loykin/bgproc/internal/proc"
)

// command bundles the subcommand implementations; all of them talk to
// a running daemon over its REST API.
type command struct {
	global *GlobalFlags
}

func (c command) client() *APIClient {
	return NewAPIClient(c.global.APIUrl, c.global.APITimeout)
}

// Start launches a new background process via the daemon.
func (c command) Start(flags StartFlags) error {
	if flags.Command == "" {
		return fmt.Errorf("command is required")
	}
	req := action.StartRequest{
		Name:    flags.Name,
		Command: flags.Command,
		WorkDir: flags.WorkDir,
		Env:     flags.EnvKVs,
	}
	if flags.SuccessChanged {
		v := flags.AlertOnSuccess
		req.AlertOnSuccess = &v
	}
	if flags.FailureChanged {
		v := flags.AlertOnFailure
		req.AlertOnFailure = &v
	}
	if flags.KillChanged {
		v := flags.AlertOnKill
		req.AlertOnKill = &v
	}

	res, err := c.client().Start(req)
	if err != nil {
		return err
	}
	r := res.Record
	fmt.Printf("started %s (pid %d): %s\n", r.ID, r.PID, r.Command)
	if res.DuplicateNameHint != "" {
		fmt.Printf("note: %s\n", res.DuplicateNameHint)
	}
	return nil
}

// List prints all tracked records, alive ones first.
func (c command) List(flags ListFlags) error {
	res, err := c.client().List()
	if err != nil {
		return err
	}
	if flags.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Records)
	}
	if len(res.Records) == 0 {
		fmt.Println("no background processes")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPID\tRUNTIME\tEXIT\tCOMMAND")
	for _, r := range res.Records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.Name, r.Status, r.PID,
			r.Runtime().Truncate(time.Second),
			exitColumn(r), truncateCommand(r.Command, 48))
	}
	return w.Flush()
}

// Output prints the rendered recent output of one process.
func (c command) Output(flags TargetFlags) error {
	res, err := c.client().Output(flags.Target)
	if err != nil {
		return err
	}
	r := res.Record
	fmt.Printf("%s (%s) status=%s\n", displayName(r), r.ID, r.Status)
	fmt.Print(res.Text)
	return nil
}

// Logs prints the log file paths of one process.
func (c command) Logs(flags TargetFlags) error {
	res, err := c.client().Logs(flags.Target)
	if err != nil {
		return err
	}
	fmt.Printf("stdout: %s\nstderr: %s\n", res.StdoutLog, res.StderrLog)
	return nil
}

// Kill terminates one process via the two-phase protocol.
func (c command) Kill(flags TargetFlags) error {
	res, err := c.client().Kill(flags.Target)
	if err != nil {
		return err
	}
	r := res.Record
	if res.AlreadyTerminal {
		fmt.Printf("%s already finished (%s)\n", r.ID, r.Status)
		return nil
	}
	fmt.Printf("terminating %s (pid %d)\n", r.ID, r.PID)
	return nil
}

// Clear removes finished records from the registry.
func (c command) Clear() error {
	res, err := c.client().Clear()
	if err != nil {
		return err
	}
	fmt.Printf("removed %d finished record(s), kept %d running\n", res.Removed, res.Skipped)
	return nil
}

func exitColumn(r proc.Record) string {
	if r.ExitCode == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *r.ExitCode)
}

func truncateCommand(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func displayName(r proc.Record) string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
