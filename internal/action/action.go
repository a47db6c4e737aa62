// Package action is the external-facing operation surface consumed by
// the calling agent. Actions form a closed enum; dispatch is an
// exhaustive switch, so adding an action is a compile-time concern,
// not a string-keyed branch.
package action

import (
	"fmt"

	"github.com/loykin/bgproc/internal/logstore"
	"github.com/loykin/bgproc/internal/manager"
	"github.com/loykin/bgproc/internal/proc"
)

// Kind discriminates the facade operations.
type Kind int

const (
	KindStart Kind = iota
	KindList
	KindOutput
	KindLogs
	KindKill
	KindClear
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindList:
		return "list"
	case KindOutput:
		return "output"
	case KindLogs:
		return "logs"
	case KindKill:
		return "kill"
	case KindClear:
		return "clear"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// StartRequest carries the inputs of a start action. Nil alert flags
// take the defaults: alertOnSuccess=false, alertOnFailure=true,
// alertOnKill=false.
type StartRequest struct {
	Name           string   `json:"name"`
	Command        string   `json:"command"`
	WorkDir        string   `json:"work_dir,omitempty"`
	Env            []string `json:"env,omitempty"`
	AlertOnSuccess *bool    `json:"alert_on_success,omitempty"`
	AlertOnFailure *bool    `json:"alert_on_failure,omitempty"`
	AlertOnKill    *bool    `json:"alert_on_kill,omitempty"`
}

// Spec resolves the request into a proc.Spec with defaults applied.
func (r StartRequest) Spec() proc.Spec {
	return proc.Spec{
		Name:           r.Name,
		Command:        r.Command,
		WorkDir:        r.WorkDir,
		Env:            r.Env,
		AlertOnSuccess: boolOr(r.AlertOnSuccess, false),
		AlertOnFailure: boolOr(r.AlertOnFailure, true),
		AlertOnKill:    boolOr(r.AlertOnKill, false),
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Request is one multiplexed facade call.
type Request struct {
	Kind   Kind
	Start  StartRequest // KindStart
	Target string       // id-or-name pattern for output/logs/kill
}

// Result holds exactly one non-nil field, matching the request kind.
type Result struct {
	Start  *StartResult  `json:"start,omitempty"`
	List   *ListResult   `json:"list,omitempty"`
	Output *OutputResult `json:"output,omitempty"`
	Logs   *LogsResult   `json:"logs,omitempty"`
	Kill   *KillResult   `json:"kill,omitempty"`
	Clear  *ClearResult  `json:"clear,omitempty"`
}

type StartResult struct {
	Record proc.Record `json:"record"`
	// DuplicateNameHint is a soft warning when other live processes
	// already carry this name; start is never blocked on duplicates.
	DuplicateNameHint string `json:"duplicate_name_hint,omitempty"`
}

type ListResult struct {
	Records []proc.Record `json:"records"`
}

type OutputResult struct {
	Record proc.Record `json:"record"`
	// Text is the agent-facing rendering: ANSI-stripped, truncated to
	// the configured caps, with elision notes.
	Text string `json:"text"`
}

type LogsResult struct {
	ID        string `json:"id"`
	StdoutLog string `json:"stdout_log"`
	StderrLog string `json:"stderr_log"`
}

type KillResult struct {
	Record proc.Record `json:"record"`
	// AlreadyTerminal marks a kill on a finished process: a no-op
	// success, not an error.
	AlreadyTerminal bool `json:"already_terminal"`
}

type ClearResult struct {
	Removed int `json:"removed"`
	Skipped int `json:"skipped"`
}

// Facade is pure orchestration over the process manager.
type Facade struct {
	mgr  *manager.Manager
	caps logstore.Caps
}

func New(mgr *manager.Manager, caps logstore.Caps) *Facade {
	return &Facade{mgr: mgr, caps: caps}
}

// Do dispatches one request. The switch is exhaustive over Kind.
func (f *Facade) Do(req Request) (Result, error) {
	switch req.Kind {
	case KindStart:
		r, err := f.StartAction(req.Start)
		return Result{Start: r}, err
	case KindList:
		return Result{List: f.ListAction()}, nil
	case KindOutput:
		r, err := f.OutputAction(req.Target)
		return Result{Output: r}, err
	case KindLogs:
		r, err := f.LogsAction(req.Target)
		return Result{Logs: r}, err
	case KindKill:
		r, err := f.KillAction(req.Target)
		return Result{Kill: r}, err
	case KindClear:
		return Result{Clear: f.ClearAction()}, nil
	default:
		return Result{}, fmt.Errorf("unknown action kind %d", int(req.Kind))
	}
}

func (f *Facade) StartAction(req StartRequest) (*StartResult, error) {
	spec := req.Spec()
	hint := ""
	if spec.Name != "" {
		if n := f.mgr.LiveNameCount(spec.Name); n > 0 {
			hint = fmt.Sprintf("%d running process(es) already named %q; use the id to address a specific one", n, spec.Name)
		}
	}
	rec, err := f.mgr.Start(spec)
	if err != nil {
		return nil, err
	}
	return &StartResult{Record: rec, DuplicateNameHint: hint}, nil
}

func (f *Facade) ListAction() *ListResult {
	return &ListResult{Records: f.mgr.List()}
}

func (f *Facade) OutputAction(target string) (*OutputResult, error) {
	rec, snap, err := f.mgr.Output(target)
	if err != nil {
		return nil, err
	}
	return &OutputResult{Record: rec, Text: logstore.Render(snap, f.caps)}, nil
}

func (f *Facade) LogsAction(target string) (*LogsResult, error) {
	rec, err := f.mgr.Logs(target)
	if err != nil {
		return nil, err
	}
	return &LogsResult{ID: rec.ID, StdoutLog: rec.StdoutLog, StderrLog: rec.StderrLog}, nil
}

func (f *Facade) KillAction(target string) (*KillResult, error) {
	rec, already, err := f.mgr.Kill(target)
	if err != nil {
		return nil, err
	}
	return &KillResult{Record: rec, AlreadyTerminal: already}, nil
}

func (f *Facade) ClearAction() *ClearResult {
	removed, skipped := f.mgr.Clear()
	return &ClearResult{Removed: removed, Skipped: skipped}
}
