// Package lifecycle drives a request from natural language to an approved
// plugin: oracle selection, dependency installation, sandboxed execution,
// malfunction repair, and the user feedback loop. Persistence happens only
// after the user approves a result.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"plugsmith/internal/config"
	"plugsmith/internal/deps"
	"plugsmith/internal/logging"
	"plugsmith/internal/oracle"
	"plugsmith/internal/prompt"
	"plugsmith/internal/sandbox"
	"plugsmith/internal/sanitize"
	"plugsmith/internal/store"
)

// Advisor asks the oracle one question. Satisfied by oracle.Consultant.
type Advisor interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Runner executes plugin code. Satisfied by sandbox.Executor.
type Runner interface {
	Execute(ctx context.Context, code string, args []string, dependencies []string) (string, error)
}

// Installer manages plugin dependencies. Satisfied by deps.Manager.
type Installer interface {
	Install(ctx context.Context, names []string) error
	Cleanup(ctx context.Context, refs deps.RefCounter, names []string)
}

// Storage is the slice of the plugin store the orchestrator needs.
type Storage interface {
	deps.RefCounter

	CatalogJSON() string
	HistoryJSON() string
	GetPlugin(id int64) (*store.PluginDetail, error)
	CreatePlugin(p store.NewPlugin, originatingRequest string) (int64, error)
	AttachRequestToPlugin(pluginID int64, request string) (int64, error)
	UpdatePluginCode(pluginID int64, code string) error
}

// UserIO is how the orchestrator talks to the person driving the turn.
// Implementations own prompting details such as re-asking on bad input.
type UserIO interface {
	// ShowResult presents a plugin's output.
	ShowResult(output string)

	// AskApproval asks whether the result satisfied the request.
	AskApproval() (bool, error)

	// AskProblem asks what went wrong after a rejection. The comment may
	// be a give-up token.
	AskProblem() (string, error)
}

// Orchestrator wires the turn pipeline together.
type Orchestrator struct {
	advisor   Advisor
	runner    Runner
	installer Installer
	storage   Storage
	io        UserIO
	limits    config.LimitsConfig
}

// New builds an Orchestrator.
func New(advisor Advisor, runner Runner, installer Installer, storage Storage, io UserIO, limits config.LimitsConfig) *Orchestrator {
	return &Orchestrator{
		advisor:   advisor,
		runner:    runner,
		installer: installer,
		storage:   storage,
		io:        io,
		limits:    limits,
	}
}

// RunTurn satisfies one user request end to end. On any error before a
// successful execution nothing is persisted and no result is shown.
func (o *Orchestrator) RunTurn(ctx context.Context, raw string) (*Result, error) {
	t := NewTurn(raw)
	if t.Request == "" {
		return nil, fmt.Errorf("empty request")
	}
	logging.Lifecycle("turn %s: %q", t.ID, t.Request)

	cand, err := o.selectCandidate(ctx, t)
	if err != nil {
		return nil, err
	}
	return o.trialLoop(ctx, t, cand)
}

// selectCandidate runs the initial oracle consultation and shapes the
// reply into the turn's first candidate.
func (o *Orchestrator) selectCandidate(ctx context.Context, t *Turn) (*candidate, error) {
	question := prompt.InitialSelection(t.Request, o.storage.CatalogJSON(), o.storage.HistoryJSON())
	reply, err := o.advisor.Ask(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("oracle consultation failed: %w", err)
	}

	decision, err := oracle.ParseDecision(reply)
	if err != nil {
		return nil, err
	}
	return o.candidateFromDecision(t, decision, reply)
}

// candidateFromDecision resolves a parsed decision into an executable
// candidate, loading the stored plugin for the existing branch.
func (o *Orchestrator) candidateFromDecision(t *Turn, decision *oracle.Decision, reply string) (*candidate, error) {
	if id, ok := decision.WantsExistingPlugin(); ok {
		detail, err := o.storage.GetPlugin(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("oracle selected plugin %d which does not exist", id)
			}
			return nil, fmt.Errorf("failed to load plugin %d: %w", id, err)
		}
		logging.Lifecycle("turn %s: existing plugin %d selected", t.ID, id)
		return &candidate{
			kind:         candidateExisting,
			pluginID:     id,
			code:         detail.Code,
			dependencies: detail.Dependencies,
			args:         sandbox.ParseArguments(decision.PluginArguments),
			rawArgs:      decision.PluginArguments,
			reply:        reply,
		}, nil
	}

	if decision.WantsNewPlugin() {
		logging.Lifecycle("turn %s: new plugin authored", t.ID)
		return &candidate{
			kind:         candidateNew,
			code:         decision.NewPluginCode,
			dependencies: deps.ParseList(decision.NewPluginDependencies),
			args:         sandbox.ParseArguments(decision.PluginArguments),
			rawArgs:      decision.PluginArguments,
			description:  decision.PluginDescription,
			reply:        reply,
		}, nil
	}

	return nil, &oracle.MalformedReplyError{
		Reason: "decision selects no plugin and carries no new code",
		Reply:  reply,
	}
}

// trialLoop executes candidates and gathers feedback until the user
// approves, gives up, or the round limit runs out.
func (o *Orchestrator) trialLoop(ctx context.Context, t *Turn, cand *candidate) (*Result, error) {
	for round := 0; ; round++ {
		output, err := o.executeCandidate(ctx, t, cand)
		if err != nil {
			o.abandonCandidate(ctx, cand)
			return nil, err
		}

		o.io.ShowResult(output)
		approved, err := o.io.AskApproval()
		if err != nil {
			o.abandonCandidate(ctx, cand)
			return nil, fmt.Errorf("failed to read feedback: %w", err)
		}
		if approved {
			pluginID, err := o.persist(t, cand)
			if err != nil {
				return nil, err
			}
			return &Result{TurnID: t.ID, Output: output, PluginID: pluginID}, nil
		}

		comment, err := o.io.AskProblem()
		if err != nil {
			o.abandonCandidate(ctx, cand)
			return nil, fmt.Errorf("failed to read feedback: %w", err)
		}
		if isGiveUp(comment) {
			logging.Lifecycle("turn %s: user gave up after %d rounds", t.ID, round+1)
			o.abandonCandidate(ctx, cand)
			return &Result{TurnID: t.ID, Output: output, Abandoned: true}, nil
		}
		if round+1 >= o.limits.FeedbackRounds {
			logging.Lifecycle("turn %s: feedback round limit %d reached", t.ID, o.limits.FeedbackRounds)
			o.abandonCandidate(ctx, cand)
			return &Result{TurnID: t.ID, Output: output, Abandoned: true}, nil
		}

		next, err := o.reviseCandidate(ctx, t, cand, comment)
		if err != nil {
			o.abandonCandidate(ctx, cand)
			return nil, err
		}
		o.abandonCandidate(ctx, cand)
		cand = next
	}
}

// executeCandidate installs the candidate's dependencies and runs it,
// repairing malfunctions up to the configured attempt limit. The
// candidate's code is updated in place by successful repairs.
func (o *Orchestrator) executeCandidate(ctx context.Context, t *Turn, cand *candidate) (string, error) {
	if err := o.installer.Install(ctx, cand.dependencies); err != nil {
		return "", fmt.Errorf("dependency installation failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= o.limits.RepairAttempts; attempt++ {
		if attempt > 0 {
			repaired, err := o.repair(ctx, t, cand, lastErr)
			if err != nil {
				return "", err
			}
			cand.code = repaired
			// A stored plugin's fix is written back right away, before
			// the retry, so it survives whatever the feedback loop does.
			if cand.kind == candidateExisting {
				if err := o.storage.UpdatePluginCode(cand.pluginID, repaired); err != nil {
					return "", fmt.Errorf("failed to store repaired code: %w", err)
				}
			}
		}

		output, err := o.runner.Execute(ctx, cand.code, cand.args, cand.dependencies)
		if err == nil {
			return output, nil
		}
		if _, ok := sandbox.AsExecutionError(err); !ok {
			return "", err
		}
		logging.Lifecycle("turn %s: execution attempt %d failed: %v", t.ID, attempt+1, err)
		lastErr = err
	}
	return "", fmt.Errorf("plugin still failing after %d repair attempts: %w", o.limits.RepairAttempts, lastErr)
}

// repair asks the oracle for corrected code after an execution failure.
// The reply must be raw source; only a code fence is tolerated.
func (o *Orchestrator) repair(ctx context.Context, t *Turn, cand *candidate, execErr error) (string, error) {
	question := prompt.MalfunctionRepair(cand.code, t.Request, execErr.Error(), cand.rawArgs, o.storage.HistoryJSON())
	reply, err := o.advisor.Ask(ctx, question)
	if err != nil {
		return "", fmt.Errorf("repair consultation failed: %w", err)
	}
	code := oracle.StripCodeFence(reply)
	if code == "" {
		return "", &oracle.MalformedReplyError{Reason: "empty repair reply", Reply: reply}
	}
	return code, nil
}

// reviseCandidate turns a rejection comment into the next candidate. The
// prompt variant depends on what was just rejected: an existing plugin
// gets the full catalog quoted back, a fresh one does not.
func (o *Orchestrator) reviseCandidate(ctx context.Context, t *Turn, cand *candidate, comment string) (*candidate, error) {
	comment = sanitize.Clean(comment)
	var question string
	if cand.kind == candidateExisting {
		question = prompt.NegativeFeedbackExistingPlugin(
			t.Request, cand.reply, comment, "", o.storage.CatalogJSON(), o.storage.HistoryJSON())
	} else {
		question = prompt.NegativeFeedbackNewPlugin(
			t.Request, cand.reply, comment, "", o.storage.HistoryJSON())
	}

	reply, err := o.advisor.Ask(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("revision consultation failed: %w", err)
	}
	decision, err := oracle.ParseDecision(reply)
	if err != nil {
		return nil, err
	}
	if !decision.WantsNewPlugin() {
		return nil, &oracle.MalformedReplyError{
			Reason: "revision must carry new plugin code",
			Reply:  reply,
		}
	}
	return o.candidateFromDecision(t, decision, reply)
}

// persist records an approved candidate: a new plugin is created, an
// existing one gains the request. Repaired code was already written back
// when the repair was obtained.
func (o *Orchestrator) persist(t *Turn, cand *candidate) (int64, error) {
	switch cand.kind {
	case candidateExisting:
		if _, err := o.storage.AttachRequestToPlugin(cand.pluginID, t.Request); err != nil {
			return 0, err
		}
		return cand.pluginID, nil
	default:
		id, err := o.storage.CreatePlugin(store.NewPlugin{
			Code:         cand.code,
			Description:  cand.description,
			Dependencies: cand.dependencies,
		}, t.Request)
		if err != nil {
			return 0, fmt.Errorf("failed to persist plugin: %w", err)
		}
		logging.Lifecycle("turn %s: plugin %d persisted", t.ID, id)
		return id, nil
	}
}

// abandonCandidate releases resources held by a candidate that will not
// be persisted. Dependencies of a stored plugin are left alone.
func (o *Orchestrator) abandonCandidate(ctx context.Context, cand *candidate) {
	if cand.kind != candidateNew {
		return
	}
	o.installer.Cleanup(ctx, o.storage, cand.dependencies)
}
