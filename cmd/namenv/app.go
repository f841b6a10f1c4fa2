package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dhamidi/namenv/namenv"
	"github.com/dhamidi/namenv/problem"
	"github.com/dhamidi/namenv/project"
)

type globalOptions struct {
	verbose      int
	logFile      string
	config       string
	project      string
	release      int
	addReads     []string
	addExports   []string
	addModules   []string
	limitModules []string
	parallel     bool
	noColor      bool
}

// session is a loaded workspace with the environment of one project.
type session struct {
	ws       *project.Workspace
	env      *namenv.Environment
	problems *problem.Collector
	out      *printer
}

func (g *globalOptions) options(ws *project.Workspace) namenv.Options {
	opts := namenv.OptionsFrom(ws.Options)
	if g.release != 0 {
		opts.Release = g.release
	}
	opts.AddReads = append(opts.AddReads, g.addReads...)
	opts.AddExports = append(opts.AddExports, g.addExports...)
	opts.AddModules = append(opts.AddModules, g.addModules...)
	if len(g.limitModules) > 0 {
		opts.LimitModules = g.limitModules
	}
	if g.parallel {
		opts.ParallelLookup = true
	}
	return opts
}

func (g *globalOptions) projectName(ws *project.Workspace) (string, error) {
	if g.project != "" {
		return g.project, nil
	}
	if len(ws.Projects) == 1 {
		return ws.Projects[0].Name, nil
	}
	return "", fmt.Errorf("%s defines %d projects, choose one with --project", ws.File, len(ws.Projects))
}

func (g *globalOptions) open(w io.Writer) (*session, error) {
	ws, err := project.Load(g.config)
	if err != nil {
		if errors.Is(err, project.ErrCycle) {
			problem.NewLogReporter("namenv.cli").Report(problem.Diagnostic{
				ID:       problem.ProjectCycle,
				Severity: problem.Error,
				Message:  err.Error(),
				Subject:  g.config,
			})
		}
		return nil, err
	}
	name, err := g.projectName(ws)
	if err != nil {
		return nil, err
	}
	problems := &problem.Collector{}
	opts := g.options(ws)
	opts.Reporter = problem.Tee(problems, problem.NewLogReporter("namenv.cli"))

	env, err := namenv.New(ws, name, opts)
	if err != nil {
		return nil, err
	}
	return &session{
		ws:       ws,
		env:      env,
		problems: problems,
		out:      newPrinter(w, ws.Root, !g.noColor),
	}, nil
}

func (s *session) close() {
	s.env.Cleanup()
}
