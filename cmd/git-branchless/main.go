// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Command git-branchless is a thin CLI over internal/branchless:
// argument parsing and presentation only, deliberately minimal since
// the underlying engine (smartlog, hide/unhide, move, undo) is the
// part worth getting right. Grounded on cmd/zeta/main.go's kong.Parse
// idiom.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/antgroup/hugescm/internal/branchless"
	"github.com/antgroup/hugescm/internal/rewrite"
	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/pkg/kong"
	"github.com/antgroup/hugescm/pkg/zeta"
)

type Globals struct {
	Worktree string `name:"worktree" short:"C" default:"." help:"Run as if started in this working directory"`
}

func (g *Globals) open(ctx context.Context) (*branchless.Repository, error) {
	z, err := zeta.Open(ctx, &zeta.OpenOptions{Worktree: g.Worktree, Quiet: true})
	if err != nil {
		return nil, err
	}
	return branchless.Open(ctx, z)
}

type SmartlogCmd struct{}

func (c *SmartlogCmd) Run(g *Globals) error {
	ctx := context.Background()
	repo, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	graph, err := repo.Smartlog(ctx, nil)
	if err != nil {
		return err
	}
	for _, node := range graph.Nodes {
		marker := " "
		if node.IsHead {
			marker = "@"
		}
		fmt.Printf("%s %s\n", marker, node.Oid.Shorten())
	}
	return nil
}

type HideCmd struct {
	Commit string `arg:"" help:"Commit to hide"`
}

func (c *HideCmd) Run(g *Globals) error {
	ctx := context.Background()
	repo, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	return repo.Hide(ctx, plumbing.NewHash(c.Commit))
}

type UnhideCmd struct {
	Commit string `arg:"" help:"Commit to unhide"`
}

func (c *UnhideCmd) Run(g *Globals) error {
	ctx := context.Background()
	repo, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	return repo.Unhide(ctx, plumbing.NewHash(c.Commit))
}

type MoveCmd struct {
	Source string `name:"source" short:"s" required:"" help:"Commit (and descendants) to move"`
	Dest   string `name:"dest" short:"d" required:"" help:"Commit to move onto"`
}

func (c *MoveCmd) Run(g *Globals) error {
	ctx := context.Background()
	repo, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	result, err := repo.Move(ctx, plumbing.NewHash(c.Source), plumbing.NewHash(c.Dest))
	if err != nil {
		return err
	}
	switch result.Kind {
	case rewrite.DeclinedToMerge:
		fmt.Println("Merge conflict, resolve and run `zeta rebase --continue`")
	default:
		fmt.Printf("Rewrote %d commits\n", len(result.RewrittenOids))
	}
	return nil
}

type UndoCmd struct {
	N int `arg:"" default:"1" help:"Number of transactions to undo"`
}

func (c *UndoCmd) Run(g *Globals) error {
	ctx := context.Background()
	repo, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	return repo.UndoN(ctx, c.N)
}

type App struct {
	Globals
	Smartlog SmartlogCmd `cmd:"smartlog" aliases:"sl" help:"Display a smart overview of your commit graph"`
	Hide     HideCmd     `cmd:"hide" help:"Hide a commit from the smartlog"`
	Unhide   UnhideCmd   `cmd:"unhide" help:"Unhide a commit"`
	Move     MoveCmd     `cmd:"move" aliases:"m" help:"Move a subtree of commits onto a new location"`
	Undo     UndoCmd     `cmd:"undo" help:"Undo the most recent operation(s)"`
}

func main() {
	var app App
	ctx := kong.Parse(&app, kong.Name("git-branchless"),
		kong.Description("A tidy workflow layer on top of zeta"),
		kong.UsageOnError())
	if err := ctx.Run(&app.Globals); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
