// Package ui renders comet's human-facing output. Everything goes to
// stderr so stdout stays clean for scripting.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/papapumpkin/comet/internal/ansi"
)

type Printer struct{}

func New() *Printer {
	return &Printer{}
}

func (p *Printer) Banner() {
	fmt.Fprintln(os.Stderr, ansi.Bold+ansi.Cyan+"  ╔═══════════════════════════════════╗"+ansi.Reset)
	fmt.Fprintln(os.Stderr, ansi.Bold+ansi.Cyan+"  ║"+ansi.Reset+ansi.Bold+"   COMET  "+ansi.Dim+"semantic version flows"+ansi.Reset+ansi.Bold+ansi.Cyan+"   ║"+ansi.Reset)
	fmt.Fprintln(os.Stderr, ansi.Bold+ansi.Cyan+"  ╚═══════════════════════════════════╝"+ansi.Reset)
	fmt.Fprintln(os.Stderr)
}

func (p *Printer) FlowStart(branch, role string) {
	fmt.Fprintf(os.Stderr, ansi.Bold+ansi.Magenta+"── %s flow"+ansi.Reset+ansi.Dim+" (branch %s)"+ansi.Reset+"\n", role, branch)
}

func (p *Printer) ProjectBumped(path, version string) {
	fmt.Fprintf(os.Stderr, ansi.Green+"✓ %s"+ansi.Reset+" → "+ansi.Bold+"%s"+ansi.Reset+"\n", path, version)
}

func (p *Printer) NothingToBump() {
	fmt.Fprintln(os.Stderr, ansi.Dim+"no projects have new version-bearing commits"+ansi.Reset)
}

func (p *Printer) ReleaseBranchCreated(branch string) {
	fmt.Fprintf(os.Stderr, ansi.Cyan+"◆ release branch"+ansi.Reset+" %s\n", branch)
}

func (p *Printer) Released(path, version string) {
	fmt.Fprintf(os.Stderr, ansi.Green+ansi.Bold+"✓ released"+ansi.Reset+" %s "+ansi.Bold+"%s"+ansi.Reset+"\n", path, version)
}

func (p *Printer) Synced(stable, development string) {
	fmt.Fprintf(os.Stderr, ansi.Green+"✓ merged"+ansi.Reset+" %s → %s\n", stable, development)
}

func (p *Printer) Reconciled(paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, ansi.Dim+"branch states already agree"+ansi.Reset)
		return
	}
	fmt.Fprintf(os.Stderr, ansi.Yellow+"⚠ reconciled state"+ansi.Reset+" for %s\n", strings.Join(paths, ", "))
}

func (p *Printer) DryRun() {
	fmt.Fprintln(os.Stderr, ansi.Yellow+"dry run"+ansi.Reset+ansi.Dim+" — nothing was written"+ansi.Reset)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"error: "+ansi.Reset+"%s\n", msg)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Dim+"%s"+ansi.Reset+"\n", msg)
}
