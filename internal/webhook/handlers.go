package webhook

import (
	"context"
	"io"
	"strings"

	"lark-ats/internal/common/errors"
)

func handleIssue(_ context.Context, out io.Writer, event Event) error {
	action, number := event.Arg1, event.Arg2
	p := &printer{w: out}

	p.println("🎫 Processing issue event: %s for #%s", action, number)

	switch action {
	case "opened":
		p.println("  → New issue opened: #%s", number)
		p.println("  → Triggering analysis workflow...")
	case "labeled":
		p.println("  → Issue labeled: #%s", number)
		p.println("  → Checking state transitions...")
	case "closed":
		p.println("  → Issue closed: #%s", number)
	case "reopened":
		p.println("  → Issue reopened: #%s", number)
	case "assigned":
		p.println("  → Issue assigned: #%s", number)
	default:
		p.println("  → Unknown action: %s", action)
	}

	return p.err
}

func handlePullRequest(_ context.Context, out io.Writer, event Event) error {
	action, number := event.Arg1, event.Arg2
	p := &printer{w: out}

	p.println("🔀 Processing PR event: %s for #%s", action, number)

	switch action {
	case "opened":
		p.println("  → New PR opened: #%s", number)
		p.println("  → Triggering review workflow...")
	case "closed":
		p.println("  → PR closed: #%s", number)
	case "reopened":
		p.println("  → PR reopened: #%s", number)
	case "review_requested":
		p.println("  → Review requested for PR: #%s", number)
	case "ready_for_review":
		p.println("  → PR ready for review: #%s", number)
	default:
		p.println("  → Unknown action: %s", action)
	}

	return p.err
}

func handlePush(_ context.Context, out io.Writer, event Event) error {
	branch, sha := event.Arg1, event.Arg2
	p := &printer{w: out}

	p.println("📤 Processing push event: %s @ %s", branch, sha)
	p.println("  → Branch: %s", branch)
	if sha == "" {
		if p.err != nil {
			return p.err
		}
		return errors.NewInvalidInputError("Missing commit SHA", "push events take <branch> <commit-sha>")
	}
	p.println("  → Commit: %s", shortSHA(sha))

	switch {
	case branch == "main":
		p.println("  → Main branch updated, checking deployments...")
	case strings.HasPrefix(branch, "feat/"):
		p.println("  → Feature branch updated")
	case strings.HasPrefix(branch, "fix/"):
		p.println("  → Fix branch updated")
	}

	return p.err
}

func handleComment(_ context.Context, out io.Writer, event Event) error {
	number, author := event.Arg1, event.Arg2
	p := &printer{w: out}

	p.println("💬 Processing comment event: #%s by %s", number, author)
	p.println("  → Checking for commands...")

	return p.err
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
