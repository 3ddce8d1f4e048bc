// internal/play/command.go
//
// Input line parsing: free text is a prompt, ':' lines are commands.

package play

import "strings"

// Kind is what a line of player input asks for.
type Kind int

const (
	KindNone   Kind = iota // blank line
	KindPrompt             // free text: set the prompt and submit it
	KindStart              // :start / :again
	KindRetry              // :retry, resubmit the stored prompt
	KindHelp
	KindQuit
	KindUnknown
)

// Command is one parsed input line.
type Command struct {
	Kind Kind
	Text string // prompt text for KindPrompt, the raw word for KindUnknown
}

// Parse turns an input line into a Command. Lines starting with ':' are
// commands; anything else is a prompt.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: KindNone}
	}
	if !strings.HasPrefix(line, ":") {
		return Command{Kind: KindPrompt, Text: line}
	}
	word := strings.ToLower(strings.Fields(line)[0])
	switch word {
	case ":start", ":again", ":new":
		return Command{Kind: KindStart}
	case ":retry", ":r":
		return Command{Kind: KindRetry}
	case ":help", ":h", ":?":
		return Command{Kind: KindHelp}
	case ":quit", ":q", ":exit":
		return Command{Kind: KindQuit}
	}
	return Command{Kind: KindUnknown, Text: word}
}

const helpText = `Commands:
  <text>    describe the reference image and submit it
  :retry    resubmit your last prompt after an error
  :start    start a new game (also :again)
  :quit     leave
`
