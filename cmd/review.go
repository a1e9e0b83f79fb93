package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// terminalReviewer shows the assembled prompt in the terminal and lets the
// user generate, edit or cancel, mirroring the review dialog the host
// platform would present.
type terminalReviewer struct {
	in  *bufio.Reader
	out *os.File
}

func (r *terminalReviewer) reader() *bufio.Reader {
	if r.in == nil {
		r.in = bufio.NewReader(os.Stdin)
	}
	return r.in
}

func (r *terminalReviewer) writer() *os.File {
	if r.out == nil {
		r.out = os.Stdout
	}
	return r.out
}

// Review prints the prompt and reads an action. Returns committed=false on
// cancel; the pipeline guarantees no side effects in that case.
func (r *terminalReviewer) Review(ctx context.Context, text string) (string, bool, error) {
	out := r.writer()
	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintln(out, text)
	fmt.Fprintln(out, strings.Repeat("-", 60))

	for {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		fmt.Fprint(out, "[g]enerate, [e]dit, [c]ancel? ")
		line, err := r.reader().ReadString('\n')
		if err != nil {
			return "", false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "g", "generate", "y", "yes":
			return text, true, nil
		case "e", "edit":
			edited, err := r.readEdited()
			if err != nil {
				return "", false, err
			}
			if strings.TrimSpace(edited) != "" {
				text = edited
			}
			fmt.Fprintln(out, strings.Repeat("-", 60))
			fmt.Fprintln(out, text)
			fmt.Fprintln(out, strings.Repeat("-", 60))
		case "c", "cancel", "n", "no", "q":
			return "", false, nil
		}
	}
}

// readEdited reads replacement prompt text until a lone "." line
func (r *terminalReviewer) readEdited() (string, error) {
	fmt.Fprintln(r.writer(), "Enter the new prompt, end with a single '.' line:")
	var lines []string
	for {
		line, err := r.reader().ReadString('\n')
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == "." {
			break
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	return strings.Join(lines, "\n"), nil
}
