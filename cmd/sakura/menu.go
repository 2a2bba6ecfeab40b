package main

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/sakuraviz/sakura/internal/logging"
	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/termio"
)

// maxLogLines caps how many recent log lines the interactive menu keeps
// visible below the source picker.
const maxLogLines = 5

// menuStep tracks which field the interactive menu is currently collecting.
type menuStep int

const (
	stepSource menuStep = iota
	stepPath
	stepDone
)

var sourceChoices = []string{"Image URL", "Animated GIF URL", "Remote video URL", "Local video path"}

// menuModel is the bubbletea model for sakura's no-argument interactive
// menu: pick a source kind, then type the URL or path to render, with a
// live tail of the logger's recent output beneath the picker.
type menuModel struct {
	step      menuStep
	cursor    int
	path      strings.Builder
	quit      bool
	chosenIdx int

	logSub   *logging.Subscription
	logLines []string
}

func newMenuModel(logSub *logging.Subscription) *menuModel {
	return &menuModel{logSub: logSub}
}

// logLineMsg carries one log entry read from the menu's subscription.
type logLineMsg []byte

// waitForLog returns a tea.Cmd that blocks on the next entry from sub. Once
// wired into Update, a new waitForLog is scheduled after every delivered
// line so the tail keeps following live output for the lifetime of sub.
func waitForLog(sub *logging.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}

	return func() tea.Msg {
		line, ok := <-sub.C()
		if !ok {
			return nil
		}

		return logLineMsg(line)
	}
}

func (m *menuModel) Init() tea.Cmd { return waitForLog(m.logSub) }

func (m *menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if line, ok := msg.(logLineMsg); ok {
		m.logLines = append(m.logLines, strings.TrimRight(string(line), "\n"))
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}

		return m, waitForLog(m.logSub)
	}

	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch m.step {
	case stepSource:
		return m.updateSource(keyMsg)
	case stepPath:
		return m.updatePath(keyMsg)
	default:
		return m, tea.Quit
	}
}

func (m *menuModel) updateSource(keyMsg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "ctrl+c", "esc", "q":
		m.quit = true

		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(sourceChoices)-1 {
			m.cursor++
		}
	case "enter":
		m.chosenIdx = m.cursor
		m.step = stepPath
	}

	return m, nil
}

func (m *menuModel) updatePath(keyMsg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.quit = true

		return m, tea.Quit
	case "enter":
		if m.path.Len() > 0 {
			m.step = stepDone

			return m, tea.Quit
		}
	case "backspace":
		s := m.path.String()
		if len(s) > 0 {
			m.path.Reset()
			m.path.WriteString(s[:len(s)-1])
		}
	default:
		if len(keyMsg.String()) == 1 {
			m.path.WriteString(keyMsg.String())
		}
	}

	return m, nil
}

func (m *menuModel) View() tea.View {
	var b strings.Builder

	if m.step == stepSource {
		fmt.Fprintln(&b, "sakura — choose a source (↑/↓, enter, q to quit)")

		for i, choice := range sourceChoices {
			cursor := "  "
			if i == m.cursor {
				cursor = "> "
			}

			fmt.Fprintf(&b, "%s%d. %s\n", cursor, i+1, choice)
		}
	} else {
		fmt.Fprintf(&b, "%s\nEnter URL or path: %s\n", sourceChoices[m.chosenIdx], m.path.String())
	}

	if len(m.logLines) > 0 {
		fmt.Fprintln(&b, "\nrecent log output:")

		for _, line := range m.logLines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	return tea.NewView(b.String())
}

// runInteractive drives the no-argument menu, then dispatches to the chosen
// render path exactly as the equivalent flag would have. logPub, if
// non-nil, feeds a live tail of logger output into the menu view.
func runInteractive(ctx context.Context, cmd *cobra.Command, opts option.RenderOptions, term termio.Size, logPub *logging.Publisher) error {
	var logSub *logging.Subscription
	if logPub != nil {
		logSub = logPub.Subscribe()
		defer logSub.Close()
	}

	m := newMenuModel(logSub)

	p := tea.NewProgram(m)

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("interactive menu: %w", err)
	}

	fm, ok := final.(*menuModel)
	if !ok || fm.quit || fm.step != stepDone {
		return errNoInteractiveSelection
	}

	path := fm.path.String()

	switch fm.chosenIdx {
	case 0:
		return runStill(ctx, cmd, path, opts, term)
	case 1:
		return runAnimated(ctx, cmd, path, opts, term)
	case 2:
		return runVideo(ctx, cmd, path, opts, term, true)
	default:
		return runLocalVideo(ctx, cmd, path, opts, term)
	}
}
