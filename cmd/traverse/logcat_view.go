// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/traverse/pkg/logcat"
)

// maxViewerLines bounds the scrollback kept in memory.
const maxViewerLines = 5000

// runLogcatViewer runs the full-screen log viewer until the user quits or
// the context ends.
func runLogcatViewer(ctx context.Context, stream *logcat.Stream, source string) error {
	p := tea.NewProgram(newLogcatModel(stream, source),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
			return nil
		}
		return err
	}
	return nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// entryMsg carries one log entry into the update loop.
type entryMsg logcat.Entry

// streamClosedMsg signals that the websocket stream has ended.
type streamClosedMsg struct{}

// waitForEntry blocks on the stream as a command so entries arrive as
// messages. It must not be rescheduled after streamClosedMsg; a closed
// channel is always ready.
func waitForEntry(s *logcat.Stream) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-s.Entries()
		if !ok {
			return streamClosedMsg{}
		}
		return entryMsg(e)
	}
}

// =============================================================================
// MODEL
// =============================================================================

// logcatModel displays a live log stream in a scrollable viewport.
//
// While following, the view pins to the newest line. Any scroll key releases
// the pin; "f" or "G" re-engages it.
type logcatModel struct {
	stream *logcat.Stream
	source string

	viewport viewport.Model
	lines    []string
	received int

	width  int
	height int

	follow   bool
	ready    bool
	closed   bool
	quitting bool
}

func newLogcatModel(stream *logcat.Stream, source string) logcatModel {
	return logcatModel{
		stream: stream,
		source: source,
		follow: true,
	}
}

// Init implements tea.Model.
func (m logcatModel) Init() tea.Cmd {
	return waitForEntry(m.stream)
}

// Update implements tea.Model.
func (m logcatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 3
		viewportHeight := m.height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			// Scrolling is driven by the key handler below, not the
			// viewport's own bindings ("f" would page down otherwise).
			m.viewport.KeyMap = viewport.KeyMap{}
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.refreshContent()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "f":
			m.follow = !m.follow
			if m.follow {
				m.viewport.GotoBottom()
			}

		case "j", "down":
			m.follow = false
			m.viewport.LineDown(1)

		case "k", "up":
			m.follow = false
			m.viewport.LineUp(1)

		case "ctrl+d":
			m.follow = false
			m.viewport.HalfViewDown()

		case "ctrl+u":
			m.follow = false
			m.viewport.HalfViewUp()

		case "g", "home":
			m.follow = false
			m.viewport.GotoTop()

		case "G", "end":
			m.follow = true
			m.viewport.GotoBottom()
		}

	case entryMsg:
		m.received++
		m.lines = append(m.lines, renderLogcatEntry(logcat.Entry(msg)))
		if len(m.lines) > maxViewerLines {
			m.lines = m.lines[len(m.lines)-maxViewerLines:]
		}
		m.refreshContent()
		cmds = append(cmds, waitForEntry(m.stream))

	case streamClosedMsg:
		m.closed = true
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m logcatModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Connecting to the log stream...\n"
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

// refreshContent rebuilds the viewport content and keeps the follow pin.
func (m *logcatModel) refreshContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m logcatModel) headerView() string {
	status := "live"
	style := logcatLiveStyle
	switch {
	case m.closed:
		status, style = "closed", logcatClosedStyle
	case !m.follow:
		status, style = "scrolling", logcatPausedStyle
	}
	title := fmt.Sprintf("%s %s  %s",
		logcatTitleStyle.Render("traverse logcat"),
		style.Render("["+status+"]"),
		logcatSourceStyle.Render(m.source))
	line := logcatHairlineStyle.Render(strings.Repeat("─", max(0, m.width)))
	return title + "\n" + line + "\n"
}

func (m logcatModel) footerView() string {
	line := logcatHairlineStyle.Render(strings.Repeat("─", max(0, m.width)))
	help := logcatHelpStyle.Render("f follow  j/k scroll  ctrl+d/u page  g/G ends  q quit")
	count := logcatCountStyle.Render(fmt.Sprintf("%d lines", m.received))
	gap := m.width - lipgloss.Width(help) - lipgloss.Width(count)
	if gap < 1 {
		return line + "\n" + help
	}
	return line + "\n" + help + strings.Repeat(" ", gap) + count
}

// renderLogcatEntry formats one entry for the viewport.
func renderLogcatEntry(e logcat.Entry) string {
	if e.Tag == "" && e.Message == "" {
		// Unparsed lines, like buffer markers, pass through raw.
		return logcatMarkerStyle.Render(e.Raw)
	}
	meta := fmt.Sprintf("%s %5d %5d", e.Time.Format("15:04:05.000"), e.PID, e.TID)
	return fmt.Sprintf("%s %s %s %s",
		logcatMetaStyle.Render(meta),
		logcatLevelStyle(e.Level).Render(e.Level.String()),
		logcatTagStyle.Render(e.Tag+":"),
		e.Message)
}

func logcatLevelStyle(l logcat.Level) lipgloss.Style {
	switch l {
	case logcat.LevelDebug:
		return logcatDebugStyle
	case logcat.LevelInfo:
		return logcatInfoStyle
	case logcat.LevelWarn:
		return logcatWarnStyle
	case logcat.LevelError:
		return logcatErrorStyle
	case logcat.LevelFatal:
		return logcatFatalStyle
	default:
		return logcatVerboseStyle
	}
}

// =============================================================================
// STYLES
// =============================================================================

var (
	logcatTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	logcatSourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	logcatHairlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	logcatHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	logcatCountStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	logcatMetaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	logcatTagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	logcatMarkerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	logcatLiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	logcatPausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	logcatClosedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	logcatVerboseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	logcatDebugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	logcatInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	logcatWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	logcatErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	logcatFatalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)
