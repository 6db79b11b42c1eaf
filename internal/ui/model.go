// Package ui renders the detector's live state as a terminal UI using
// bubbletea and lipgloss.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xlemi/tunacore/internal/dsp"
	"github.com/0xlemi/tunacore/internal/pitch"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	debugStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	noSoundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#888888")).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Padding(2, 4).
			MarginBottom(1)

	midiLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6AA84F"))

	boxWidth = 8

	noteColors = map[string]string{
		"C": "#D9C399", "C#": "#D9C399",
		"D": "#9370DB", "D#": "#9370DB",
		"E": "#E6E675",
		"F": "#E69138", "F#": "#E69138",
		"G": "#6AA84F", "G#": "#6AA84F",
		"A": "#CC0000", "A#": "#CC0000",
		"B": "#3D85C6",
	}

	centsMeterWidth = 21 // odd, so there's a dead-center tick for 0 cents
)

func getNoteStyle(pitchClass string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[pitchClass])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(2, 4).
		Width(boxWidth).
		Align(lipgloss.Center).
		MarginBottom(1)
}

// Model is the bubbletea state for the tuner display. It holds the last
// Result pushed from the audio thread plus a spring-animated needle
// position so the cents bar doesn't snap between blocks.
type Model struct {
	variant dsp.Variant

	hasSignal bool
	note      pitch.Note
	freqHz    float64
	phaseErr  float64
	rmsDB     float64
	strobe    float64

	needlePos, needleVel float64
	spring               harmonica.Spring

	midiLog []string

	width, height int
	showDebug     bool
	lastUpdate    time.Time
}

// NewModel builds a UI model for the given detector variant.
func NewModel(variant dsp.Variant) Model {
	return Model{
		variant:    variant,
		showDebug:  true,
		lastUpdate: time.Now(),
		spring:     harmonica.NewSpring(harmonica.FPS(30), 6.0, 0.7),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*33, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type tickMsg time.Time

// ResultMsg carries one block's Orchestrator.Process output to the UI.
type ResultMsg pitch.Result

// Update handles the model's message loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "d":
			m.showDebug = !m.showDebug
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		target := 0.0
		if m.hasSignal {
			target = m.note.Cents
		}
		m.needlePos, m.needleVel = m.spring.Update(m.needlePos, m.needleVel, target)
		return m, tick()

	case ResultMsg:
		m.hasSignal = msg.HasSignal
		m.freqHz = msg.FreqHz
		m.note = msg.Note
		m.phaseErr = msg.PhaseErrorPct
		m.rmsDB = msg.RMSdB
		m.strobe = msg.Strobe
		m.lastUpdate = time.Now()
		if m.variant == dsp.VariantMIDI {
			for _, ev := range msg.MIDIEvents {
				m.midiLog = append(m.midiLog, formatMIDIEvent(ev.Status, ev.Key, ev.Velocity))
			}
			if len(m.midiLog) > 8 {
				m.midiLog = m.midiLog[len(m.midiLog)-8:]
			}
		}
	}

	return m, nil
}

func formatMIDIEvent(status, key, velocity byte) string {
	if status == 0x90 {
		return fmt.Sprintf("note-on  key=%d vel=%d", key, velocity)
	}
	return fmt.Sprintf("note-off key=%d", key)
}

// centsBar renders a fixed-width tick scale with the spring-animated
// needle position marked, clamped to the display's ±50 cent range.
func centsBar(cents float64) string {
	clamped := cents
	if clamped > 50 {
		clamped = 50
	}
	if clamped < -50 {
		clamped = -50
	}
	pos := int((clamped + 50) / 100 * float64(centsMeterWidth-1))

	var b strings.Builder
	for i := 0; i < centsMeterWidth; i++ {
		switch {
		case i == pos:
			b.WriteRune('◆')
		case i == centsMeterWidth/2:
			b.WriteRune('|')
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// View renders the current state.
func (m Model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("tunacore"))
	s.WriteString("\n")

	if m.hasSignal {
		noteText := fmt.Sprintf("%s%d", m.note.Name, m.note.Octave)
		s.WriteString(getNoteStyle(m.note.Name).Render(noteText))
		s.WriteString("\n")

		bar := centsBar(m.needlePos)
		cents := fmt.Sprintf("%+.1f¢", m.note.Cents)
		s.WriteString(infoStyle.Render(fmt.Sprintf("%s  %s", bar, cents)))
		s.WriteString("\n")

		info := fmt.Sprintf("Frequency: %.2f Hz | Phase error: %+.1f%%", m.freqHz, m.phaseErr)
		s.WriteString(infoStyle.Render(info))
	} else {
		placeholder := noSoundStyle.Width(boxWidth).Align(lipgloss.Center).Render("---")
		s.WriteString(placeholder)
		s.WriteString("\n")
		s.WriteString(infoStyle.Render("Make a sound to see the note..."))
	}
	s.WriteString("\n\n")

	if m.showDebug {
		dbInfo := fmt.Sprintf("RMS: %.1f dB | Strobe: %.2fs", m.rmsDB, m.strobe)
		s.WriteString(debugStyle.Render(dbInfo))
		s.WriteString("\n")
	}

	if m.variant == dsp.VariantMIDI && len(m.midiLog) > 0 {
		s.WriteString("\n")
		s.WriteString(midiLogStyle.Render(strings.Join(m.midiLog, "\n")))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(infoStyle.Render("Press d to toggle debug info | Press q to quit"))

	return s.String()
}
