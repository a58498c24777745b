package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wirevm/serval"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/tree"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	typeNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// interactiveModel drives the schema inspector: pick a registered
// type, enter a text literal for it, and see how it decodes and what
// the other formats make of it.
type interactiveModel struct {
	err        error
	session    *serval.Session
	schemaFile string
	result     string
	types      []typeInfo
	input      textinput.Model
	selected   int
	state      modelState
}

type typeInfo struct {
	name   string
	id     registry.TypeID
	detail string
}

type modelState int

const (
	stateSelectType modelState = iota
	stateInputLiteral
	stateShowResult
)

func newInteractiveModel(schemaFile string) *interactiveModel {
	return &interactiveModel{
		schemaFile: schemaFile,
		state:      stateSelectType,
	}
}

type loadedMsg struct {
	err     error
	session *serval.Session
	types   []typeInfo
}

type decodeResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadSchema
}

func (m *interactiveModel) loadSchema() tea.Msg {
	data, err := os.ReadFile(m.schemaFile)
	if err != nil {
		return loadedMsg{err: err}
	}
	reg, err := registry.ParseSchema(data)
	if err != nil {
		return loadedMsg{err: err}
	}
	snap := reg.Snapshot()

	var types []typeInfo
	for _, name := range snap.NamedTypes() {
		id, _ := snap.TypeByName(name)
		ti := snap.Lookup(id)
		var fields []string
		for _, f := range ti.Fields {
			fields = append(fields, f.Name+": "+fieldStyle.Render(fieldTypeStr(snap, f.Type)))
		}
		detail := ti.Shape.String()
		if len(fields) > 0 {
			detail += " {" + strings.Join(fields, ", ") + "}"
		}
		types = append(types, typeInfo{name: name, id: id, detail: detail})
	}

	return loadedMsg{session: serval.New(reg), types: types}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputLiteral {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectType && m.selected < len(m.types)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectType:
				m.prepareInput()
				m.state = stateInputLiteral

			case stateInputLiteral:
				return m, m.decodeLiteral

			case stateShowResult:
				m.state = stateSelectType
				m.result = ""
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateInputLiteral:
				m.state = stateSelectType
			case stateShowResult:
				m.state = stateSelectType
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.types = msg.types

	case decodeResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputLiteral {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) prepareInput() {
	t := m.types[m.selected]
	ti := textinput.New()
	ti.Placeholder = t.name + "{...}"
	ti.Prompt = "literal: "
	ti.Width = 60
	ti.Focus()
	m.input = ti
}

// decodeLiteral parses the entered literal against the selected type
// and renders the value through each encoder.
func (m *interactiveModel) decodeLiteral() tea.Msg {
	t := m.types[m.selected]
	v, err := m.session.ParseText(t.id, m.input.Value())
	if err != nil {
		return decodeResultMsg{err: err}
	}
	defer m.session.Release(v)

	var b strings.Builder
	text, err := m.session.EncodeText(t.id, v)
	if err != nil {
		return decodeResultMsg{err: err}
	}
	fmt.Fprintf(&b, "text:  %s\n", text)

	doc, err := m.session.EncodeJSON(t.id, v, tree.JSONOptions{})
	if err != nil {
		return decodeResultMsg{err: err}
	}
	fmt.Fprintf(&b, "json:  %s\n", doc)

	wire, err := m.session.EncodeWire(t.id, v)
	if err != nil {
		fmt.Fprintf(&b, "wire:  not encodable: %v\n", err)
	} else {
		fmt.Fprintf(&b, "wire:  % x  (%d bytes)\n", wire, len(wire))
	}
	return decodeResultMsg{result: b.String()}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.types) == 0 {
		return "Loading schema..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Schema Inspector"))
	b.WriteString(" ")
	b.WriteString(m.schemaFile)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectType:
		b.WriteString("Select a type:\n\n")
		for i, t := range m.types {
			line := typeNameStyle.Render(t.name) + " " + t.detail
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + t.name + " " + t.detail))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • q quit"))

	case stateInputLiteral:
		t := m.types[m.selected]
		fmt.Fprintf(&b, "Enter a %s literal\n\n", typeNameStyle.Render(t.name))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter decode • esc back"))

	case stateShowResult:
		t := m.types[m.selected]
		fmt.Fprintf(&b, "Decoded as %s:\n\n", typeNameStyle.Render(t.name))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(schemaFile string) error {
	p := tea.NewProgram(newInteractiveModel(schemaFile), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
