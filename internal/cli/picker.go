package cli

// Interactive theme picker: the terminal-side sibling of the
// show_theme_picker widget.  With --deck it applies the chosen theme via the
// remote service; without it just prints the selection.

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"slides2mcp/internal/slidesgpt"
	"slides2mcp/internal/themes"
)

type themeItem struct {
	theme themes.Theme
}

func (i themeItem) Title() string       { return i.theme.Name }
func (i themeItem) Description() string { return i.theme.Description }
func (i themeItem) FilterValue() string { return i.theme.Name + " " + i.theme.ID }

type applyDoneMsg struct {
	themeID string
	err     error
}

type pickerModel struct {
	list     list.Model
	spinner  spinner.Model
	client   *slidesgpt.Client
	deckID   string
	applying bool
	done     string
	err      error
}

func newPickerModel(catalog *themes.Catalog, client *slidesgpt.Client, deckID string) pickerModel {
	items := make([]list.Item, 0, len(catalog.All()))
	for _, t := range catalog.All() {
		items = append(items, themeItem{theme: t})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Pick a theme"
	l.SetShowStatusBar(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(clrBrand)

	return pickerModel{list: l, spinner: sp, client: client, deckID: deckID}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		if m.applying {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			item, ok := m.list.SelectedItem().(themeItem)
			if !ok {
				return m, nil
			}
			if m.deckID == "" {
				m.done = item.theme.ID
				return m, tea.Quit
			}
			m.applying = true
			return m, tea.Batch(m.spinner.Tick, m.applyCmd(item.theme.ID))
		}

	case spinner.TickMsg:
		if m.applying {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case applyDoneMsg:
		m.applying = false
		m.done = msg.themeID
		m.err = msg.err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.applying {
		return fmt.Sprintf("\n %s applying theme to deck %s…\n", m.spinner.View(), m.deckID)
	}
	return m.list.View()
}

func (m pickerModel) applyCmd(themeID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		_, err := m.client.ApplyTheme(ctx, m.deckID, themeID, slidesgpt.Identity{})
		return applyDoneMsg{themeID: themeID, err: err}
	}
}

func runThemePicker(catalog *themes.Catalog, client *slidesgpt.Client, deckID string) error {
	final, err := tea.NewProgram(newPickerModel(catalog, client, deckID), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	m, ok := final.(pickerModel)
	if !ok || m.done == "" {
		return nil
	}
	if m.err != nil {
		return fmt.Errorf("apply theme %s: %w", m.done, m.err)
	}
	if deckID != "" {
		fmt.Printf("applied theme %s to deck %s\n", m.done, deckID)
	} else {
		fmt.Printf("picked theme %s (pass --deck to apply it)\n", m.done)
	}
	return nil
}
