package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Connect    key.Binding
	Off        key.Binding
	Level25    key.Binding
	Level50    key.Binding
	Level75    key.Binding
	Level100   key.Binding
	PoleUp     key.Binding
	PoleDown   key.Binding
	PowerOn    key.Binding
	PowerOff   key.Binding
	Disconnect key.Binding
	Logs       key.Binding
	Quit       key.Binding

	// device list
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Close  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Connect:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
		Off:        key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "off")),
		Level25:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1-4", "25-100%")),
		Level50:    key.NewBinding(key.WithKeys("2")),
		Level75:    key.NewBinding(key.WithKeys("3")),
		Level100:   key.NewBinding(key.WithKeys("4")),
		PoleUp:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u/d", "pole")),
		PoleDown:   key.NewBinding(key.WithKeys("d")),
		PowerOn:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p/P", "radio on/off")),
		PowerOff:   key.NewBinding(key.WithKeys("P")),
		Disconnect: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "disconnect")),
		Logs:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "move")),
		Down:   key.NewBinding(key.WithKeys("down", "j")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// ShortHelp implements help.KeyMap for the main screen.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Connect, k.Level25, k.PoleUp, k.Off, k.PowerOn, k.Disconnect, k.Logs, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), k.listHelp()}
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Select, k.Close}
}

// listKeys shows the device list bindings in the help line.
type listKeys struct{ keyMap }

func (k listKeys) ShortHelp() []key.Binding { return k.listHelp() }
