/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The GigaGrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings of the grid browser.
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Home        key.Binding
	End         key.Binding
	Left        key.Binding
	Right       key.Binding
	Toggle      key.Binding
	Select      key.Binding
	SelectCell  key.Binding
	Sort        key.Binding
	Group       key.Binding
	Filter      key.Binding
	CollapseAll key.Binding
	ExpandAll   key.Binding
	Settings    key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn", "page down")),
		Home:        key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		End:         key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
		Toggle:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("⏎", "collapse/expand")),
		Select:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "select row")),
		SelectCell:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "select cell")),
		Sort:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort by column")),
		Group:       key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "group by column")),
		Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		CollapseAll: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "collapse all")),
		ExpandAll:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "expand all")),
		Settings:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "settings")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Sort, k.Group, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Left, k.Right, k.Toggle, k.CollapseAll, k.ExpandAll},
		{k.Select, k.SelectCell, k.Sort, k.Group, k.Filter},
		{k.Settings, k.Help, k.Quit},
	}
}
