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

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan  = lipgloss.Color("36")
	colorRed   = lipgloss.Color("167")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
	colorSel   = lipgloss.Color("24")
)

var (
	styleTitle      = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHeader     = lipgloss.NewStyle().Bold(true).Foreground(colorGray)
	styleHeaderCur  = styleHeader.Foreground(colorCyan).Underline(true)
	styleSubtotal   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleDetail     = lipgloss.NewStyle()
	styleSelected   = lipgloss.NewStyle().Background(colorSel)
	styleCursor     = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleCellSel    = lipgloss.NewStyle().Reverse(true)
	styleStatus     = lipgloss.NewStyle().Foreground(colorDim)
	styleError      = lipgloss.NewStyle().Foreground(colorRed)
	styleSettingBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)
