// Package editor resolves, configures and launches external markdown editors.
package editor

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var nameRule = validation.Match(regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`))

// Definition describes how to find and start one editor.
//
// Executables are looked up on PATH in order; Paths are absolute locations
// that may contain glob patterns and $VAR references. Exactly one of Args and
// URI carries the {path} placeholder. URI editors are opened through the
// platform opener instead of their executable.
type Definition struct {
	Name         string            `yaml:"name" toml:"name"`
	DisplayName  string            `yaml:"display_name" toml:"display_name"`
	Executables  []string          `yaml:"executables" toml:"executables"`
	Paths        []string          `yaml:"paths" toml:"paths"`
	Args         []string          `yaml:"args" toml:"args"`
	URI          string            `yaml:"uri" toml:"uri"`
	SupportFiles map[string]string `yaml:"support_files" toml:"support_files"`
}

// Validate checks the definition and its argument template.
func (d *Definition) Validate() error {
	if err := validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required, nameRule),
		validation.Field(&d.Executables, validation.When(len(d.Paths) == 0 && d.URI == "", validation.Required)),
		validation.Field(&d.SupportFiles, validation.By(supportFileNames)),
	); err != nil {
		return err
	}
	return d.Template().Validate()
}

// Template returns the argument template of the definition.
func (d Definition) Template() Template {
	return Template{Args: d.Args, URI: d.URI}
}

// Title returns DisplayName, or Name when no display name is set.
func (d Definition) Title() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

func supportFileNames(value any) error {
	files, _ := value.(map[string]string)
	for name := range files {
		if !plainName(name) {
			return validation.NewError("validation_support_file", "support file names must be plain file names")
		}
	}
	return nil
}

func plainName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// riderDotSettings turns off Rider's auto-save so each explicit save is one
// change burst.
const riderDotSettings = `<wpf:ResourceDictionary xml:space="preserve" xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml" xmlns:s="clr-namespace:System;assembly=mscorlib" xmlns:ss="urn:shemas-jetbrains-com:settings-storage-xaml" xmlns:wpf="http://schemas.microsoft.com/winfx/2006/xaml/presentation">
  <s:Boolean x:Key="/Default/Environment/AutoSave/@EntryValue">False</s:Boolean>
</wpf:ResourceDictionary>
`

// Defaults returns the built-in editor set in preference order.
func Defaults() []Definition {
	return []Definition{
		{
			Name:        "vscode",
			DisplayName: "Visual Studio Code",
			Executables: []string{"code", "code-insiders"},
			Paths: []string{
				"/Applications/Visual Studio Code.app/Contents/Resources/app/bin/code",
				"$LOCALAPPDATA/Programs/Microsoft VS Code/Code.exe",
				"C:/Program Files/Microsoft VS Code/Code.exe",
				"C:/Program Files (x86)/Microsoft VS Code/Code.exe",
			},
			Args: []string{"--wait", Placeholder},
		},
		{
			Name:        "rider",
			DisplayName: "JetBrains Rider",
			Executables: []string{"rider", "rider.sh", "rider64.exe"},
			Paths: []string{
				"/Applications/Rider.app/Contents/MacOS/rider",
				"$HOME/.local/share/JetBrains/Toolbox/scripts/rider",
				"C:/Program Files/JetBrains/JetBrains Rider*/bin/rider64.exe",
			},
			Args:         []string{Placeholder},
			SupportFiles: map[string]string{"Default.DotSettings": riderDotSettings},
		},
		{
			Name:        "typora",
			DisplayName: "Typora",
			Executables: []string{"typora", "Typora.exe"},
			Paths: []string{
				"/Applications/Typora.app/Contents/MacOS/Typora",
				"C:/Program Files/Typora/Typora.exe",
				"C:/Program Files (x86)/Typora/Typora.exe",
			},
			Args: []string{Placeholder},
		},
		{
			Name:        "markdownmonster",
			DisplayName: "Markdown Monster",
			Executables: []string{"MarkdownMonster.exe", "mm"},
			Paths:       []string{"C:/Program Files/Markdown Monster/MarkdownMonster.exe"},
			Args:        []string{Placeholder},
		},
		{
			Name:        "obsidian",
			DisplayName: "Obsidian",
			Executables: []string{"obsidian", "Obsidian.exe"},
			Paths: []string{
				"/Applications/Obsidian.app/Contents/MacOS/Obsidian",
				"$LOCALAPPDATA/Obsidian/Obsidian.exe",
			},
			URI: "obsidian://open?path=" + Placeholder,
		},
		{
			Name:        "notepad",
			DisplayName: "Notepad",
			Executables: []string{"notepad.exe"},
			Paths:       []string{"C:/Windows/System32/notepad.exe"},
			Args:        []string{Placeholder},
		},
	}
}

// Merge overlays configured definitions on base. A configured definition
// replaces the base entry with the same name in place; new names are
// appended in configured order.
func Merge(base, configured []Definition) []Definition {
	out := make([]Definition, len(base), len(base)+len(configured))
	copy(out, base)
	index := make(map[string]int, len(out))
	for i, d := range out {
		index[strings.ToLower(d.Name)] = i
	}
	for _, d := range configured {
		if i, ok := index[strings.ToLower(d.Name)]; ok {
			out[i] = d
			continue
		}
		index[strings.ToLower(d.Name)] = len(out)
		out = append(out, d)
	}
	return out
}
