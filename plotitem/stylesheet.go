package plotitem

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"fmt"
	"image/color"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// FormatStylesheet renders s as a CSS-like "key: value;" declaration
// block, the text form an item's "stylesheet" attribute carries across
// the archive and the node graph (see AnyData's fingerprinted attribute
// set).
func FormatStylesheet(s Style) string {
	props := map[string]string{
		"pen-color":    hexColor(s.Pen.Color),
		"pen-width":    strconv.FormatFloat(s.Pen.Width, 'g', -1, 64),
		"brush-color":  hexColor(s.Brush.Color),
		"brush-hatch":  s.Brush.Hatch,
		"text-color":   hexColor(s.Text.Color),
		"text-size":    strconv.FormatFloat(s.Text.FontSize, 'g', -1, 64),
		"text-bold":    strconv.FormatBool(s.Text.Bold),
		"box-style":    s.BoxStyle,
		"draw-text":    strconv.FormatBool(s.DrawText),
	}

	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		fmt.Fprintf(&b, "%s: %s;\n", k, props[k])
	}
	return b.String()
}

// ParseStylesheet parses the text form produced by FormatStylesheet back
// into a Style. Unknown declarations are ignored; malformed ones are
// skipped rather than erroring, matching the source system's lenient
// stylesheet parser.
func ParseStylesheet(text string) Style {
	var s Style
	for _, line := range strings.Split(text, ";") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])

		switch key {
		case "pen-color":
			s.Pen.Color = parseHexColor(val)
		case "pen-width":
			s.Pen.Width, _ = strconv.ParseFloat(val, 64)
		case "brush-color":
			s.Brush.Color = parseHexColor(val)
		case "brush-hatch":
			s.Brush.Hatch = val
		case "text-color":
			s.Text.Color = parseHexColor(val)
		case "text-size":
			s.Text.FontSize, _ = strconv.ParseFloat(val, 64)
		case "text-bold":
			s.Text.Bold, _ = strconv.ParseBool(val)
		case "box-style":
			s.BoxStyle = val
		case "draw-text":
			s.DrawText, _ = strconv.ParseBool(val)
		}
	}
	return s
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func parseHexColor(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 8 {
		return color.RGBA{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16 & 0xff),
		B: uint8(v >> 8 & 0xff),
		A: uint8(v & 0xff),
	}
}

// Selector matches a set of items by family ("type"), optional state
// ("type:state"), and optional attribute presence ("type[prop]"). Any
// component left empty matches unconditionally; the three compose, so
// "curve:selected[roi]" matches a selected curve carrying a "roi"
// attribute. This is the source system's style-sheet selector grammar
// (VipPlotItem's "className[:state][prop]").
type Selector struct {
	ClassName string
	State     string
	Prop      string
}

var selectorPattern = regexp.MustCompile(`^([A-Za-z_][\w-]*)?(?::([A-Za-z_][\w-]*))?(?:\[([A-Za-z_][\w-]*)\])?$`)

// ParseSelector parses one selector in "type", "type:state", "type[prop]"
// form (components may combine). It reports false for text matching none
// of these forms.
func ParseSelector(text string) (Selector, bool) {
	m := selectorPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Selector{}, false
	}
	return Selector{ClassName: m[1], State: m[2], Prop: m[3]}, true
}

// matches reports whether item satisfies sel.
func (sel Selector) matches(item PlotItem) bool {
	if sel.ClassName != "" && item.ClassName() != sel.ClassName {
		return false
	}
	if sel.State != "" {
		switch sel.State {
		case "selected":
			if !item.Selected() {
				return false
			}
		default:
			return false
		}
	}
	if sel.Prop != "" {
		a, ok := item.(Attributer)
		if !ok {
			return false
		}
		if _, ok := a.Attribute(sel.Prop); !ok {
			return false
		}
	}
	return true
}

// Decl is one "name: value" assignment inside a style-sheet rule.
type Decl struct {
	Name  string
	Value string
}

// Rule is a compiled style-sheet rule: a selector plus the declarations
// applied, in order, to every item it matches.
type Rule struct {
	Selector Selector
	Decls    []Decl
}

// StyleSheet is a compiled, ordered list of rules, the parsed form of a
// style-sheet's text.
type StyleSheet struct {
	Rules []Rule
}

var styleSheetBlockPattern = regexp.MustCompile(`(?s)([^{}]+)\{([^{}]*)\}`)

// ParseStyleSheet compiles a style-sheet's text into an ordered rule
// list. The grammar is a sequence of "selector { name: value; ... }"
// blocks; a selector that fails to parse or a block with no valid
// declarations is skipped rather than erroring, matching
// ParseStylesheet's lenient-parser precedent.
func ParseStyleSheet(text string) *StyleSheet {
	ss := &StyleSheet{}
	for _, m := range styleSheetBlockPattern.FindAllStringSubmatch(text, -1) {
		sel, ok := ParseSelector(m[1])
		if !ok {
			continue
		}
		var decls []Decl
		for _, line := range strings.Split(m[2], ";") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			parts := strings.SplitN(line, ":", 2)
			if len(parts) != 2 {
				continue
			}
			decls = append(decls, Decl{
				Name:  strings.TrimSpace(parts[0]),
				Value: strings.TrimSpace(parts[1]),
			})
		}
		if len(decls) == 0 {
			continue
		}
		ss.Rules = append(ss.Rules, Rule{Selector: sel, Decls: decls})
	}
	return ss
}

// Apply walks rules in declaration order, calling SetItemProperty on
// every item each rule's selector matches; a later rule's declaration
// for the same property overrides an earlier one, matching a CSS-style
// cascade. index passed to SetItemProperty is the item's position in
// items, letting a comma-separated value cycle across the matched set.
func (ss *StyleSheet) Apply(items []PlotItem) {
	for _, rule := range ss.Rules {
		for i, item := range items {
			if !rule.Selector.matches(item) {
				continue
			}
			for _, d := range rule.Decls {
				item.SetItemProperty(d.Name, d.Value, i)
			}
		}
	}
}
