// Package render builds the status document: the single message a room
// sees for its game. Documents are plain values derived from game state
// and are serialized only by the gateway.
package render

import "strings"

const (
	ColorGreen    = "green"
	ColorGrey     = "dark_grey"
	ColorOrange   = "orange"
	ColorYellow   = "yellow"
	blank         = "\u200b"
	ControlButton = "button"
	ControlSelect = "select"
)

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Option struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
}

// Control is an interactive affordance attached to the document.
type Control struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Label     string   `json:"label"`
	Emoji     string   `json:"emoji,omitempty"`
	Options   []Option `json:"options,omitempty"`
	MaxValues int      `json:"max_values,omitempty"`
}

type Document struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Fields      []Field   `json:"fields"`
	Controls    []Control `json:"controls,omitempty"`
	Reactions   []string  `json:"reactions,omitempty"`
}

// Field finds a field by case-insensitive name.
func (d *Document) Field(name string) (int, *Field) {
	for i := range d.Fields {
		if strings.EqualFold(d.Fields[i].Name, name) {
			return i, &d.Fields[i]
		}
	}
	return -1, nil
}

// Set overwrites the value of a named field, keeping its position and
// inline flag. It reports false when no such field exists.
func (d *Document) Set(name, value string) bool {
	_, f := d.Field(name)
	if f == nil {
		return false
	}
	f.Value = value
	return true
}

func (d *Document) add(name, value string, inline bool) {
	d.Fields = append(d.Fields, Field{Name: name, Value: value, Inline: inline})
}

// Clone returns a deep copy so published documents are never aliased.
func (d Document) Clone() Document {
	out := d
	out.Fields = append([]Field(nil), d.Fields...)
	out.Reactions = append([]string(nil), d.Reactions...)
	if d.Controls != nil {
		out.Controls = make([]Control, len(d.Controls))
		for i, c := range d.Controls {
			c.Options = append([]Option(nil), c.Options...)
			out.Controls[i] = c
		}
	}
	return out
}
