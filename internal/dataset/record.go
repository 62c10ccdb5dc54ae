package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Record is one entry of a model results file. Records are read once and
// never mutated.
type Record struct {
	ID          ID                    `json:"id"`
	Category    Category              `json:"category"`
	Subcategory string                `json:"subcategory,omitempty"`
	Data        map[string]any        `json:"data"`
	Output      Output                `json:"output"`
	Outputs     map[string]StepOutput `json:"outputs,omitempty"`
	TextPrompt  *string               `json:"Text_Prompt,omitempty"`
	Error       Flag                  `json:"error,omitempty"`
	Choice      []string              `json:"choice,omitempty"`
	Answer      string                `json:"answer,omitempty"`
}

// Prompt returns the text prompt, or "" when the record has none.
func (r *Record) Prompt() string {
	if r.TextPrompt == nil {
		return ""
	}
	return *r.TextPrompt
}

// DataString returns data[key] when it is a non-empty string.
func (r *Record) DataString(key string) (string, bool) {
	v, ok := r.Data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Label identifies the record in log lines.
func (r *Record) Label() string {
	if r.ID == "" {
		return "N/A"
	}
	return string(r.ID)
}

// ID accepts both string and numeric identifiers.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Flag is the upstream error marker. Numbers, booleans and numeric strings
// are accepted; anything non-zero means the generation stage failed.
type Flag int

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		*f = 0
		return nil
	case bytes.Equal(b, []byte("true")):
		*f = 1
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 1
			return nil
		}
		*f = flagFromFloat(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("error flag: %w", err)
	}
	*f = flagFromFloat(n)
	return nil
}

func flagFromFloat(n float64) Flag {
	if n == 0 {
		return 0
	}
	if n == float64(int(n)) {
		return Flag(int(n))
	}
	return 1
}

// Output is either a bare path or an object carrying an image path and an
// explanation.
type Output struct {
	Path        string `json:"-"`
	Image       string `json:"output_image,omitempty"`
	Explanation string `json:"output_explanation,omitempty"`
	isObject    bool
}

func (o *Output) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*o = Output{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = Output{Path: s}
		return nil
	}
	var obj struct {
		Image       *string `json:"output_image"`
		Explanation *string `json:"output_explanation"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	out := Output{isObject: true}
	if obj.Image != nil {
		out.Image = *obj.Image
	}
	if obj.Explanation != nil {
		out.Explanation = *obj.Explanation
	}
	*o = out
	return nil
}

func (o Output) MarshalJSON() ([]byte, error) {
	if !o.isObject {
		return json.Marshal(o.Path)
	}
	return json.Marshal(struct {
		Image       string `json:"output_image"`
		Explanation string `json:"output_explanation"`
	}{o.Image, o.Explanation})
}

// IsObject reports whether the output was given as an object.
func (o Output) IsObject() bool { return o.isObject }

// MediaPath is the generated media path: the bare path, or output_image when
// the output is an object.
func (o Output) MediaPath() string {
	if o.isObject {
		return o.Image
	}
	return o.Path
}

// Empty reports whether the record carries no output at all.
func (o Output) Empty() bool {
	return o.Path == "" && o.Image == "" && o.Explanation == ""
}

// StepOutput is the model output for one step of a multi-step task.
type StepOutput struct {
	Action   any    `json:"output_action"`
	Location []any  `json:"output_location"`
	Image    string `json:"output_image"`
}

// Load reads a JSON array of records.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results %s: %w", path, err)
	}
	records, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing results %s: %w", path, err)
	}
	return records, nil
}

// Parse decodes a JSON array of records.
func Parse(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
