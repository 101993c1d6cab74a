package netlist

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/pkg/errors"
)

var ErrSyntax = errors.New("netlist syntax error")

type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisTRAN
	AnalysisDC
)

func (a AnalysisType) String() string {
	switch a {
	case AnalysisTRAN:
		return "tran"
	case AnalysisDC:
		return "dc"
	}
	return "op"
}

type NetlistData struct {
	Elements  []Element                    // Circuit elements
	Nodes     map[string]int               // Node name and order of appearance
	Models    map[string]device.ModelParam // Model parameters
	Options   map[string]string            // .options key=value
	Analysis  AnalysisType                 // Analysis type
	TranParam struct {
		TStep  float64 // timestep
		TStop  float64 // stop time
		TStart float64 // start time
	}
	DCParam struct {
		Source1    string
		Start1     float64
		Stop1      float64
		Increment1 float64
		Source2    string
		Start2     float64
		Stop2      float64
		Increment2 float64
	}
	Title string // Circuit title
}

type Element struct {
	Type   string            // Part type (R, L, C, V, etc.)
	Name   string            // Part name
	Nodes  []string          // Node names
	Value  float64           // Part value
	Params map[string]string // Parameter values
}

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"t":   1e12,  // tera
	"G":   1e9,   // giga
	"g":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"M":   1e-3,  // milli, as in SPICE
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

// Unit names allowed after the scale factor.
var unitNames = map[string]bool{
	"": true, "v": true, "a": true, "s": true, "f": true, "h": true,
	"hz": true, "ohm": true, "ohms": true, "w": true,
}

// Node counts per element letter.
var nodeCount = map[string]int{
	"R": 2, "C": 2, "L": 2, "V": 2, "I": 2, "D": 2, "S": 2,
	"Q": 3,
	"W": 4, "E": 4, "F": 4, "G": 4, "H": 4,
}

var (
	spaces     = regexp.MustCompile(`\s+`)
	valueRegex = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)([a-zA-Z]*)$`)
)

func syntaxError(line int, format string, args ...interface{}) error {
	return errors.Wrapf(ErrSyntax, "line %d: "+format, append([]interface{}{line}, args...)...)
}

func Parse(input string) (*NetlistData, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	netlistData := &NetlistData{
		Nodes:   make(map[string]int),
		Models:  make(map[string]device.ModelParam),
		Options: make(map[string]string),
	}

	// Title or comment
	lineNo := 0
	if scanner.Scan() {
		lineNo++
		netlistData.Title = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "*"))
	}

	var currentLine string
	currentNo := 0
	flush := func() error {
		if currentLine == "" {
			return nil
		}
		err := parseLine(netlistData, currentNo, currentLine)
		currentLine = ""
		return err
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Inline comment
		if idx := strings.IndexAny(line, "*;"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if len(line) == 0 {
			continue
		}

		// Line continue
		if strings.HasPrefix(line, "+") {
			if currentLine == "" {
				return nil, syntaxError(lineNo, "continuation without a statement")
			}
			currentLine += " " + strings.TrimSpace(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		if strings.EqualFold(line, ".end") {
			break
		}
		currentLine, currentNo = line, lineNo
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading netlist")
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return netlistData, nil
}

func parseLine(netlistData *NetlistData, lineNo int, line string) error {
	line = spaces.ReplaceAllString(line, " ")

	if strings.HasPrefix(line, ".") {
		return parseDotOperator(netlistData, lineNo, line)
	}

	element, err := parseElement(lineNo, line)
	if err != nil {
		return err
	}

	netlistData.Elements = append(netlistData.Elements, *element)
	for _, node := range element.Nodes {
		if _, exists := netlistData.Nodes[node]; !exists {
			netlistData.Nodes[node] = len(netlistData.Nodes)
		}
	}
	return nil
}

// Parse .op, .tran, .dc, .model, .options
func parseDotOperator(netlistData *NetlistData, lineNo int, line string) error {
	fields := strings.Fields(line)
	values := func(from int, names ...string) ([]float64, error) {
		out := make([]float64, len(names))
		for i, name := range names {
			v, err := ParseValue(fields[from+i])
			if err != nil {
				return nil, syntaxError(lineNo, "invalid %s: %v", name, err)
			}
			out[i] = v
		}
		return out, nil
	}

	switch strings.ToLower(fields[0]) {
	case ".model":
		return parseModel(netlistData, lineNo, fields[1:])

	case ".options", ".option":
		for _, f := range fields[1:] {
			kv := strings.SplitN(f, "=", 2)
			if len(kv) != 2 {
				return syntaxError(lineNo, "option %q is not key=value", f)
			}
			netlistData.Options[strings.ToLower(kv[0])] = kv[1]
		}

	case ".op":
		netlistData.Analysis = AnalysisOP

	case ".tran":
		netlistData.Analysis = AnalysisTRAN
		if len(fields) < 3 {
			return syntaxError(lineNo, "insufficient tran parameters, need at least tstep and tstop")
		}
		v, err := values(1, "tstep", "tstop")
		if err != nil {
			return err
		}
		netlistData.TranParam.TStep, netlistData.TranParam.TStop = v[0], v[1]
		if len(fields) > 3 {
			v, err := values(3, "tstart")
			if err != nil {
				return err
			}
			netlistData.TranParam.TStart = v[0]
		}

	case ".dc":
		netlistData.Analysis = AnalysisDC
		if len(fields) != 5 && len(fields) != 9 {
			return syntaxError(lineNo, "insufficient DC sweep parameters")
		}

		netlistData.DCParam.Source1 = fields[1]
		v, err := values(2, "start", "stop", "increment")
		if err != nil {
			return err
		}
		netlistData.DCParam.Start1, netlistData.DCParam.Stop1, netlistData.DCParam.Increment1 = v[0], v[1], v[2]

		if len(fields) == 9 {
			netlistData.DCParam.Source2 = fields[5]
			v, err := values(6, "start", "stop", "increment")
			if err != nil {
				return err
			}
			netlistData.DCParam.Start2, netlistData.DCParam.Stop2, netlistData.DCParam.Increment2 = v[0], v[1], v[2]
		}

	default:
		return syntaxError(lineNo, "unsupported command %s", fields[0])
	}

	return nil
}

// parseModel reads ".model name type(k=v ...)" with or without the
// parentheses.
func parseModel(netlistData *NetlistData, lineNo int, fields []string) error {
	if len(fields) < 2 {
		return syntaxError(lineNo, "insufficient model parameters")
	}

	modelName := fields[0]
	rest := strings.Join(fields[1:], " ")
	rest = strings.NewReplacer("(", " ", ")", " ").Replace(rest)
	words := strings.Fields(rest)
	if len(words) == 0 {
		return syntaxError(lineNo, "model %s has no type", modelName)
	}

	modelType := strings.ToUpper(words[0])
	params := make(map[string]float64)
	switch modelType {
	case "D":
		params["is"] = 1e-6 // Saturation current
		params["n"] = 1.0   // Emission coefficient
	case "NPN", "PNP":
		params["is"] = 1e-6 // Transport saturation current
		params["bf"] = 100  // Forward beta
	default:
		return syntaxError(lineNo, "unsupported model type: %s", modelType)
	}

	for _, pair := range words[1:] {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			return syntaxError(lineNo, "model parameter %q is not key=value", pair)
		}
		value, err := ParseValue(parts[1])
		if err != nil {
			return syntaxError(lineNo, "invalid parameter value %s: %v", pair, err)
		}
		params[strings.ToLower(parts[0])] = value
	}

	netlistData.Models[modelName] = device.ModelParam{
		Type:   modelType,
		Name:   modelName,
		Params: params,
	}
	return nil
}

// Parse circuit element
func parseElement(lineNo int, line string) (*Element, error) {
	fields := strings.Fields(line)
	elem := &Element{
		Name:   fields[0],
		Type:   strings.ToUpper(fields[0][:1]),
		Params: make(map[string]string),
	}

	n, ok := nodeCount[elem.Type]
	if !ok {
		return nil, syntaxError(lineNo, "unsupported element %s", elem.Name)
	}
	if len(fields) < n+1 {
		return nil, syntaxError(lineNo, "%s needs %d nodes", elem.Name, n)
	}
	elem.Nodes = fields[1 : n+1]
	rest := fields[n+1:]

	switch elem.Type {
	case "V", "I":
		if err := parseSource(lineNo, elem, rest); err != nil {
			return nil, err
		}
		return elem, nil

	case "D", "Q":
		if len(rest) > 0 {
			elem.Params["model"] = rest[0]
		}
		return elem, nil

	case "S":
		elem.Params["state"] = "closed"
		if len(rest) > 0 {
			state := strings.ToLower(rest[0])
			if state != "open" && state != "closed" {
				return nil, syntaxError(lineNo, "switch state must be open or closed, got %s", rest[0])
			}
			elem.Params["state"] = state
		}
		return elem, nil

	case "W":
		return elem, parseParams(lineNo, elem, rest)
	}

	// R, C, L and controlled sources: value then key=value parameters
	if len(rest) == 0 {
		return nil, syntaxError(lineNo, "%s has no value", elem.Name)
	}
	value, err := ParseValue(rest[0])
	if err != nil {
		return nil, syntaxError(lineNo, "%s: %v", elem.Name, err)
	}
	elem.Value = value
	return elem, parseParams(lineNo, elem, rest[1:])
}

func parseParams(lineNo int, elem *Element, fields []string) error {
	for _, f := range fields {
		pair := strings.SplitN(f, "=", 2)
		if len(pair) != 2 {
			return syntaxError(lineNo, "%s: parameter %q is not key=value", elem.Name, f)
		}
		elem.Params[strings.ToLower(pair[0])] = pair[1]
	}
	return nil
}

func parseSource(lineNo int, elem *Element, fields []string) error {
	remaining := strings.Join(fields, " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ") // Append whitespace around parentheses
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	words := strings.Fields(remaining)
	if len(words) == 0 {
		return syntaxError(lineNo, "%s: missing source value", elem.Name)
	}

	kind := strings.ToLower(words[0])
	switch kind {
	case "dc":
		if len(words) < 2 {
			return syntaxError(lineNo, "%s: missing DC value", elem.Name)
		}
		words = words[1:]
		fallthrough

	default:
		value, err := ParseValue(words[0])
		if err != nil {
			return syntaxError(lineNo, "%s: unsupported source %s", elem.Name, words[0])
		}
		elem.Params["type"] = "dc"
		elem.Value = value

	case "sin", "square", "pulse", "pwl":
		if elem.Type != "V" {
			return syntaxError(lineNo, "%s: %s is only supported on voltage sources", elem.Name, strings.ToUpper(kind))
		}
		elem.Params["type"] = kind
		elem.Params[kind] = strings.Trim(strings.Join(words[1:], " "), "() ")
	}
	return nil
}

// ParseValue - Parse value and factor. 1k -> 1000
//
// A scale factor may be followed by a unit name (10uF, 100ms); any other
// trailing letters are rejected.
func ParseValue(val string) (float64, error) {
	matches := valueRegex.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, errors.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, errors.Wrapf(err, "value %s", val)
	}

	// factor
	suffix := matches[2]
	if len(suffix) >= 3 && strings.EqualFold(suffix[:3], "meg") {
		num *= unitMap["meg"]
		suffix = suffix[3:]
	} else if len(suffix) > 0 {
		if multiplier, ok := unitMap[suffix[:1]]; ok {
			num *= multiplier
			suffix = suffix[1:]
		}
	}
	if !unitNames[strings.ToLower(suffix)] {
		return 0, errors.Errorf("unknown suffix %q in value %s", suffix, val)
	}

	return num, nil
}

func parseFloats(params string, min, max int, what string) ([]float64, error) {
	fields := strings.Fields(params)
	if len(fields) < min || (max > 0 && len(fields) > max) {
		return nil, errors.Errorf("%s takes %d to %d parameters, got %d", what, min, max, len(fields))
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := ParseValue(f)
		if err != nil {
			return nil, errors.Wrapf(err, "%s parameter %d", what, i+1)
		}
		out[i] = v
	}
	return out, nil
}

// parseWaveform builds the time function of a SIN, SQUARE, PULSE or PWL
// source from its parenthesised parameters.
func parseWaveform(kind, params string) (device.Waveform, error) {
	switch kind {
	case "sin":
		v, err := parseFloats(params, 3, 4, "SIN")
		if err != nil {
			return nil, err
		}
		s := &device.Sine{Offset: v[0], Amplitude: v[1], Frequency: v[2]}
		if len(v) > 3 {
			s.Phase = v[3]
		}
		return s, nil

	case "square":
		v, err := parseFloats(params, 2, 4, "SQUARE")
		if err != nil {
			return nil, err
		}
		s := &device.Square{Amplitude: v[0], Frequency: v[1], Duty: 0.5}
		if len(v) > 2 {
			s.Duty = v[2]
		}
		if len(v) > 3 {
			s.Offset = v[3]
		}
		return s, nil

	case "pulse":
		v, err := parseFloats(params, 7, 7, "PULSE")
		if err != nil {
			return nil, err
		}
		return &device.Pulse{V1: v[0], V2: v[1], Delay: v[2], Rise: v[3], Fall: v[4], Width: v[5], Period: v[6]}, nil

	case "pwl":
		v, err := parseFloats(params, 4, 0, "PWL")
		if err != nil {
			return nil, err
		}
		if len(v)%2 != 0 {
			return nil, errors.New("PWL needs pairs of time-value")
		}
		p := &device.PWL{}
		for i := 0; i < len(v); i += 2 {
			if i > 0 && v[i] <= v[i-2] {
				return nil, errors.New("PWL time points must be strictly increasing")
			}
			p.Times = append(p.Times, v[i])
			p.Values = append(p.Values, v[i+1])
		}
		return p, nil
	}
	return nil, errors.Errorf("unsupported waveform %s", kind)
}
