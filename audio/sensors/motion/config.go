package motion

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
)

// Parameters control how axis motion is mapped onto music. Rotation maxima are
// in the units of the sensor (degrees for orientation, degrees per second for
// a gyroscope).
type Parameters struct {
	BaseFrequency float64 `json:"baseFreq"`
	BPM           float64 `json:"bpm"`
	BPMSwing      float64 `json:"bpmSwing"`

	// TempoMax and PitchMax are a quarter period of the x axis mappings.
	TempoMax  float64 `json:"tempoMax"`
	PitchMax  float64 `json:"pitchMax"`
	PitchSpan float64 `json:"pitchSpan"`

	// RestMax is a quarter period of the z axis mapping onto [RestLow, RestHigh].
	RestMax  float64 `json:"restMax"`
	RestLow  float64 `json:"restLow"`
	RestHigh float64 `json:"restHigh"`

	// HarmonyWindow is the y axis averaging window in milliseconds.
	HarmonyWindow int     `json:"harmonyWindow"`
	HarmonyScale  float64 `json:"harmonyScale"`
	HarmonyOffset float64 `json:"harmonyOffset"`

	// Decay scales every axis' running sum once per tick; 1 disables it.
	Decay float64 `json:"decay"`
	// UseLatest drives pitch, tempo and rest from the latest reading instead
	// of the running sum.
	UseLatest bool `json:"useLatest"`

	Debug bool `json:"debug"`
}

// DefaultParameters suit a gyroscope sampled at 60Hz.
var DefaultParameters = Parameters{
	BaseFrequency: 440,
	BPM:           120,
	BPMSwing:      60,
	TempoMax:      360 / 8,
	PitchMax:      360 / 8,
	PitchSpan:     10,
	RestMax:       360 / 2,
	RestLow:       0.1,
	RestHigh:      0.9,
	HarmonyWindow: 250,
	HarmonyScale:  0.5,
	HarmonyOffset: 0.5,
	Decay:         1,
}

// Validate reports parameters that would make the mappings undefined.
func (p *Parameters) Validate() error {
	switch {
	case p.BaseFrequency <= 0:
		return errors.New("baseFreq must be positive")
	case p.BPM <= 0:
		return errors.New("bpm must be positive")
	case p.BPM-abs(p.BPMSwing) <= 0:
		return errors.New("bpmSwing must be smaller than bpm")
	case p.TempoMax == 0, p.PitchMax == 0, p.RestMax == 0:
		return errors.New("tempoMax, pitchMax and restMax must be non-zero")
	case p.RestLow < 0 || p.RestHigh > 1 || p.RestLow > p.RestHigh:
		return errors.New("rest range must lie within [0,1]")
	case p.HarmonyWindow <= 0:
		return errors.New("harmonyWindow must be positive")
	case p.HarmonyOffset <= 0:
		return errors.New("harmonyOffset must be positive")
	case !(p.Decay > 0 && p.Decay <= 1):
		return errors.New("decay must be in (0,1]")
	}
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Config is passed to initialize a Controller.
type Config struct {
	// TickPeriod is the nominal period of the tick driver, DefaultTickPeriod
	// when zero.
	TickPeriod time.Duration
	// HistorySize bounds each axis history; zero keeps every reading.
	HistorySize int
	// HistoryMaxAge evicts readings older than this; zero disables it.
	HistoryMaxAge time.Duration
	// Steps overrides the quantizer scale.
	Steps []float64

	Parameters *Parameters
}

// DefaultTickPeriod matches the 10ms polling interval of the gate.
const DefaultTickPeriod = 10 * time.Millisecond

// Validate checks the config and its parameters.
func (c *Config) Validate() error {
	if c.TickPeriod < 0 {
		return fmt.Errorf("tick period must not be negative, got %v", c.TickPeriod)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("history size must not be negative, got %d", c.HistorySize)
	}
	if c.HistoryMaxAge < 0 {
		return fmt.Errorf("history max age must not be negative, got %v", c.HistoryMaxAge)
	}
	for _, s := range c.Steps {
		if !(s > 0) {
			return fmt.Errorf("scale steps must be positive, got %v", c.Steps)
		}
	}
	if c.Parameters != nil {
		if err := c.Parameters.Validate(); err != nil {
			return fmt.Errorf("invalid parameters: %w", err)
		}
	}
	return nil
}

type saveConfig struct {
	Params *Parameters `json:"params"`
}

// SaveConfig to the given file
func (c *Controller) SaveConfig(conf string) error {
	params := c.Parameters()
	fp, err := os.Create(conf)
	if err != nil {
		return err
	}
	defer fp.Close()
	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	return enc.Encode(&saveConfig{Params: &params})
}

// LoadConfig from the given file. A missing file leaves the parameters as
// they are.
func (c *Controller) LoadConfig(conf string) error {
	fp, err := os.Open(conf)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer fp.Close()

	save := saveConfig{Params: new(Parameters)}
	*save.Params = c.Parameters()
	if err := json.NewDecoder(fp).Decode(&save); err != nil {
		return fmt.Errorf("decoding %s: %w", conf, err)
	}
	return c.SetParameters(*save.Params)
}

func (c *Controller) initGraphql() error {
	paramType, paramInput := newGraphqlType("ParamType", reflect.TypeOf(Parameters{}))
	axisType, _ := newGraphqlType("AxisType", reflect.TypeOf(AxisSnapshot{}))
	stateType, _ := newGraphqlType("StateType", reflect.TypeOf(TickState{}))

	rootQuery := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "RootQuery",
			Fields: graphql.Fields{
				"params": &graphql.Field{
					Type: paramType,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return c.Parameters(), nil
					},
				},
				"axes": &graphql.Field{
					Type: graphql.NewList(axisType),
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return c.Axes(), nil
					},
				},
				"state": &graphql.Field{
					Type: stateType,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return c.State(), nil
					},
				},
			},
		},
	)
	rootMut := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "RootMut",
			Fields: graphql.Fields{
				"params": &graphql.Field{
					Type: paramType,
					Args: graphql.FieldConfigArgument{
						"params": &graphql.ArgumentConfig{Type: paramInput},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						args, ok := p.Args["params"].(map[string]interface{})
						if !ok {
							return nil, errors.New("missing arg: params")
						}
						params := c.Parameters()
						if err := setByJSONTag(&params, args); err != nil {
							return nil, err
						}
						if err := c.SetParameters(params); err != nil {
							return nil, err
						}
						return params, nil
					},
				},
			},
		},
	)
	schema, err := graphql.NewSchema(
		graphql.SchemaConfig{
			Query:    rootQuery,
			Mutation: rootMut,
		},
	)
	if err != nil {
		return err
	}
	c.schema = schema
	return nil
}

// Query runs a graphql query or mutation against the controller.
func (c *Controller) Query(query string, vars map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         c.schema,
		RequestString:  query,
		VariableValues: vars,
	})
}

// newGraphqlType builds an output object and a matching input object from the
// json tagged scalar fields of a struct type.
func newGraphqlType(name string, ref reflect.Type) (*graphql.Object, *graphql.InputObject) {
	fields := graphql.Fields{}
	inputFields := graphql.InputObjectConfigFieldMap{}

	resolver := func(field int) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			src := reflect.Indirect(reflect.ValueOf(p.Source))
			if !src.IsValid() || src.Type() != ref {
				return nil, fmt.Errorf("unexpected %s source: %#v", name, p.Source)
			}
			return src.Field(field).Interface(), nil
		}
	}

	for tag, i := range newJSONTagFieldMap(ref) {
		var typ *graphql.Scalar
		switch ref.Field(i).Type.Kind() {
		case reflect.Bool:
			typ = graphql.Boolean
		case reflect.Float32, reflect.Float64:
			typ = graphql.Float
		case reflect.String:
			typ = graphql.String
		case reflect.Int, reflect.Int8, reflect.Int32, reflect.Int64:
			typ = graphql.Int
		default:
			panic(fmt.Sprint("unsupported type ", ref.Field(i).Type))
		}
		fields[tag] = &graphql.Field{Type: typ, Resolve: resolver(i)}
		inputFields[tag] = &graphql.InputObjectFieldConfig{Type: typ}
	}

	obj := graphql.NewObject(graphql.ObjectConfig{
		Name:   name,
		Fields: fields,
	})
	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   "input" + name,
		Fields: inputFields,
	})
	return obj, input
}

// setByJSONTag assigns values keyed by json tag to the fields of *dst.
func setByJSONTag(dst interface{}, vals map[string]interface{}) error {
	elem := reflect.ValueOf(dst).Elem()
	tagMap := newJSONTagFieldMap(elem.Type())
	for tag, val := range vals {
		i, ok := tagMap[tag]
		if !ok {
			return fmt.Errorf("unknown field: %s", tag)
		}
		field := elem.Field(i)
		v := reflect.ValueOf(val)
		if !v.IsValid() || !v.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("field %s: cannot use %#v", tag, val)
		}
		field.Set(v.Convert(field.Type()))
	}
	return nil
}

func jsonTag(f *reflect.StructField) string {
	t := f.Tag.Get("json")
	return strings.Split(t, ",")[0]
}

func newJSONTagFieldMap(ref reflect.Type) map[string]int {
	m := make(map[string]int)
	for i := 0; i < ref.NumField(); i++ {
		f := ref.Field(i)
		if tag := jsonTag(&f); tag != "" && tag != "-" {
			m[tag] = i
		}
	}
	return m
}
