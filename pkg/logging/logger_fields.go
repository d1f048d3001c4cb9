package logging

import "time"

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration renders d in Go duration syntax ("1.5s").
func Duration(key string, d time.Duration) Field { return Field{Key: key, Value: d.String()} }

// Error records err's message under "error"; a nil err records null.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error"}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Component names the subsystem emitting the line.
func Component(name string) Field { return String("component", name) }

// State is a model state name.
func State(name string) Field { return String("state", name) }

func SequenceID(id string) Field { return String("sequence_id", id) }

// Length is the residue count of a sequence.
func Length(n int) Field { return Int("length", n) }

// Method is the decoding method, viterbi or posterior.
func Method(name string) Field { return String("method", name) }

// Alpha is the end smoothing constant.
func Alpha(a float64) Field { return Float64("alpha", a) }

func Latency(d time.Duration) Field { return Duration("latency", d) }

func Count(n int) Field { return Int("count", n) }

func Path(p string) Field { return String("path", p) }
