package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Component names the emitting package
func Component(name string) Field {
	return String("component", name)
}

// Algorithm names the running graph algorithm
func Algorithm(name string) Field {
	return String("algorithm", name)
}

// RunID correlates all entries of one computation
func RunID(id string) Field {
	return String("run_id", id)
}

func NodeCount(n int) Field {
	return Int("node_count", n)
}

func Partitions(n int) Field {
	return Int("partitions", n)
}

func Iteration(i int) Field {
	return Int("iteration", i)
}

func Phase(name string) Field {
	return String("phase", name)
}

func Wave(i int) Field {
	return Int("wave", i)
}

func Depth(d int) Field {
	return Int("depth", d)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
