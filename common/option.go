package common

import (
	"github.com/spf13/cast"
)

// Options is a loosely-typed bag used by embedders that construct a
// session without going through YAML config (e.g. host-language bindings
// passing values straight from their own config objects).
type Options map[string]any

func NewOptions() Options {
	return make(Options)
}

func (o Options) GetInt(k string) (int, error) {
	return cast.ToIntE(o[k])
}

func (o Options) GetBool(k string) (bool, error) {
	return cast.ToBoolE(o[k])
}

func (o Options) GetString(k string) (string, error) {
	return cast.ToStringE(o[k])
}

func (o Options) Merge(k string, v any) {
	o[k] = v
}
