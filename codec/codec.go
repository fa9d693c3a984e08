// Package codec encodes elements for checkpoints.
//
// A checkpoint manifest records the codec name, so changing Default never
// breaks existing checkpoints: Restore looks the codec up with ByName.
package codec

import (
	"fmt"
	"slices"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var builtin = map[string]Codec{
	JSON{}.Name():    JSON{},
	GoJSON{}.Name():  GoJSON{},
	MsgPack{}.Name(): MsgPack{},
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	c, ok := builtin[name]
	return c, ok
}

// Names lists the built-in codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MustMarshal marshals v or panics. Nil c selects Default.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

// Default is the codec for new checkpoints.
var Default Codec = GoJSON{}
