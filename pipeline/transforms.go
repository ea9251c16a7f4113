package pipeline

import (
	"bytes"
	"sort"
	"sync"

	"github.com/kbukum/pullstream/errors"
)

// Built-in transforms map one byte to one byte: a chunk boundary may split a
// multi-byte rune, so only ASCII letters are changed and every other byte
// passes through untouched.

// Upper maps ASCII letters to upper case.
func Upper(in []byte) ([]byte, error) {
	return mapBytes(in, func(b byte) byte {
		if b >= 'a' && b <= 'z' {
			return b - ('a' - 'A')
		}
		return b
	}), nil
}

// Lower maps ASCII letters to lower case.
func Lower(in []byte) ([]byte, error) {
	return mapBytes(in, func(b byte) byte {
		if b >= 'A' && b <= 'Z' {
			return b + ('a' - 'A')
		}
		return b
	}), nil
}

// Identity returns a copy of its input.
func Identity(in []byte) ([]byte, error) { return bytes.Clone(in), nil }

// ROT13 rotates ASCII letters by 13 places.
func ROT13(in []byte) ([]byte, error) {
	return mapBytes(in, func(b byte) byte {
		switch {
		case b >= 'a' && b <= 'z':
			return 'a' + (b-'a'+13)%26
		case b >= 'A' && b <= 'Z':
			return 'A' + (b-'A'+13)%26
		default:
			return b
		}
	}), nil
}

func mapBytes(in []byte, fn func(byte) byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = fn(b)
	}
	return out
}

var transforms = struct {
	mu  sync.RWMutex
	fns map[string]TransformFunc
}{
	fns: map[string]TransformFunc{
		"upper":    Upper,
		"lower":    Lower,
		"identity": Identity,
		"rot13":    ROT13,
	},
}

// RegisterTransform makes fn available to ChainNamed and configuration under name.
// Registering an existing name replaces it.
func RegisterTransform(name string, fn TransformFunc) {
	transforms.mu.Lock()
	defer transforms.mu.Unlock()
	transforms.fns[name] = fn
}

// LookupTransform returns the transform registered under name.
func LookupTransform(name string) (TransformFunc, error) {
	transforms.mu.RLock()
	fn, ok := transforms.fns[name]
	transforms.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownTransform(name)
	}
	return fn, nil
}

// TransformNames returns the registered names in sorted order.
func TransformNames() []string {
	transforms.mu.RLock()
	defer transforms.mu.RUnlock()
	names := make([]string, 0, len(transforms.fns))
	for name := range transforms.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
