package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeType selects how the client talks to the network.
type NodeType string

// NetworkType selects the peer discovery network.
type NetworkType string

// Theme is the UI colour scheme.
type Theme string

const (
	NodeFull  NodeType = "full"
	NodeLight NodeType = "light"

	NetworkBootstrap NetworkType = "bootstrap"
	NetworkCustom    NetworkType = "custom"

	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Key names one field of the settings record.
type Key string

const (
	KeyNodeType         Key = "nodeType"
	KeyNodeURL          Key = "nodeUrl"
	KeyNetworkType      Key = "networkType"
	KeyCustomNetworkURL Key = "customNetworkUrl"
	KeyAutoSelectNew    Key = "autoSelectNew"
	KeyTheme            Key = "theme"
)

// DefaultNodeURL is the REST address of a relay node running locally.
const DefaultNodeURL = "http://127.0.0.1:8645"

var keys = []Key{
	KeyNodeType,
	KeyNodeURL,
	KeyNetworkType,
	KeyCustomNetworkURL,
	KeyAutoSelectNew,
	KeyTheme,
}

// Keys returns every settings key in canonical order.
func Keys() []Key {
	return append([]Key(nil), keys...)
}

// Settings is the persisted settings record.
type Settings struct {
	NodeType         NodeType    `json:"nodeType" validate:"required,oneof=full light"`
	NodeURL          string      `json:"nodeUrl" validate:"required,url"`
	NetworkType      NetworkType `json:"networkType" validate:"required,oneof=bootstrap custom"`
	CustomNetworkURL string      `json:"customNetworkUrl" validate:"omitempty,url"`
	AutoSelectNew    bool        `json:"autoSelectNew"`
	Theme            Theme       `json:"theme" validate:"required,oneof=light dark"`
}

// Defaults returns the record used when nothing has been persisted.
func Defaults() Settings {
	return Settings{
		NodeType:         NodeFull,
		NodeURL:          DefaultNodeURL,
		NetworkType:      NetworkBootstrap,
		CustomNetworkURL: "",
		AutoSelectNew:    true,
		Theme:            ThemeLight,
	}
}

// Value returns the field named by key.
func (s Settings) Value(key Key) (any, error) {
	switch key {
	case KeyNodeType:
		return s.NodeType, nil
	case KeyNodeURL:
		return s.NodeURL, nil
	case KeyNetworkType:
		return s.NetworkType, nil
	case KeyCustomNetworkURL:
		return s.CustomNetworkURL, nil
	case KeyAutoSelectNew:
		return s.AutoSelectNew, nil
	case KeyTheme:
		return s.Theme, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// with returns a copy of s with key set to value. Plain strings are
// accepted for the enum keys.
func (s Settings) with(key Key, value any) (Settings, error) {
	mismatch := func() (Settings, error) {
		return s, &ValidationError{Key: key, Reason: fmt.Sprintf("unexpected type %T", value)}
	}
	switch key {
	case KeyNodeType:
		switch v := value.(type) {
		case NodeType:
			s.NodeType = v
		case string:
			s.NodeType = NodeType(v)
		default:
			return mismatch()
		}
	case KeyNodeURL:
		v, ok := value.(string)
		if !ok {
			return mismatch()
		}
		s.NodeURL = strings.TrimSpace(v)
	case KeyNetworkType:
		switch v := value.(type) {
		case NetworkType:
			s.NetworkType = v
		case string:
			s.NetworkType = NetworkType(v)
		default:
			return mismatch()
		}
	case KeyCustomNetworkURL:
		v, ok := value.(string)
		if !ok {
			return mismatch()
		}
		s.CustomNetworkURL = strings.TrimSpace(v)
	case KeyAutoSelectNew:
		v, ok := value.(bool)
		if !ok {
			return mismatch()
		}
		s.AutoSelectNew = v
	case KeyTheme:
		switch v := value.(type) {
		case Theme:
			s.Theme = v
		case string:
			s.Theme = Theme(v)
		default:
			return mismatch()
		}
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return s, nil
}

// ParseValue converts textual input (CLI arguments, form fields) into the
// typed value expected for key.
func ParseValue(key Key, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch key {
	case KeyNodeType:
		return NodeType(strings.ToLower(raw)), nil
	case KeyNetworkType:
		return NetworkType(strings.ToLower(raw)), nil
	case KeyTheme:
		return Theme(strings.ToLower(raw)), nil
	case KeyNodeURL, KeyCustomNetworkURL:
		return raw, nil
	case KeyAutoSelectNew:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &ValidationError{Key: key, Reason: fmt.Sprintf("%q is not a boolean", raw)}
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}
