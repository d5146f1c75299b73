package tshark

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrConfig reports engine options that tshark would refuse or misread.
var ErrConfig = errors.New("tshark: invalid configuration")

var (
	prefPattern     = regexp.MustCompile(`^([[:alnum:]._]+)=(.+)$`)
	prefNamePattern = regexp.MustCompile(`^[[:alnum:]._]+$`)
)

// Preference is a Wireshark preference override passed with "-o name:value".
type Preference struct {
	Name  string
	Value string
}

// ParsePreference parses "name=value".
func ParsePreference(s string) (Preference, error) {
	m := prefPattern.FindStringSubmatch(s)
	if m == nil {
		return Preference{}, fmt.Errorf("%w: preference %q is not name=value", ErrConfig, s)
	}
	return Preference{Name: m[1], Value: m[2]}, nil
}

func (p Preference) String() string {
	return p.Name + "=" + p.Value
}

// Options configures the tshark engine before streaming begins.
type Options struct {
	// Binary is the tshark executable; "tshark" from PATH when empty.
	Binary        string
	Preferences   []Preference
	WLANKeys      []string
	DisplayFilter string
}

// Validate checks preferences and WLAN keys without starting tshark. Display filters are
// only checked by tshark itself.
func (o Options) Validate() error {
	for _, p := range o.Preferences {
		if !prefNamePattern.MatchString(p.Name) {
			return fmt.Errorf("%w: preference name %q", ErrConfig, p.Name)
		}
		if p.Value == "" {
			return fmt.Errorf("%w: preference %q has no value", ErrConfig, p.Name)
		}
	}
	for _, k := range o.WLANKeys {
		if _, _, err := parseWLANKey(k); err != nil {
			return err
		}
	}
	return nil
}

// Args builds the tshark command line for reading file.
func (o Options) Args(file string) []string {
	// -r: read the capture file ("-" is stdin)
	// -T pdml: full protocol tree with field names, display strings and raw bytes
	args := []string{"-r", file, "-T", "pdml"}

	for _, p := range o.Preferences {
		args = append(args, "-o", p.Name+":"+p.Value)
	}

	if len(o.WLANKeys) > 0 {
		args = append(args, "-o", "wlan.enable_decryption:TRUE")
		for _, k := range o.WLANKeys {
			kind, key, _ := parseWLANKey(k)
			args = append(args, "-o", fmt.Sprintf("uat:80211_keys:%q,%q", kind, key))
		}
	}

	if o.DisplayFilter != "" {
		args = append(args, "-Y", o.DisplayFilter)
	}
	return args
}

// parseWLANKey splits "wep:<hex>", "wpa-pwd:<passphrase>[:<ssid>]" or "wpa-psk:<hex>" into
// the key type and key string of Wireshark's 80211_keys table.
func parseWLANKey(k string) (kind, key string, err error) {
	kind, key, ok := strings.Cut(k, ":")
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: WLAN key %q has no type prefix", ErrConfig, k)
	}

	switch kind {
	case "wep":
		raw, err := hex.DecodeString(strings.ReplaceAll(key, ":", ""))
		if err != nil {
			return "", "", fmt.Errorf("%w: WEP key is not hex", ErrConfig)
		}
		if n := len(raw); n != 5 && n != 13 && n != 16 {
			return "", "", fmt.Errorf("%w: WEP key must be 40, 104 or 128 bits, got %d", ErrConfig, n*8)
		}
	case "wpa-pwd":
		pass, _, _ := strings.Cut(key, ":")
		if n := len(pass); n < 8 || n > 63 {
			return "", "", fmt.Errorf("%w: WPA passphrase must be 8 to 63 characters", ErrConfig)
		}
	case "wpa-psk":
		raw, err := hex.DecodeString(key)
		if err != nil || len(raw) != 32 {
			return "", "", fmt.Errorf("%w: WPA PSK must be 64 hex digits", ErrConfig)
		}
	default:
		return "", "", fmt.Errorf("%w: unknown WLAN key type %q", ErrConfig, kind)
	}
	return kind, key, nil
}
