package adapters

import (
	"errors"
	"fmt"
	nurl "net/url"
	"strings"
)

// connection string keywords
const (
	keyDSN    = "DSN"
	keyDriver = "DRIVER"
	keyURL    = "URL"
	keyUser   = "UID"
	keyPass   = "PWD"
)

// ConnAttributes are the parsed KEY=value pairs of a connection string. Keys
// are upper case.
type ConnAttributes map[string]string

func (a ConnAttributes) Get(key string) (string, bool) {
	v, ok := a[strings.ToUpper(key)]
	return v, ok
}

// ParseConnString parses "KEY=value;KEY={value};..." pairs. Keys are case
// insensitive and the first occurrence of a key wins. A value wrapped in braces
// may contain ';' and '=', "}}" stands for a literal '}'.
func ParseConnString(s string) (ConnAttributes, error) {
	attrs := make(ConnAttributes)

	for pos := 0; pos < len(s); {
		if s[pos] == ';' || s[pos] == ' ' {
			pos++
			continue
		}

		eq := strings.IndexByte(s[pos:], '=')
		if eq < 0 {
			return nil, fmt.Errorf("attribute %q has no value", strings.TrimSpace(s[pos:]))
		}
		key := strings.ToUpper(strings.TrimSpace(s[pos : pos+eq]))
		if key == "" {
			return nil, fmt.Errorf("empty attribute name at offset %d", pos)
		}
		pos += eq + 1

		var (
			value string
			err   error
		)
		if pos < len(s) && s[pos] == '{' {
			value, pos, err = parseBraced(s, pos)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", key, err)
			}
		} else {
			end := strings.IndexByte(s[pos:], ';')
			if end < 0 {
				end = len(s) - pos
			}
			value = strings.TrimSpace(s[pos : pos+end])
			pos += end
		}

		if _, ok := attrs[key]; !ok {
			attrs[key] = value
		}
	}

	return attrs, nil
}

// parseBraced reads a {...} value starting at the opening brace and returns
// the value and the position after the closing brace.
func parseBraced(s string, pos int) (string, int, error) {
	var b strings.Builder

	for i := pos + 1; i < len(s); i++ {
		if s[i] != '}' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '}' {
			b.WriteByte('}')
			i++
			continue
		}

		next := i + 1
		for next < len(s) && s[next] == ' ' {
			next++
		}
		if next < len(s) && s[next] != ';' {
			return "", 0, errors.New("unexpected characters after closing brace")
		}
		return b.String(), next, nil
	}

	return "", 0, errors.New("missing closing brace")
}

// injectUserInfo sets the user info of a URL with a scheme. Other URLs are
// returned unchanged.
func injectUserInfo(url, user, password string) (string, error) {
	if user == "" && password == "" {
		return url, nil
	}

	u, err := nurl.Parse(url)
	if err != nil {
		return "", fmt.Errorf("could not parse db connection string: %w", err)
	}
	if u.Scheme == "" || u.Opaque != "" {
		return url, nil
	}

	if user == "" && u.User != nil {
		user = u.User.Username()
	}
	if password == "" {
		u.User = nurl.User(user)
	} else {
		u.User = nurl.UserPassword(user, password)
	}

	return u.String(), nil
}
