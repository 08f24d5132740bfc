package core

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"text/template"
)

// Credentials is the template data available to expanded connection URLs.
type Credentials struct {
	User     string
	Password string
}

// Expand executes value as a template with the env and exec helpers and data
// as the dot value.
func Expand(value string, data any) (string, error) {
	tmpl, err := template.New("expand_variables").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"env": func(envvar string) string {
				return os.Getenv(envvar)
			},
			"exec": func(line string) (string, error) {
				if strings.Contains(line, " | ") {
					out, err := exec.Command("sh", "-c", line).Output()
					return strings.TrimSpace(string(out)), err
				}

				l := strings.Fields(line)
				if len(l) < 1 {
					return "", errors.New("no command provided")
				}
				cmd := l[0]
				args := l[1:]

				out, err := exec.Command(cmd, args...).Output()
				return strings.TrimSpace(string(out)), err
			},
		}).
		Parse(value)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	err = tmpl.Execute(&out, data)
	if err != nil {
		return "", err
	}

	return out.String(), nil
}

// ExpandOrDefault silently suppresses errors.
func ExpandOrDefault(value string, data any) string {
	ex, err := Expand(value, data)
	if err != nil {
		return value
	}
	return ex
}
