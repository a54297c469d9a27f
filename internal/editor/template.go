package editor

import (
	"fmt"
	"net/url"
	"strings"
)

// Placeholder is replaced by the markdown file path when an editor starts.
const Placeholder = "{path}"

// Template is the argument pattern of an editor: either a list of process
// arguments or a URI handed to the platform opener.
type Template struct {
	Args []string
	URI  string
}

// Validate reports an error unless the placeholder occurs exactly once
// across Args and URI.
func (t Template) Validate() error {
	n := strings.Count(t.URI, Placeholder)
	for _, a := range t.Args {
		n += strings.Count(a, Placeholder)
	}
	if n != 1 {
		return fmt.Errorf("editor: template must contain %s exactly once, found %d", Placeholder, n)
	}
	if t.URI != "" && len(t.Args) > 0 {
		return fmt.Errorf("editor: template cannot set both args and uri")
	}
	return nil
}

// IsURI reports whether the template is opened through the platform opener.
func (t Template) IsURI() bool {
	return t.URI != ""
}

// Expand substitutes path into the template. For URI templates the path is
// query-escaped and the single element of the result is the URI.
func (t Template) Expand(path string) ([]string, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.IsURI() {
		return []string{strings.Replace(t.URI, Placeholder, url.QueryEscape(path), 1)}, nil
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = strings.Replace(a, Placeholder, path, 1)
	}
	return args, nil
}
