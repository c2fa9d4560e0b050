package router

import (
	"fmt"
	"net/url"
	"strings"
)

// Link builds the path that p matches for params. Absent optional and rest
// parameters are omitted. Values are escaped segment by segment; rest values
// keep their "/" separators.
//
//	MustCompile("/blog/[slug]").Link(map[string]string{"slug": "hello"}) // "/blog/hello"
func (p *Pattern) Link(params map[string]string) (string, error) {
	var sb strings.Builder
	for _, seg := range p.segments {
		switch seg.kind {
		case segLiteral:
			sb.WriteByte('/')
			sb.WriteString(url.PathEscape(seg.text))

		case segParam:
			spec := p.params[seg.param]
			v, ok := params[spec.Name]
			if !ok || v == "" {
				return "", fmt.Errorf("link %s: missing param %q", p.id, spec.Name)
			}
			sb.WriteByte('/')
			sb.WriteString(url.PathEscape(seg.prefix + v + seg.suffix))

		case segOptional:
			v, ok := params[p.params[seg.param].Name]
			if !ok || v == "" {
				continue
			}
			sb.WriteByte('/')
			sb.WriteString(url.PathEscape(v))

		case segRest:
			v, ok := params[p.params[seg.param].Name]
			if !ok || v == "" {
				continue
			}
			for _, part := range strings.Split(v, "/") {
				sb.WriteByte('/')
				sb.WriteString(url.PathEscape(part))
			}
		}
	}
	if sb.Len() == 0 {
		return "/", nil
	}
	return sb.String(), nil
}

// Link builds a path for the route with the given id.
func (t *Table) Link(id string, params map[string]string) (string, error) {
	r, ok := t.byID[id]
	if !ok {
		return "", fmt.Errorf("link: unknown route %q", id)
	}
	return r.Pattern.Link(params)
}
