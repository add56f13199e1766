package payload

import "github.com/nao1215/sstiscan/internal/model"

// corpus is the ordered list of payloads. Order determines scan order and
// which payload is reported when several would match.
var corpus = []model.Payload{
	{Engine: "Jinja2/Twig", Opener: "{{", Closer: "}}", Raw: "{{7*7}}"},
	{Engine: "Spring/Freemarker/Velocity", Opener: "${", Closer: "}", Raw: "${7*7}"},
	{Engine: "ERB", Opener: "<%=", Closer: "%>", Raw: "<%= 7*7 %>"},
	{Engine: "Thymeleaf", Opener: "#{", Closer: "}", Raw: "#{7*7}"},
	{Engine: "Handlebars", Opener: "${{", Closer: "}}", Raw: "${{7*7}}"},
	{Engine: "Python", Opener: "{{", Closer: "}}", Raw: "{{''.__class__.__mro__[2].__subclasses__()[40]('./file.txt').read()}}"},
	{Engine: "ASP", Opener: "<%", Closer: "%>", Raw: "<% print(7*7) %>"},
}

// All returns the built-in payloads in scan order.
// The returned slice is a copy; callers may not alter the corpus.
func All() []model.Payload {
	out := make([]model.Payload, len(corpus))
	copy(out, corpus)
	return out
}

// Expected returns the value p renders to if a template engine evaluates it.
// It returns an error wrapping ErrNotArithmetic (or another package error)
// when no value can be predicted; callers then fall back to a reflection check.
func Expected(p model.Payload) (string, error) {
	inner := p.Inner()
	if inner == "" {
		return "", ErrNotArithmetic
	}

	value, err := Evaluate(inner)
	if err != nil {
		return "", err
	}
	if value == "0" {
		return "", ErrZeroResult
	}
	return value, nil
}
