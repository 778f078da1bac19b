package agentconfig

import (
	"net/url"
	"slices"
	"strings"
)

// Errors maps a field to the reason it is invalid. An empty map means the
// record is complete.
type Errors map[Field]string

// Fields returns the invalid fields in file order.
func (e Errors) Fields() []Field {
	out := make([]Field, 0, len(e))
	for _, f := range fields {
		if _, ok := e[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Validation messages.
const (
	MsgProviderRequired = "Provider is required"
	MsgModelRequired    = "Model name is required"
	MsgInvalidURL       = "Must be a valid URL (start with http/https)"
	MsgAPIKeyRequired   = "API Key is required"
	MsgLogLevelRequired = "Log level is required"
	MsgDataPathRequired = "Data path is required"
)

var requiredMessages = map[Field]string{
	FieldProvider: MsgProviderRequired,
	FieldModel:    MsgModelRequired,
	FieldAPIKey:   MsgAPIKeyRequired,
	FieldLogLevel: MsgLogLevelRequired,
	FieldDataPath: MsgDataPathRequired,
}

// Validate checks the whole record. It reports problems, it never fails.
func (r Record) Validate() Errors {
	errs := Errors{}
	for f, msg := range requiredMessages {
		if r.Get(f) == "" {
			errs[f] = msg
		}
	}
	if !validURL(r.LLM.BaseURL) {
		errs[FieldBaseURL] = MsgInvalidURL
	}
	return errs
}

// Complete reports whether the record has no validation errors.
func (r Record) Complete() bool {
	return len(r.Validate()) == 0
}

var urlSchemes = []string{"http", "https"}

func validURL(s string) bool {
	if strings.TrimSpace(s) != s || s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return slices.Contains(urlSchemes, strings.ToLower(u.Scheme)) && u.Host != ""
}
