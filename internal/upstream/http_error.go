package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxSnippet = 256

var (
	// ErrDecode indica una respuesta con forma inesperada.
	ErrDecode = errors.New("unexpected response shape")
	// ErrNotConfigured se devuelve cuando falta la URL base del servicio.
	ErrNotConfigured = errors.New("upstream base url not configured")
)

// HTTPError resume una respuesta no 2xx sin arrastrar el cuerpo completo.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Snippet    string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	msg := fmt.Sprintf("upstream error: op=%s status=%s", e.Op, strings.TrimSpace(e.Status))
	if e.Snippet != "" {
		msg += " body=" + e.Snippet
	}
	return msg
}

// NotFound es util para el matcher, que responde 404 cuando el usuario no existe.
func (e *HTTPError) NotFound() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}

func newHTTPError(op string, resp *http.Response, body []byte) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}
	h.Snippet = snippet(body)
	return h
}

func snippet(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > maxSnippet {
		// Corta en limite de rune para no dejar UTF-8 invalido en logs.
		cut := maxSnippet
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// IsStatus permite a los llamadores distinguir codigos concretos.
func IsStatus(err error, code int) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == code
	}
	return false
}
